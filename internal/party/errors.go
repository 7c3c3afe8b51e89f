package party

import "errors"

// Code is a stable error code relayed to clients.
type Code string

// Error codes for watch party operations.
const (
	CodeRoomNotFound    Code = "ROOM_NOT_FOUND"
	CodeRoomFull        Code = "ROOM_FULL"
	CodeNotAuthorized   Code = "NOT_AUTHORIZED"
	CodeInvalidVideoURL Code = "INVALID_VIDEO_URL"
	CodeSyncError       Code = "SYNC_ERROR"
)

var (
	ErrRoomNotFound    = &Error{Code: CodeRoomNotFound, Detail: "room not found"}
	ErrRoomFull        = &Error{Code: CodeRoomFull, Detail: "room is full"}
	ErrNotAuthorized   = &Error{Code: CodeNotAuthorized, Detail: "only the host can do that"}
	ErrInvalidVideoURL = &Error{Code: CodeInvalidVideoURL, Detail: "invalid video url"}
	ErrSyncError       = &Error{Code: CodeSyncError, Detail: "invalid playback state"}
)

// Error is a typed operation outcome carrying a stable code.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Detail
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// CodeOf extracts the code from err, if it is (or wraps) an *Error.
func CodeOf(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}
