package core

import (
	"github.com/vovakirdan/watchparty-server/internal/party"
)

// Error codes raised by the core itself, in addition to party codes.
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeRateLimited = "RATE_LIMITED"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// fromPartyError converts a party outcome into a client-facing error.
func fromPartyError(err error) *CoreError {
	if pe, ok := err.(*party.Error); ok {
		return coreError(string(pe.Code), pe.Detail)
	}
	if code, ok := party.CodeOf(err); ok {
		return coreError(string(code), err.Error())
	}
	return coreError(string(party.CodeSyncError), err.Error())
}
