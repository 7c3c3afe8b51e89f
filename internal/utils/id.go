package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/oklog/ulid/v2"
)

// Base62 is the alphabet used for room identifiers.
const Base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultRoomIDLength is the room identifier length used when none is configured.
const DefaultRoomIDLength = 16

// NewRoomIDGenerator returns a generator of uniformly random base62 strings of the given length.
func NewRoomIDGenerator(length int) (func() string, error) {
	if length <= 0 {
		length = DefaultRoomIDLength
	}
	gen, err := nanoid.CustomASCII(Base62, length)
	if err != nil {
		return nil, fmt.Errorf("room id generator: %w", err)
	}
	return gen, nil
}

// NewConnectionID returns an identifier for a single transport connection.
func NewConnectionID() string {
	return uuid.NewString()
}

// NewMessageID returns a lexically sortable identifier for a chat message sent at t.
func NewMessageID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// IsBase62 reports whether s is non-empty and consists only of base62 characters.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isAlphanumeric(c) {
			return false
		}
	}
	return true
}

func isAlphanumeric(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
