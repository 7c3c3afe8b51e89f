package utils

import (
	"testing"
	"time"
)

func TestNewRoomIDGenerator(t *testing.T) {
	tests := []struct {
		name           string
		length         int
		expectedLength int
	}{
		{name: "default length when zero", length: 0, expectedLength: DefaultRoomIDLength},
		{name: "default length when negative", length: -3, expectedLength: DefaultRoomIDLength},
		{name: "custom length 8", length: 8, expectedLength: 8},
		{name: "custom length 32", length: 32, expectedLength: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewRoomIDGenerator(tt.length)
			if err != nil {
				t.Fatalf("NewRoomIDGenerator() error = %v", err)
			}
			id := gen()
			if len(id) != tt.expectedLength {
				t.Errorf("generated id length = %d, want %d", len(id), tt.expectedLength)
			}
			if !IsBase62(id) {
				t.Errorf("generated non-base62 id: %s", id)
			}
		})
	}
}

func TestRoomIDUniqueness(t *testing.T) {
	gen, err := NewRoomIDGenerator(DefaultRoomIDLength)
	if err != nil {
		t.Fatalf("NewRoomIDGenerator() error = %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNewMessageIDSortsByTime(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	first := NewMessageID(base)
	second := NewMessageID(base.Add(time.Millisecond))

	if first >= second {
		t.Fatalf("expected %s < %s", first, second)
	}
}

func TestIsBase62(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"abc123", true},
		{"ABCxyz09", true},
		{"", false},
		{"abc-123", false},
		{"abc_123", false},
		{"abc 123", false},
		{"日本語", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsBase62(tt.in); got != tt.valid {
				t.Errorf("IsBase62(%q) = %v, want %v", tt.in, got, tt.valid)
			}
		})
	}
}

func TestNewConnectionIDUnique(t *testing.T) {
	if NewConnectionID() == NewConnectionID() {
		t.Fatal("expected distinct connection ids")
	}
}
