package party

import (
	"fmt"
	"time"

	"github.com/vovakirdan/watchparty-server/internal/utils"
)

// Limits bounds registry resources and sets the sync rate windows.
type Limits struct {
	RoomIDLength     int
	MaxRooms         int
	MaxParticipants  int
	MaxMessages      int
	MaxMessageLength int
	PlayPauseWindow  time.Duration
	TimeSyncWindow   time.Duration
	SweepGrace       time.Duration
}

// DefaultLimits returns the limits the service ships with.
func DefaultLimits() Limits {
	return Limits{
		RoomIDLength:     utils.DefaultRoomIDLength,
		MaxRooms:         1000,
		MaxParticipants:  50,
		MaxMessages:      100,
		MaxMessageLength: 1000,
		PlayPauseWindow:  100 * time.Millisecond,
		TimeSyncWindow:   time.Second,
		SweepGrace:       5 * time.Minute,
	}
}

// Validate rejects limits the registry cannot operate with.
func (l Limits) Validate() error {
	switch {
	case l.RoomIDLength <= 0:
		return fmt.Errorf("room id length must be positive, got %d", l.RoomIDLength)
	case l.MaxRooms <= 0:
		return fmt.Errorf("max rooms must be positive, got %d", l.MaxRooms)
	case l.MaxParticipants <= 0:
		return fmt.Errorf("max participants must be positive, got %d", l.MaxParticipants)
	case l.MaxMessages <= 0:
		return fmt.Errorf("max messages must be positive, got %d", l.MaxMessages)
	case l.MaxMessageLength <= 0:
		return fmt.Errorf("max message length must be positive, got %d", l.MaxMessageLength)
	case l.PlayPauseWindow < 0 || l.TimeSyncWindow < 0:
		return fmt.Errorf("sync windows must not be negative")
	case l.SweepGrace < 0:
		return fmt.Errorf("sweep grace must not be negative")
	}
	return nil
}
