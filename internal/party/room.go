package party

import (
	"sync"
	"time"
)

// Participant is a member of a room. Values are replaced, never edited in place.
type Participant struct {
	UserID        string
	DisplayName   string
	ConnectionRef string
	JoinedAt      time.Time
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	ID          string
	UserID      string
	DisplayName string
	Text        string
	Timestamp   time.Time
}

// Snapshot is a point-in-time copy of a room's state.
type Snapshot struct {
	ID           string
	Host         string
	Participants []Participant
	CurrentVideo string
	CurrentTitle string
	CurrentTime  float64
	IsPlaying    bool
	Messages     []ChatMessage
	CreatedAt    time.Time
	LastActivity time.Time
	LastSyncTime time.Time
}

// Participant looks up a member by user id.
func (s Snapshot) Participant(userID string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// IsHost reports whether userID currently holds control.
func (s Snapshot) IsHost(userID string) bool {
	return s.Host != "" && s.Host == userID
}

// RoomInfo is the read-only summary exposed to room-info views.
type RoomInfo struct {
	ID               string
	Host             string
	ParticipantCount int
	CurrentVideo     string
	CurrentTitle     string
	CurrentTime      float64
	IsPlaying        bool
	MessageCount     int
	CreatedAt        time.Time
	LastActivity     time.Time
}

// room is owned by the Registry. All fields are guarded by mu.
type room struct {
	mu sync.Mutex

	id           string
	host         string
	participants []Participant // insertion order
	currentVideo string
	currentTitle string
	currentTime  float64
	isPlaying    bool
	messages     []ChatMessage
	createdAt    time.Time
	lastActivity time.Time
	lastSyncTime time.Time

	// closed is set once the room has been removed from the registry.
	closed bool
}

func (r *room) indexOf(userID string) int {
	for i, p := range r.participants {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *room) removeAt(i int) Participant {
	p := r.participants[i]
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return p
}

// earliestParticipant picks the member with the smallest JoinedAt,
// falling back to insertion order on ties.
func (r *room) earliestParticipant() (Participant, bool) {
	if len(r.participants) == 0 {
		return Participant{}, false
	}
	best := r.participants[0]
	for _, p := range r.participants[1:] {
		if p.JoinedAt.Before(best.JoinedAt) {
			best = p
		}
	}
	return best, true
}

func (r *room) appendMessage(msg ChatMessage, limit int) {
	r.messages = append(r.messages, msg)
	if over := len(r.messages) - limit; over > 0 {
		kept := make([]ChatMessage, limit)
		copy(kept, r.messages[over:])
		r.messages = kept
	}
}

func (r *room) snapshot() Snapshot {
	participants := make([]Participant, len(r.participants))
	copy(participants, r.participants)
	messages := make([]ChatMessage, len(r.messages))
	copy(messages, r.messages)

	return Snapshot{
		ID:           r.id,
		Host:         r.host,
		Participants: participants,
		CurrentVideo: r.currentVideo,
		CurrentTitle: r.currentTitle,
		CurrentTime:  r.currentTime,
		IsPlaying:    r.isPlaying,
		Messages:     messages,
		CreatedAt:    r.createdAt,
		LastActivity: r.lastActivity,
		LastSyncTime: r.lastSyncTime,
	}
}

func (r *room) info() RoomInfo {
	return RoomInfo{
		ID:               r.id,
		Host:             r.host,
		ParticipantCount: len(r.participants),
		CurrentVideo:     r.currentVideo,
		CurrentTitle:     r.currentTitle,
		CurrentTime:      r.currentTime,
		IsPlaying:        r.isPlaying,
		MessageCount:     len(r.messages),
		CreatedAt:        r.createdAt,
		LastActivity:     r.lastActivity,
	}
}
