package core

import "github.com/vovakirdan/watchparty-server/internal/party"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoined acknowledges a join to the joining client.
	EventJoined EventKind = iota
	// EventLeft acknowledges an explicit leave to the leaving client.
	EventLeft
	// EventParticipantJoined notifies the other members about a new participant.
	EventParticipantJoined
	// EventParticipantLeft notifies the remaining members about a departure.
	EventParticipantLeft
	// EventHostChanged announces host succession.
	EventHostChanged
	// EventPlaySync propagates a play.
	EventPlaySync
	// EventPauseSync propagates a pause.
	EventPauseSync
	// EventSeekSync propagates a seek.
	EventSeekSync
	// EventTimeSync propagates a drift-correction heartbeat.
	EventTimeSync
	// EventVideoChanged announces a new video.
	EventVideoChanged
	// EventNewMessage delivers a chat message.
	EventNewMessage
	// EventError notifies a client about a failed request.
	EventError
)

// Event is sent to clients to describe what happened in a room.
type Event struct {
	Kind   EventKind
	RoomID string

	// EventJoined
	IsHost bool
	Room   *party.Snapshot

	// EventLeft
	RoomClosed bool

	// EventParticipantJoined, EventParticipantLeft, EventHostChanged
	Participant      party.Participant
	ParticipantCount int

	// playback sync events
	CurrentTime float64
	IsPlaying   bool
	TriggeredBy string

	// EventVideoChanged
	VideoURL  string
	Title     string
	ChangedBy string

	// EventNewMessage
	Message party.ChatMessage

	Error *CoreError
}
