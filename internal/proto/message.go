package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin        = "join-watch-party"
	InboundTypeLeave       = "leave-watch-party"
	InboundTypePlay        = "video-play"
	InboundTypePause       = "video-pause"
	InboundTypeSeek        = "video-seek"
	InboundTypeTimeUpdate  = "video-time-update"
	InboundTypeChangeVideo = "video-changed"
	InboundTypeSendMessage = "send-message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventJoined            = "watch-party-joined"
	EventLeft              = "watch-party-left"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventHostChanged       = "host-changed"
	EventPlaySync          = "video-play-sync"
	EventPauseSync         = "video-pause-sync"
	EventSeekSync          = "video-seek-sync"
	EventTimeSync          = "video-time-sync"
	EventVideoChanged      = "video-changed"
	EventNewMessage        = "new-message"
	EventError             = "watch-party-error"
)

// JoinData creates a watch party when RoomID is empty, joins it otherwise.
type JoinData struct {
	RoomID   string `json:"roomId,omitempty"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	VideoURL string `json:"videoUrl,omitempty"`
}

// PlaybackData carries the sender's local playback position in seconds.
type PlaybackData struct {
	CurrentTime *float64 `json:"currentTime"`
}

// ChangeVideoData is sent by the host to switch videos.
type ChangeVideoData struct {
	VideoURL string `json:"videoUrl"`
	Title    string `json:"title"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Message string `json:"message"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Participant is a room member as seen by clients.
type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	JoinedAt int64  `json:"joinedAt"`
}

// ChatMessage is a transcript entry.
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Room is the full room state sent on join.
type Room struct {
	ID           string        `json:"id"`
	Host         string        `json:"host"`
	Participants []Participant `json:"participants"`
	CurrentVideo string        `json:"currentVideo"`
	CurrentTitle string        `json:"currentTitle"`
	CurrentTime  float64       `json:"currentTime"`
	IsPlaying    bool          `json:"isPlaying"`
	Messages     []ChatMessage `json:"messages"`
	CreatedAt    int64         `json:"createdAt"`
	LastActivity int64         `json:"lastActivity"`
}

// RoomInfo is the summary served by the room-info REST views.
type RoomInfo struct {
	ID               string  `json:"id"`
	Host             string  `json:"host"`
	ParticipantCount int     `json:"participantCount"`
	CurrentVideo     string  `json:"currentVideo"`
	CurrentTitle     string  `json:"currentTitle"`
	CurrentTime      float64 `json:"currentTime"`
	IsPlaying        bool    `json:"isPlaying"`
	MessageCount     int     `json:"messageCount"`
	CreatedAt        int64   `json:"createdAt"`
	LastActivity     int64   `json:"lastActivity"`
}

// EventJoinedData acknowledges a join.
type EventJoinedData struct {
	RoomID string `json:"roomId"`
	IsHost bool   `json:"isHost"`
	Room   Room   `json:"room"`
}

// EventLeftData acknowledges a leave.
type EventLeftData struct {
	RoomID     string `json:"roomId"`
	RoomClosed bool   `json:"roomClosed"`
}

// EventParticipantJoinedData notifies members about a new participant.
type EventParticipantJoinedData struct {
	RoomID           string `json:"roomId"`
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	JoinedAt         int64  `json:"joinedAt"`
	ParticipantCount int    `json:"participantCount"`
}

// EventParticipantLeftData notifies members about a departure.
type EventParticipantLeftData struct {
	RoomID           string `json:"roomId"`
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	ParticipantCount int    `json:"participantCount"`
}

// EventHostChangedData announces the new host.
type EventHostChangedData struct {
	RoomID      string `json:"roomId"`
	NewHost     string `json:"newHost"`
	NewHostName string `json:"newHostName"`
}

// EventSyncData propagates play, pause and seek.
type EventSyncData struct {
	CurrentTime float64 `json:"currentTime"`
	TriggeredBy string  `json:"triggeredBy"`
}

// EventTimeSyncData propagates a drift-correction heartbeat.
type EventTimeSyncData struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	TriggeredBy string  `json:"triggeredBy"`
}

// EventVideoChangedData announces a new video.
type EventVideoChangedData struct {
	VideoURL  string `json:"videoUrl"`
	Title     string `json:"title"`
	ChangedBy string `json:"changedBy"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}
