package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin joins a watch party, creating one when RoomID is empty.
	CommandJoin CommandKind = iota
	// CommandLeave leaves the current watch party.
	CommandLeave
	// CommandPlay starts playback at CurrentTime.
	CommandPlay
	// CommandPause pauses playback at CurrentTime.
	CommandPause
	// CommandSeek moves playback to CurrentTime.
	CommandSeek
	// CommandTimeUpdate is the periodic drift-correction heartbeat.
	CommandTimeUpdate
	// CommandChangeVideo switches the video (host only).
	CommandChangeVideo
	// CommandSendMessage posts a chat message.
	CommandSendMessage
)

var commandNames = map[CommandKind]string{
	CommandJoin:        "join",
	CommandLeave:       "leave",
	CommandPlay:        "play",
	CommandPause:       "pause",
	CommandSeek:        "seek",
	CommandTimeUpdate:  "time_update",
	CommandChangeVideo: "change_video",
	CommandSendMessage: "send_message",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind        CommandKind
	RoomID      string
	UserID      string
	Username    string
	VideoURL    string
	Title       string
	CurrentTime float64
	Text        string
}
