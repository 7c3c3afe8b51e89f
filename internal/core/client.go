package core

// Client is one transport connection as seen by the core layer.
// The transport writes commands and reads events; the hub closes Events
// when the client is unregistered.
type Client struct {
	ID string
	// UserID and Name are set when the transport verified the identity up
	// front. They take precedence over the identity in a join request.
	UserID   string
	Name     string
	Commands chan *Command
	Events   chan *Event

	done chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, userID, name string) *Client {
	if name == "" {
		name = userID
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 64),
		done:     make(chan struct{}),
	}
}
