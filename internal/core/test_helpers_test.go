package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/watchparty-server/internal/party"
)

func newTestHub(t *testing.T, mutate func(*party.Limits)) *Hub {
	t.Helper()

	limits := party.DefaultLimits()
	if mutate != nil {
		mutate(&limits)
	}
	reg, err := party.NewRegistry(limits)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	hub := NewHub(reg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()
	return hub
}

// joinNew registers c and creates a room hosted by it.
func joinNew(t *testing.T, hub *Hub, c *Client, userID, name, video string) *Event {
	t.Helper()
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandJoin, UserID: userID, Username: name, VideoURL: video}
	return mustEvent(t, c.Events, EventJoined)
}

// joinExisting registers c and joins roomID.
func joinExisting(t *testing.T, hub *Hub, c *Client, roomID, userID, name string) *Event {
	t.Helper()
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandJoin, RoomID: roomID, UserID: userID, Username: name}
	return mustEvent(t, c.Events, EventJoined)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustError(t *testing.T, ch <-chan *Event, code string) *Event {
	t.Helper()

	ev := mustEvent(t, ch, EventError)
	if ev.Error == nil || ev.Error.Code != code {
		t.Fatalf("expected error %s, got %+v", code, ev.Error)
	}
	return ev
}
