package core

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/watchparty-server/internal/metrics"
	"github.com/vovakirdan/watchparty-server/internal/party"
)

type envelopeKind int

const (
	envelopeRegister envelopeKind = iota
	envelopeUnregister
	envelopeCommand
)

type envelope struct {
	kind   envelopeKind
	client *Client
	cmd    *Command
}

// session is the hub's view of a registered client. Only Run touches it.
type session struct {
	client *Client
	userID string
	name   string
}

// Hub dispatches client commands to the party registry and fans the
// resulting events out to room members. All commands are processed one at a
// time by Run, so events for a room are handled in arrival order.
type Hub struct {
	registry *party.Registry
	log      *zerolog.Logger

	inbox    chan envelope
	quit     chan struct{}
	quitOnce sync.Once

	clients map[string]*session
}

// NewHub creates a hub over registry.
func NewHub(registry *party.Registry, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: registry,
		log:      logger,
		inbox:    make(chan envelope, 256),
		quit:     make(chan struct{}),
		clients:  make(map[string]*session),
	}
}

// Registry returns the registry the hub mutates.
func (h *Hub) Registry() *party.Registry {
	return h.registry
}

// RegisterClient attaches a client and starts forwarding its commands.
func (h *Hub) RegisterClient(c *Client) {
	if !h.enqueue(envelope{kind: envelopeRegister, client: c}) {
		return
	}
	go h.pump(c)
}

// UnregisterClient detaches a client. Its room membership is released the
// same way as an explicit leave.
func (h *Hub) UnregisterClient(c *Client) {
	h.enqueue(envelope{kind: envelopeUnregister, client: c})
}

func (h *Hub) enqueue(env envelope) bool {
	select {
	case h.inbox <- env:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			if cmd == nil {
				continue
			}
			if !h.enqueue(envelope{kind: envelopeCommand, client: c, cmd: cmd}) {
				return
			}
		case <-c.done:
			return
		case <-h.quit:
			return
		}
	}
}

// Run processes commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case env := <-h.inbox:
			h.dispatch(env)
		}
	}
}

// Serve lets the hub run under a supervisor.
func (h *Hub) Serve(ctx context.Context) error {
	return h.Run(ctx)
}

func (h *Hub) String() string {
	return "watchparty-hub"
}

func (h *Hub) shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })

	for id, s := range h.clients {
		close(s.client.done)
		close(s.client.Events)
		delete(h.clients, id)
	}
	metrics.ConnectedClients.Set(0)
	h.log.Info().Msg("hub stopped")
}

func (h *Hub) dispatch(env envelope) {
	switch env.kind {
	case envelopeRegister:
		c := env.client
		if _, exists := h.clients[c.ID]; exists {
			return
		}
		h.clients[c.ID] = &session{client: c, userID: c.UserID, name: c.Name}
		metrics.ConnectedClients.Inc()
		h.log.Debug().Str("client_id", c.ID).Msg("client registered")
	case envelopeUnregister:
		h.disconnect(env.client)
	case envelopeCommand:
		s, ok := h.clients[env.client.ID]
		if !ok {
			return
		}
		metrics.InboundEvents.WithLabelValues(env.cmd.Kind.String()).Inc()
		h.handle(s, env.cmd)
	}
}

func (h *Hub) handle(s *session, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(s, cmd)
	case CommandLeave:
		h.handleLeave(s)
	case CommandPlay, CommandPause, CommandSeek, CommandTimeUpdate:
		h.handleSync(s, cmd)
	case CommandChangeVideo:
		h.handleChangeVideo(s, cmd)
	case CommandSendMessage:
		h.handleSendMessage(s, cmd)
	default:
		h.sendError(s, coreError(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) handleJoin(s *session, cmd *Command) {
	userID, name := s.client.UserID, s.client.Name
	if userID == "" {
		userID = strings.TrimSpace(cmd.UserID)
		name = strings.TrimSpace(cmd.Username)
	}
	if userID == "" {
		h.sendError(s, coreError(ErrCodeBadRequest, "userId is required"))
		return
	}
	if name == "" {
		name = userID
	}

	// a connection speaks for one user at a time
	if s.userID != "" && s.userID != userID {
		if res, ok := h.registry.LeaveConnection(s.userID, s.client.ID); ok {
			h.announceLeave(res, true)
		}
	}
	s.userID, s.name = userID, name

	var (
		snap      party.Snapshot
		err       error
		newMember = true
	)

	if cmd.RoomID == "" {
		if err := h.registry.CheckCreate(userID); err != nil {
			h.sendError(s, fromPartyError(err))
			return
		}
		h.leaveCurrentRoom(userID)
		snap, err = h.registry.CreateRoom(userID, name, s.client.ID, cmd.VideoURL)
	} else {
		if current, ok := h.registry.RoomOf(userID); ok {
			if current == cmd.RoomID {
				newMember = false
			} else if cerr := h.checkJoinable(cmd.RoomID); cerr != nil {
				h.sendError(s, cerr)
				return
			} else {
				h.leaveCurrentRoom(userID)
			}
		}
		snap, err = h.registry.JoinRoom(cmd.RoomID, userID, name, s.client.ID)
	}
	if err != nil {
		h.log.Debug().Err(err).Str("user_id", userID).Str("room_id", cmd.RoomID).Msg("join rejected")
		h.sendError(s, fromPartyError(err))
		return
	}

	h.deliver(s.client.ID, &Event{
		Kind:   EventJoined,
		RoomID: snap.ID,
		IsHost: snap.IsHost(userID),
		Room:   &snap,
	})

	if newMember {
		p, _ := snap.Participant(userID)
		h.broadcast(snap, &Event{
			Kind:             EventParticipantJoined,
			RoomID:           snap.ID,
			Participant:      p,
			ParticipantCount: len(snap.Participants),
		}, s.client.ID)
	}

	h.observeRooms()
	h.log.Info().
		Str("room_id", snap.ID).
		Str("user_id", userID).
		Bool("host", snap.IsHost(userID)).
		Int("participants", len(snap.Participants)).
		Msg("joined watch party")
}

// checkJoinable reports why a join into roomID would fail, without side effects.
func (h *Hub) checkJoinable(roomID string) *CoreError {
	info, ok := h.registry.Info(roomID)
	if !ok {
		return fromPartyError(party.ErrRoomNotFound)
	}
	if info.ParticipantCount >= h.registry.Limits().MaxParticipants {
		return coreError(string(party.CodeRoomFull), "watch party is full")
	}
	return nil
}

func (h *Hub) leaveCurrentRoom(userID string) {
	if res, ok := h.registry.LeaveRoom(userID); ok {
		h.announceLeave(res, true)
	}
}

func (h *Hub) handleLeave(s *session) {
	if s.userID == "" {
		return
	}
	res, ok := h.registry.LeaveConnection(s.userID, s.client.ID)
	if !ok {
		h.log.Debug().Str("user_id", s.userID).Msg("leave without membership")
		return
	}
	h.announceLeave(res, true)
	h.observeRooms()
}

func (h *Hub) disconnect(c *Client) {
	s, ok := h.clients[c.ID]
	if !ok {
		return
	}

	if s.userID != "" {
		if res, left := h.registry.LeaveConnection(s.userID, c.ID); left {
			h.announceLeave(res, false)
		}
	}

	delete(h.clients, c.ID)
	close(c.done)
	close(c.Events)
	metrics.ConnectedClients.Dec()
	h.observeRooms()
	h.log.Debug().Str("client_id", c.ID).Str("user_id", s.userID).Msg("client unregistered")
}

func (h *Hub) announceLeave(res party.LeaveResult, notifyLeaver bool) {
	if notifyLeaver {
		h.deliver(res.Left.ConnectionRef, &Event{
			Kind:       EventLeft,
			RoomID:     res.Room.ID,
			RoomClosed: res.RoomDeleted,
		})
	}

	if res.RoomDeleted {
		h.log.Info().Str("room_id", res.Room.ID).Msg("watch party closed")
		return
	}

	h.broadcast(res.Room, &Event{
		Kind:             EventParticipantLeft,
		RoomID:           res.Room.ID,
		Participant:      res.Left,
		ParticipantCount: len(res.Room.Participants),
	}, "")

	if res.HostChanged {
		metrics.HostChanges.Inc()
		h.broadcast(res.Room, &Event{
			Kind:             EventHostChanged,
			RoomID:           res.Room.ID,
			Participant:      res.NewHost,
			ParticipantCount: len(res.Room.Participants),
		}, "")
		h.log.Info().
			Str("room_id", res.Room.ID).
			Str("old_host", res.Left.UserID).
			Str("new_host", res.NewHost.UserID).
			Msg("host changed")
	}
}

func (h *Hub) currentRoom(s *session) (string, bool) {
	if s.userID == "" {
		return "", false
	}
	return h.registry.RoomOf(s.userID)
}

func (h *Hub) handleSync(s *session, cmd *Command) {
	roomID, ok := h.currentRoom(s)
	if !ok {
		h.sendError(s, coreError(string(party.CodeRoomNotFound), "not in a watch party"))
		return
	}
	if err := party.ValidatePlaybackTime(cmd.CurrentTime); err != nil {
		h.sendError(s, fromPartyError(err))
		return
	}

	var (
		res  party.SyncResult
		kind EventKind
	)
	switch cmd.Kind {
	case CommandPlay:
		res, ok = h.registry.SyncPlay(roomID, s.userID, cmd.CurrentTime)
		kind = EventPlaySync
	case CommandPause:
		res, ok = h.registry.SyncPause(roomID, s.userID, cmd.CurrentTime)
		kind = EventPauseSync
	case CommandSeek:
		res, ok = h.registry.SyncSeek(roomID, s.userID, cmd.CurrentTime)
		kind = EventSeekSync
	default:
		res, ok = h.registry.SyncTime(roomID, s.userID, cmd.CurrentTime)
		kind = EventTimeSync
	}
	if !ok {
		h.sendError(s, fromPartyError(party.ErrRoomNotFound))
		return
	}

	label := cmd.Kind.String()
	if !res.ShouldSync {
		metrics.SyncSuppressed.WithLabelValues(label).Inc()
		return
	}
	metrics.SyncBroadcasts.WithLabelValues(label).Inc()

	h.broadcast(res.Room, &Event{
		Kind:        kind,
		RoomID:      roomID,
		CurrentTime: res.Room.CurrentTime,
		IsPlaying:   res.Room.IsPlaying,
		TriggeredBy: res.TriggeredBy,
	}, s.client.ID)
}

func (h *Hub) handleChangeVideo(s *session, cmd *Command) {
	roomID, ok := h.currentRoom(s)
	if !ok {
		h.sendError(s, coreError(string(party.CodeRoomNotFound), "not in a watch party"))
		return
	}

	res, err := h.registry.ChangeVideo(roomID, s.userID, cmd.VideoURL, cmd.Title)
	if err != nil {
		h.sendError(s, fromPartyError(err))
		return
	}
	if !res.Authorized {
		h.log.Debug().Str("room_id", roomID).Str("user_id", s.userID).Msg("video change denied")
		h.sendError(s, fromPartyError(party.ErrNotAuthorized))
		return
	}

	h.broadcast(res.Room, &Event{
		Kind:      EventVideoChanged,
		RoomID:    roomID,
		VideoURL:  res.Room.CurrentVideo,
		Title:     res.Room.CurrentTitle,
		ChangedBy: s.userID,
	}, "")
	h.log.Info().Str("room_id", roomID).Str("video", res.Room.CurrentVideo).Msg("video changed")
}

func (h *Hub) handleSendMessage(s *session, cmd *Command) {
	roomID, ok := h.currentRoom(s)
	if !ok {
		h.sendError(s, coreError(string(party.CodeRoomNotFound), "not in a watch party"))
		return
	}

	msg, ok := h.registry.SendMessage(roomID, s.userID, s.name, cmd.Text)
	if !ok {
		if strings.TrimSpace(cmd.Text) == "" {
			h.sendError(s, coreError(ErrCodeBadRequest, "message is required"))
		} else {
			h.sendError(s, fromPartyError(party.ErrRoomNotFound))
		}
		return
	}
	metrics.MessagesSent.Inc()

	snap, ok := h.registry.GetRoom(roomID)
	if !ok {
		return
	}
	h.broadcast(snap, &Event{Kind: EventNewMessage, RoomID: roomID, Message: msg}, "")
}

// broadcast delivers ev to every member of the room except the exclude connection.
func (h *Hub) broadcast(snap party.Snapshot, ev *Event, exclude string) {
	for _, p := range snap.Participants {
		if exclude != "" && p.ConnectionRef == exclude {
			continue
		}
		h.deliver(p.ConnectionRef, ev)
	}
}

func (h *Hub) deliver(connID string, ev *Event) {
	s, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case s.client.Events <- ev:
	default:
		// Drop if slow consumer.
		metrics.EventsDropped.Inc()
		h.log.Warn().Str("client_id", connID).Int("event", int(ev.Kind)).Msg("dropping event for slow client")
	}
}

func (h *Hub) sendError(s *session, err *CoreError) {
	h.deliver(s.client.ID, &Event{Kind: EventError, Error: err})
}

func (h *Hub) observeRooms() {
	stats := h.registry.Stats()
	metrics.ObserveRooms(stats.Rooms, stats.Participants)
}
