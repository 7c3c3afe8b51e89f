package party

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/watchparty-server/internal/utils"
)

// Registry owns every live room and the user -> room reverse index.
//
// Membership changes (create, join, leave, sweep) take the registry write
// lock and then the room lock. Playback and chat operations take the registry
// read lock only to find the room, then the room lock, so unrelated rooms do
// not contend.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	userRoom map[string]string

	limits Limits
	now    func() time.Time
	newID  func() string
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator replaces the room id generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// NewRegistry builds an empty registry.
func NewRegistry(limits Limits, opts ...Option) (*Registry, error) {
	if err := limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	r := &Registry{
		rooms:    make(map[string]*room),
		userRoom: make(map[string]string),
		limits:   limits,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.newID == nil {
		gen, err := utils.NewRoomIDGenerator(limits.RoomIDLength)
		if err != nil {
			return nil, err
		}
		r.newID = gen
	}
	return r, nil
}

// Limits returns the limits the registry was built with.
func (r *Registry) Limits() Limits {
	return r.limits
}

// CreateRoom registers a new room with the caller as sole participant and host.
// A caller already in another room leaves it first.
func (r *Registry) CreateRoom(hostID, hostName, hostConn, initialVideo string) (Snapshot, error) {
	video, err := normalizeOptionalVideo(initialVideo)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCreateLocked(hostID); err != nil {
		return Snapshot{}, err
	}

	r.leaveLocked(hostID, "", false)

	now := r.now()
	rm := &room{
		id:   r.allocateIDLocked(),
		host: hostID,
		participants: []Participant{{
			UserID:        hostID,
			DisplayName:   hostName,
			ConnectionRef: hostConn,
			JoinedAt:      now,
		}},
		currentVideo: video,
		createdAt:    now,
		lastActivity: now,
	}

	r.rooms[rm.id] = rm
	r.userRoom[hostID] = rm.id

	return rm.snapshot(), nil
}

// allocateIDLocked draws ids until one collides with no live room.
func (r *Registry) allocateIDLocked() string {
	for {
		id := r.newID()
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
}

// JoinRoom adds a participant to an existing room.
//
// A user who is already a member of the room is re-bound to the new
// connection and keeps their join time and host status. A user who is a
// member of a different room leaves it first.
func (r *Registry) JoinRoom(roomID, userID, displayName, conn string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}

	if current, tracked := r.userRoom[userID]; tracked && current == roomID {
		if snap, rebound := r.rebind(rm, userID, conn); rebound {
			return snap, nil
		}
	}

	rm.mu.Lock()
	full := len(rm.participants) >= r.limits.MaxParticipants
	rm.mu.Unlock()
	if full {
		return Snapshot{}, newError(CodeRoomFull, "watch party is full")
	}

	r.leaveLocked(userID, "", false)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := r.now()
	rm.participants = append(rm.participants, Participant{
		UserID:        userID,
		DisplayName:   displayName,
		ConnectionRef: conn,
		JoinedAt:      now,
	})
	rm.lastActivity = now
	r.userRoom[userID] = roomID

	return rm.snapshot(), nil
}

func (r *Registry) rebind(rm *room, userID, conn string) (Snapshot, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	i := rm.indexOf(userID)
	if i < 0 {
		return Snapshot{}, false
	}
	p := rm.participants[i]
	p.ConnectionRef = conn
	rm.participants[i] = p
	rm.lastActivity = r.now()
	return rm.snapshot(), true
}

// GetRoom returns a snapshot of the room, if it exists.
func (r *Registry) GetRoom(roomID string) (Snapshot, bool) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return Snapshot{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return Snapshot{}, false
	}
	return rm.snapshot(), true
}

// CheckCreate reports whether hostID could create a room right now. A caller
// who is the only member of their current room frees that slot by leaving.
func (r *Registry) CheckCreate(hostID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.checkCreateLocked(hostID)
}

func (r *Registry) checkCreateLocked(hostID string) error {
	active := len(r.rooms)
	if roomID, ok := r.userRoom[hostID]; ok {
		if rm, ok := r.rooms[roomID]; ok {
			rm.mu.Lock()
			sole := len(rm.participants) == 1 && rm.indexOf(hostID) == 0
			rm.mu.Unlock()
			if sole {
				active--
			}
		}
	}
	if active >= r.limits.MaxRooms {
		return newError(CodeRoomFull, "too many active watch parties")
	}
	return nil
}

// RoomOf returns the id of the room userID is currently in.
func (r *Registry) RoomOf(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.userRoom[userID]
	return id, ok
}

func (r *Registry) lookup(roomID string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	return rm, ok
}

// LeaveResult describes the outcome of a departure.
type LeaveResult struct {
	// Room is the state after the departure. For a deleted room it is the
	// final state with no participants.
	Room        Snapshot
	Left        Participant
	HostChanged bool
	NewHost     Participant
	RoomDeleted bool
}

// LeaveRoom removes userID from whatever room they are in.
func (r *Registry) LeaveRoom(userID string) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(userID, "", false)
}

// LeaveConnection is the disconnect path: it removes userID only if their
// membership is still bound to conn.
func (r *Registry) LeaveConnection(userID, conn string) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(userID, conn, true)
}

func (r *Registry) leaveLocked(userID, conn string, matchConn bool) (LeaveResult, bool) {
	roomID, ok := r.userRoom[userID]
	if !ok {
		return LeaveResult{}, false
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		delete(r.userRoom, userID)
		return LeaveResult{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	i := rm.indexOf(userID)
	if i < 0 {
		delete(r.userRoom, userID)
		return LeaveResult{}, false
	}
	if matchConn && rm.participants[i].ConnectionRef != conn {
		return LeaveResult{}, false
	}

	left := rm.removeAt(i)
	delete(r.userRoom, userID)

	res := LeaveResult{Left: left}
	now := r.now()

	if len(rm.participants) == 0 {
		rm.host = ""
		rm.closed = true
		delete(r.rooms, roomID)
		res.RoomDeleted = true
		res.Room = rm.snapshot()
		return res, true
	}

	if rm.host == userID {
		next, _ := rm.earliestParticipant()
		rm.host = next.UserID
		res.HostChanged = true
		res.NewHost = next
	}
	rm.lastActivity = now
	res.Room = rm.snapshot()
	return res, true
}

// Info returns the read-only summary of a room.
func (r *Registry) Info(roomID string) (RoomInfo, bool) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return RoomInfo{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return RoomInfo{}, false
	}
	return rm.info(), true
}

// List returns summaries of all live rooms, oldest first.
func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		rm.mu.Lock()
		if !rm.closed {
			infos = append(infos, rm.info())
		}
		rm.mu.Unlock()
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Stats counts live rooms and tracked participants.
type Stats struct {
	Rooms        int
	Participants int
}

// Stats returns current totals.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{Rooms: len(r.rooms), Participants: len(r.userRoom)}
}

// Sweep deletes rooms that have no participants and have been inactive for
// longer than the grace period. It returns the ids it removed.
func (r *Registry) Sweep() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed []string
	for id, rm := range r.rooms {
		rm.mu.Lock()
		if len(rm.participants) == 0 && now.Sub(rm.lastActivity) > r.limits.SweepGrace {
			rm.closed = true
			delete(r.rooms, id)
			removed = append(removed, id)
		}
		rm.mu.Unlock()
	}

	if len(removed) > 0 {
		for userID, roomID := range r.userRoom {
			for _, id := range removed {
				if roomID == id {
					delete(r.userRoom, userID)
				}
			}
		}
	}
	sort.Strings(removed)
	return removed
}
