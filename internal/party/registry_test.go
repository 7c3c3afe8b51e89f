package party

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/watchparty-server/internal/utils"
)

func TestCreateRoomMakesCallerSoleHost(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	room, err := reg.CreateRoom("h1", "Host", "conn-h1", "https://cdn.example.com/v1.mp4")
	require.NoError(t, err)

	assert.Equal(t, "h1", room.Host)
	require.Len(t, room.Participants, 1)
	assert.Equal(t, "h1", room.Participants[0].UserID)
	assert.Equal(t, "conn-h1", room.Participants[0].ConnectionRef)
	assert.Equal(t, "https://cdn.example.com/v1.mp4", room.CurrentVideo)
	assert.Len(t, room.ID, utils.DefaultRoomIDLength)
	assert.True(t, utils.IsBase62(room.ID))

	roomID, ok := reg.RoomOf("h1")
	require.True(t, ok)
	assert.Equal(t, room.ID, roomID)
}

func TestCreateRoomRejectsInvalidInitialVideo(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	_, err := reg.CreateRoom("h1", "Host", "c1", "ftp://example.com/movie")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVideoURL)
	assert.Equal(t, 0, reg.Stats().Rooms)
}

func TestCreateRoomGlobalCap(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock(), func(l *Limits) { l.MaxRooms = 3 })

	for i := 0; i < 3; i++ {
		_, err := reg.CreateRoom(fmt.Sprintf("u%d", i), "user", "c", "")
		require.NoError(t, err)
	}

	_, err := reg.CreateRoom("late", "Late", "c-late", "")
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeRoomFull, code)
	assert.Equal(t, 3, reg.Stats().Rooms)

	_, tracked := reg.RoomOf("late")
	assert.False(t, tracked)
}

func TestCreateRoomAtCapReusesSoleMemberSlot(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock(), func(l *Limits) { l.MaxRooms = 1 })

	first, err := reg.CreateRoom("alice", "Alice", "c-a", "")
	require.NoError(t, err)
	require.NoError(t, reg.CheckCreate("alice"))

	second, err := reg.CreateRoom("alice", "Alice", "c-a", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, reg.Stats().Rooms)

	_, err = reg.JoinRoom(second.ID, "bob", "Bob", "c-b")
	require.NoError(t, err)

	err = reg.CheckCreate("alice")
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeRoomFull, code)

	_, err = reg.CreateRoom("alice", "Alice", "c-a", "")
	require.Error(t, err)
	roomID, ok := reg.RoomOf("alice")
	require.True(t, ok)
	assert.Equal(t, second.ID, roomID)
	snap, ok := reg.GetRoom(second.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", snap.Host)
	assert.Len(t, snap.Participants, 2)
}

func TestAllocateIDSkipsCollisions(t *testing.T) {
	clock := newFakeClock()
	reg, err := NewRegistry(DefaultLimits(),
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs("AAAA", "AAAA", "BBBB")),
	)
	require.NoError(t, err)

	first, err := reg.CreateRoom("u1", "one", "c1", "")
	require.NoError(t, err)
	second, err := reg.CreateRoom("u2", "two", "c2", "")
	require.NoError(t, err)

	assert.Equal(t, "AAAA", first.ID)
	assert.Equal(t, "BBBB", second.ID)
}

func TestJoinRoomNotFound(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	_, err := reg.JoinRoom("missing", "p1", "Pat", "c-p1")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestJoinRoomParticipantCap(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock(), func(l *Limits) { l.MaxParticipants = 3 })

	room, err := reg.CreateRoom("h1", "Host", "c-h1", "")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2"} {
		_, err := reg.JoinRoom(room.ID, id, id, "c-"+id)
		require.NoError(t, err)
	}

	_, err = reg.JoinRoom(room.ID, "p3", "p3", "c-p3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoomFull)

	snap, ok := reg.GetRoom(room.ID)
	require.True(t, ok)
	assert.Len(t, snap.Participants, 3)
}

func TestJoinRoomUpdatesActivity(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	room, err := reg.CreateRoom("h1", "Host", "c-h1", "")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	joined, err := reg.JoinRoom(room.ID, "p1", "Pat", "c-p1")
	require.NoError(t, err)

	assert.Equal(t, clock.Now(), joined.LastActivity)
	assert.Equal(t, room.CreatedAt, joined.CreatedAt)
}

func TestJoinRoomSameRoomRebindsConnection(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	room, err := reg.CreateRoom("h1", "Host", "c-old", "")
	require.NoError(t, err)

	clock.Advance(time.Second)
	snap, err := reg.JoinRoom(room.ID, "h1", "Host", "c-new")
	require.NoError(t, err)

	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "c-new", snap.Participants[0].ConnectionRef)
	assert.Equal(t, room.CreatedAt, snap.Participants[0].JoinedAt)
	assert.Equal(t, "h1", snap.Host)

	// the stale connection can no longer evict the user
	_, left := reg.LeaveConnection("h1", "c-old")
	assert.False(t, left)
	_, ok := reg.GetRoom(room.ID)
	assert.True(t, ok)
}

func TestJoinAnotherRoomLeavesPrevious(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	first, err := reg.CreateRoom("h1", "Host", "c-h1", "")
	require.NoError(t, err)
	_, err = reg.JoinRoom(first.ID, "p1", "Pat", "c-p1")
	require.NoError(t, err)

	second, err := reg.CreateRoom("h2", "Other", "c-h2", "")
	require.NoError(t, err)
	_, err = reg.JoinRoom(second.ID, "p1", "Pat", "c-p1")
	require.NoError(t, err)

	snap, ok := reg.GetRoom(first.ID)
	require.True(t, ok)
	_, stillThere := snap.Participant("p1")
	assert.False(t, stillThere)

	roomID, _ := reg.RoomOf("p1")
	assert.Equal(t, second.ID, roomID)
}

func TestLeaveRoomUnknownUser(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	_, ok := reg.LeaveRoom("nobody")
	assert.False(t, ok)
}

func TestHostLeaveHandsControlToEarliestJoiner(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		clock.Advance(time.Second)
		_, err := reg.JoinRoom(room.ID, id, id, "c-"+id)
		require.NoError(t, err)
	}

	res, ok := reg.LeaveRoom("h")
	require.True(t, ok)
	assert.True(t, res.HostChanged)
	assert.False(t, res.RoomDeleted)
	assert.Equal(t, "p1", res.NewHost.UserID)
	assert.Equal(t, "p1", res.Room.Host)
	assert.Equal(t, "h", res.Left.UserID)
	assert.Len(t, res.Room.Participants, 3)

	_, tracked := reg.RoomOf("h")
	assert.False(t, tracked)
}

func TestHostSuccessionTieBreaksOnInsertionOrder(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)
	// same instant for every joiner
	for _, id := range []string{"z", "a", "m"} {
		_, err := reg.JoinRoom(room.ID, id, id, "c-"+id)
		require.NoError(t, err)
	}

	res, ok := reg.LeaveRoom("h")
	require.True(t, ok)
	assert.Equal(t, "z", res.NewHost.UserID)
}

func TestNonHostLeaveKeepsHost(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)
	_, err = reg.JoinRoom(room.ID, "p1", "Pat", "c-p1")
	require.NoError(t, err)

	res, ok := reg.LeaveRoom("p1")
	require.True(t, ok)
	assert.False(t, res.HostChanged)
	assert.Equal(t, "h", res.Room.Host)
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)

	res, ok := reg.LeaveRoom("h")
	require.True(t, ok)
	assert.True(t, res.RoomDeleted)
	assert.Empty(t, res.Room.Participants)

	_, found := reg.GetRoom(room.ID)
	assert.False(t, found)
	_, found = reg.Info(room.ID)
	assert.False(t, found)
	assert.Equal(t, Stats{}, reg.Stats())

	// operations on the deleted room report absence
	_, ok = reg.SyncPlay(room.ID, "h", 1)
	assert.False(t, ok)
	_, ok = reg.SendMessage(room.ID, "h", "Host", "hi")
	assert.False(t, ok)
}

func TestLeaveConnectionRequiresMatchingConnection(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)

	_, ok := reg.LeaveConnection("h", "some-other-conn")
	assert.False(t, ok)

	res, ok := reg.LeaveConnection("h", "c-h")
	require.True(t, ok)
	assert.True(t, res.RoomDeleted)

	_, found := reg.GetRoom(room.ID)
	assert.False(t, found)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	reg := newTestRegistry(t, newFakeClock())

	room, err := reg.CreateRoom("h", "Host", "c-h", "")
	require.NoError(t, err)
	room.Participants[0].DisplayName = "mutated"

	snap, ok := reg.GetRoom(room.ID)
	require.True(t, ok)
	assert.Equal(t, "Host", snap.Participants[0].DisplayName)
}

func TestInfoAndList(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	first, err := reg.CreateRoom("h1", "Host", "c-h1", "movie-1")
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := reg.CreateRoom("h2", "Host2", "c-h2", "")
	require.NoError(t, err)
	_, err = reg.JoinRoom(first.ID, "p1", "Pat", "c-p1")
	require.NoError(t, err)
	_, ok := reg.SendMessage(first.ID, "p1", "Pat", "hello")
	require.True(t, ok)

	info, ok := reg.Info(first.ID)
	require.True(t, ok)
	assert.Equal(t, "h1", info.Host)
	assert.Equal(t, 2, info.ParticipantCount)
	assert.Equal(t, "movie-1", info.CurrentVideo)
	assert.Equal(t, 1, info.MessageCount)
	assert.False(t, info.IsPlaying)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	assert.Equal(t, Stats{Rooms: 2, Participants: 3}, reg.Stats())
}

func TestSweepRemovesOnlyStaleEmptyRooms(t *testing.T) {
	clock := newFakeClock()
	reg := newTestRegistry(t, clock)

	populated, err := reg.CreateRoom("h1", "Host", "c-h1", "")
	require.NoError(t, err)
	empty, err := reg.CreateRoom("h2", "Host2", "c-h2", "")
	require.NoError(t, err)

	// simulate a room emptied without going through LeaveRoom
	rm, ok := reg.lookup(empty.ID)
	require.True(t, ok)
	rm.mu.Lock()
	rm.participants = nil
	rm.mu.Unlock()

	clock.Advance(reg.Limits().SweepGrace)
	assert.Empty(t, reg.Sweep(), "grace period not yet exceeded")

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{empty.ID}, reg.Sweep())

	_, found := reg.GetRoom(empty.ID)
	assert.False(t, found)
	_, found = reg.GetRoom(populated.ID)
	assert.True(t, found, "populated rooms are never swept")
	_, tracked := reg.RoomOf("h2")
	assert.False(t, tracked)

	assert.Empty(t, reg.Sweep(), "sweeping is idempotent")
}

func TestNewRegistryRejectsInvalidLimits(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxParticipants = 0

	_, err := NewRegistry(limits)
	assert.Error(t, err)
}
