package party

import (
	"math"
	"net/url"
	"strings"
	"time"
)

const maxVideoLocatorLength = 2048

// SyncResult reports the room state after a sync call and whether the call
// should be broadcast. A suppressed call changes nothing.
type SyncResult struct {
	ShouldSync  bool
	TriggeredBy string
	Room        Snapshot
}

// VideoChange reports the outcome of a host-only video change.
type VideoChange struct {
	Authorized bool
	Room       Snapshot
}

// SyncPlay marks the room as playing at currentTime, subject to the play/pause window.
func (r *Registry) SyncPlay(roomID, userID string, currentTime float64) (SyncResult, bool) {
	return r.gatedSync(roomID, userID, currentTime, r.limits.PlayPauseWindow, func(rm *room) {
		rm.isPlaying = true
	})
}

// SyncPause marks the room as paused at currentTime, subject to the play/pause window.
func (r *Registry) SyncPause(roomID, userID string, currentTime float64) (SyncResult, bool) {
	return r.gatedSync(roomID, userID, currentTime, r.limits.PlayPauseWindow, func(rm *room) {
		rm.isPlaying = false
	})
}

// SyncTime records a drift-correction heartbeat, subject to the time-sync window.
// It never changes the play state.
func (r *Registry) SyncTime(roomID, userID string, currentTime float64) (SyncResult, bool) {
	return r.gatedSync(roomID, userID, currentTime, r.limits.TimeSyncWindow, nil)
}

// SyncSeek moves the playback position. Seeks are never rate limited.
func (r *Registry) SyncSeek(roomID, userID string, currentTime float64) (SyncResult, bool) {
	return r.gatedSync(roomID, userID, currentTime, 0, nil)
}

func (r *Registry) gatedSync(roomID, userID string, currentTime float64, window time.Duration, apply func(*room)) (SyncResult, bool) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return SyncResult{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return SyncResult{}, false
	}

	now := r.now()
	if window > 0 && !rm.lastSyncTime.IsZero() && now.Sub(rm.lastSyncTime) < window {
		return SyncResult{ShouldSync: false, TriggeredBy: userID, Room: rm.snapshot()}, true
	}

	if apply != nil {
		apply(rm)
	}
	rm.currentTime = currentTime
	rm.lastSyncTime = now
	rm.lastActivity = now

	return SyncResult{ShouldSync: true, TriggeredBy: userID, Room: rm.snapshot()}, true
}

// ChangeVideo switches the room's video. Only the host may do this; any
// other caller gets Authorized=false and the room is left untouched.
func (r *Registry) ChangeVideo(roomID, userID, locator, title string) (VideoChange, error) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return VideoChange{}, ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return VideoChange{}, ErrRoomNotFound
	}

	if rm.host != userID {
		return VideoChange{Authorized: false, Room: rm.snapshot()}, nil
	}

	video, err := NormalizeVideoLocator(locator)
	if err != nil {
		return VideoChange{}, err
	}

	now := r.now()
	rm.currentVideo = video
	rm.currentTitle = strings.TrimSpace(title)
	rm.currentTime = 0
	rm.isPlaying = false
	rm.lastSyncTime = now
	rm.lastActivity = now

	return VideoChange{Authorized: true, Room: rm.snapshot()}, nil
}

// NormalizeVideoLocator trims a video locator and checks it is usable.
// Opaque ids are accepted; anything carrying a scheme must be an absolute
// http(s) URL.
func NormalizeVideoLocator(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", newError(CodeInvalidVideoURL, "video url is required")
	}
	if len(locator) > maxVideoLocatorLength {
		return "", newError(CodeInvalidVideoURL, "video url is too long")
	}

	u, err := url.Parse(locator)
	if err != nil {
		return "", newError(CodeInvalidVideoURL, "video url is malformed")
	}
	if u.Scheme == "" {
		return locator, nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", newError(CodeInvalidVideoURL, "unsupported video url scheme "+u.Scheme)
	}
	if u.Host == "" {
		return "", newError(CodeInvalidVideoURL, "video url has no host")
	}
	return locator, nil
}

func normalizeOptionalVideo(locator string) (string, error) {
	if strings.TrimSpace(locator) == "" {
		return "", nil
	}
	return NormalizeVideoLocator(locator)
}

// ValidatePlaybackTime rejects positions no player can seek to.
func ValidatePlaybackTime(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return newError(CodeSyncError, "current time must be a finite number")
	}
	if t < 0 {
		return newError(CodeSyncError, "current time must not be negative")
	}
	return nil
}
