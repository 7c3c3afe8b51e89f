package party

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/watchparty-server/internal/metrics"
)

// DefaultSweepInterval is how often the sweeper scans when none is configured.
const DefaultSweepInterval = time.Minute

// Sweeper periodically reclaims empty rooms that outlived the grace period.
// Rooms are normally deleted the moment their last participant leaves, so
// the sweeper rarely finds anything to do.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	log      *zerolog.Logger
}

// NewSweeper creates a sweeper over registry.
func NewSweeper(registry *Registry, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Sweeper{registry: registry, interval: interval, log: logger}
}

// Serve runs until ctx is cancelled.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single scan and returns the ids it removed.
func (s *Sweeper) SweepOnce() []string {
	removed := s.registry.Sweep()
	if len(removed) > 0 {
		metrics.RoomsSwept.Add(float64(len(removed)))
		s.log.Info().Strs("room_ids", removed).Msg("swept empty watch parties")
	}

	stats := s.registry.Stats()
	metrics.ObserveRooms(stats.Rooms, stats.Participants)
	return removed
}

func (s *Sweeper) String() string {
	return "party-sweeper"
}
