package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/vovakirdan/watchparty-server/internal/config"
	"github.com/vovakirdan/watchparty-server/internal/core"
	"github.com/vovakirdan/watchparty-server/internal/party"
	transporthttp "github.com/vovakirdan/watchparty-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	supervisor *suture.Supervisor
	server     *stdhttp.Server
	registry   *party.Registry
	hub        *core.Hub
	log        *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry, err := party.NewRegistry(cfg.Party.Limits())
	if err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	hubLog := logger.With().Str("component", "hub").Logger()
	hub := core.NewHub(registry, &hubLog)

	sweepLog := logger.With().Str("component", "sweeper").Logger()
	sweeper := party.NewSweeper(registry, cfg.Party.SweepInterval, &sweepLog)

	server := transporthttp.NewServer(hub, cfg, logger)

	sup := suture.New("watchparty", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn().Str("event", e.String()).Msg("supervisor event")
		},
		FailureThreshold: 5,
		FailureBackoff:   time.Second,
		Timeout:          cfg.ShutdownTimeout,
	})
	sup.Add(hub)
	sup.Add(sweeper)
	sup.Add(newHTTPService(server, cfg.ShutdownTimeout, logger))

	return &App{
		supervisor: sup,
		server:     server,
		registry:   registry,
		hub:        hub,
		log:        logger,
	}, nil
}

// Run serves until the context is cancelled or the supervisor gives up.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().Str("addr", a.server.Addr).Msg("starting watchparty server")

	err := a.supervisor.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	stats := a.registry.Stats()
	a.log.Info().Int("rooms", stats.Rooms).Int("participants", stats.Participants).Msg("server stopped")
	return nil
}
