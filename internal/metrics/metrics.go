package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watchparty_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Connection metrics
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_connected_clients",
			Help: "Currently connected websocket clients",
		},
	)

	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_inbound_events_total",
			Help: "Inbound client events by type",
		},
		[]string{"event"},
	)

	InboundThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_inbound_throttled_total",
			Help: "Inbound events rejected by the per-connection throttle",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_events_dropped_total",
			Help: "Outbound events dropped because a client was too slow",
		},
	)

	// Party metrics
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_active_rooms",
			Help: "Live watch party rooms",
		},
	)

	ActiveParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_active_participants",
			Help: "Participants across all rooms",
		},
	)

	SyncBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_sync_broadcasts_total",
			Help: "Playback sync events broadcast to rooms",
		},
		[]string{"kind"},
	)

	SyncSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_sync_suppressed_total",
			Help: "Playback sync events collapsed by the rate window",
		},
		[]string{"kind"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_messages_sent_total",
			Help: "Chat messages relayed",
		},
	)

	HostChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_host_changes_total",
			Help: "Host successions after a host left",
		},
	)

	RoomsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_rooms_swept_total",
			Help: "Empty rooms reclaimed by the sweeper",
		},
	)
)

// ObserveRooms publishes current room and participant totals.
func ObserveRooms(rooms, participants int) {
	ActiveRooms.Set(float64(rooms))
	ActiveParticipants.Set(float64(participants))
}
