package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for relayed signals.
const (
	DropUnknownConnection = "unknown_connection"
	DropRoomMismatch      = "room_mismatch"
)

var (
	// Signaling metrics
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_commands_total",
			Help: "Inbound signaling commands processed",
		},
		[]string{"command"},
	)

	SignalsRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_signals_relayed_total",
			Help: "WebRTC signals forwarded between peers",
		},
		[]string{"direction"}, // "sending" or "returning"
	)

	SignalsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_signals_dropped_total",
			Help: "WebRTC signals dropped by the same-room check",
		},
		[]string{"reason"},
	)

	CommandsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_commands_rejected_total",
			Help: "Commands answered with an error event",
		},
		[]string{"command"},
	)

	HostChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_host_changes_total",
			Help: "Host promotions after the host left",
		},
	)

	CallsEnded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_calls_ended_total",
			Help: "Calls ended by their host",
		},
	)

	// Room/connection gauges
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_active_rooms",
			Help: "Rooms currently held in memory",
		},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_active_connections",
			Help: "Registered signaling connections",
		},
	)

	// Reaper metrics
	Reaped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_reaped_total",
			Help: "Records evicted by the periodic sweep",
		},
		[]string{"kind"}, // "room" or "connection"
	)

	// Transport metrics
	Backpressure = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_backpressure_total",
			Help: "Outbound frames that hit a full send buffer",
		},
		[]string{"action"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_rate_limit_hits_total",
			Help: "Inbound frames dropped by the per-connection limiter",
		},
	)

	MalformedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_malformed_frames_total",
			Help: "Inbound frames that failed to decode",
		},
	)
)
