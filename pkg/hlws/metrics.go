package hlws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the supervisor currently holds a
	// live transport session (0 or 1; one manager is one session).
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hlws_active_connections",
		Help: "Whether the supervisor currently holds a live transport session (0 or 1)",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts initiated.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlws_reconnect_attempts_total",
		Help: "Total number of reconnection attempts",
	})

	// ReconnectFailuresTotal counts reconnect sequences that gave up
	// because the retry budget was exhausted (the move to Failed).
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlws_reconnect_failures_total",
		Help: "Total number of times reconnection gave up with the retry budget exhausted",
	})

	// MessagesReceivedTotal tracks inbound frames delivered to the
	// application callback.
	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hlws_messages_received_total",
		Help: "Total number of inbound frames delivered to the application callback",
	})

	// MessageLatencySeconds tracks per-frame callback dispatch latency.
	MessageLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hlws_message_latency_seconds",
		Help:    "Latency of dispatching one inbound frame to the application callback",
		Buckets: prometheus.DefBuckets,
	})

	// SubscriptionCount tracks the size of the intended subscription
	// set.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hlws_subscription_count",
		Help: "Number of subscriptions in the intended set",
	})

	// ConnectionDuration tracks the lifetime of each transport session
	// before it ends, observed at teardown.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hlws_connection_duration_seconds",
		Help:    "Duration of a transport session before it ended",
		Buckets: []float64{1, 5, 15, 30, 60, 300, 600, 1800, 3600, 14400},
	})

	// StateTransitionsTotal tracks transitions by destination state.
	StateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlws_state_transitions_total",
			Help: "Total number of connection state transitions, by destination state",
		},
		[]string{"state"},
	)
)
