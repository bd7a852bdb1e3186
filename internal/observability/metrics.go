package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PushEventsTotal counts push events fanned out by the bus, by type.
	PushEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsync_push_events_total",
		Help: "Total number of push events dispatched by event type",
	}, []string{"event_type"})

	// BusHandlerPanics counts subscriber panics swallowed during dispatch.
	BusHandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedsync_bus_handler_panics_total",
		Help: "Total number of recovered panics in bus subscribers",
	})

	// SignalEmitsTotal counts local invalidation signals by topic.
	SignalEmitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsync_signal_emits_total",
		Help: "Total number of local invalidation signals emitted by topic",
	}, []string{"topic"})

	// BackendRequestLatency records authoritative API call latency by operation.
	BackendRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedsync_backend_request_latency_seconds",
		Help:    "Authoritative API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// BackendRequestErrors counts failed authoritative API calls by operation.
	BackendRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedsync_backend_request_errors_total",
		Help: "Total number of failed authoritative API requests",
	}, []string{"operation"})

	// UnreadCount is the gauge mirroring the local global unread tally.
	UnreadCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedsync_unread_count",
		Help: "Current local global notification unread count",
	})

	// PresenceSetSize is the gauge of currently-online peers.
	PresenceSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedsync_presence_set_size",
		Help: "Number of peers currently considered online",
	})
)

// TrackBackendRequest returns a function that records request latency when
// called (e.g. defer).
func TrackBackendRequest(operation string) func() {
	start := time.Now()
	return func() {
		BackendRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
