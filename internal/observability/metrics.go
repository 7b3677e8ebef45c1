package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wiremux",
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wiremux",
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)

	framesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wiremux",
			Subsystem: "engine",
			Name:      "frames_dispatched_total",
			Help:      "Frames dispatched by command.",
		},
		[]string{"node", "command"},
	)
	unknownIDDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wiremux",
			Subsystem: "engine",
			Name:      "unknown_id_drops_total",
			Help:      "Frames dropped because they referenced an unknown entity id.",
		},
		[]string{"node", "command"},
	)
	ackChunksEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wiremux",
			Subsystem: "engine",
			Name:      "ack_chunks_emitted_total",
			Help:      "Ack-chunk frames emitted after a byte-source chunk fully drained.",
		},
		[]string{"node", "kind"},
	)
	chunkLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wiremux",
			Subsystem: "engine",
			Name:      "chunk_drain_latency_seconds",
			Help:      "Time between a chunk being pushed into a byte source and fully draining.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "kind"},
	)
	registrySize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wiremux",
			Subsystem: "engine",
			Name:      "registry_size",
			Help:      "Current number of live entities per registry.",
		},
		[]string{"node", "registry"},
	)
)

// RegisterMetrics registers all collectors with the default Prometheus
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesDispatched, unknownIDDrops, ackChunksEmitted, chunkLatency, registrySize,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordFrameDispatched counts one frame received for cmd; the engine
// records every frame, including ones with an unknown command byte.
func RecordFrameDispatched(node, cmd string) {
	RegisterMetrics()
	framesDispatched.WithLabelValues(node, cmd).Inc()
}

// RecordUnknownID counts one frame that referenced an id with no live
// registry entry, for the command that carried it.
func RecordUnknownID(node, cmd string) {
	RegisterMetrics()
	unknownIDDrops.WithLabelValues(node, cmd).Inc()
}

// RecordAckChunkEmitted counts one ack-chunk frame sent for the given
// entity kind ("request" or "reply").
func RecordAckChunkEmitted(node, kind string) {
	RegisterMetrics()
	ackChunksEmitted.WithLabelValues(node, kind).Inc()
}

// RecordChunkDrainLatency observes how long a pushed chunk took to fully
// drain before its release/ack fired.
func RecordChunkDrainLatency(node, kind string, d time.Duration) {
	RegisterMetrics()
	chunkLatency.WithLabelValues(node, kind).Observe(d.Seconds())
}

// SetRegistrySize publishes the current live count for a named registry
// (e.g. "outbound_clients", "inbound_requests").
func SetRegistrySize(node, registry string, n int) {
	RegisterMetrics()
	registrySize.WithLabelValues(node, registry).Set(float64(n))
}
