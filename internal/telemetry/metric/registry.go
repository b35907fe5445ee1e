package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mrstate"

// Registry holds every metric the state machine and its surrounding
// services emit, wired into a single Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	Commits              prometheus.Counter
	CommitErrors         prometheus.Counter
	SnapshotsCreated     prometheus.Counter
	SnapshotsEvicted     prometheus.Counter
	MapReduceInvocations prometheus.Counter
	MapReduceDuration    prometheus.Histogram
	CodecDecodeFailures  prometheus.Counter

	ArchiveWrites prometheus.Counter
	ArchiveErrors prometheus.Counter
	ArchiveBytes  prometheus.Gauge
}

// NewRegistry constructs a Registry backed by a fresh Prometheus
// registry (including the standard Go runtime and process collectors)
// and registers every metric with it.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,

		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "statemachine",
			Name:      "commits_total",
			Help:      "Total number of log entries committed to the state machine.",
		}),
		CommitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "statemachine",
			Name:      "commit_errors_total",
			Help:      "Total number of commits that failed (including failed map-reduce ops).",
		}),
		SnapshotsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "created_total",
			Help:      "Total number of snapshot contexts created.",
		}),
		SnapshotsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "evicted_total",
			Help:      "Total number of snapshot contexts evicted from the retention window.",
		}),
		MapReduceInvocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapreduce",
			Name:      "invocations_total",
			Help:      "Total number of map-reduce aggregations performed.",
		}),
		MapReduceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mapreduce",
			Name:      "duration_seconds",
			Help:      "Map-reduce aggregation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		CodecDecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "decode_failures_total",
			Help:      "Total number of log codec decode failures.",
		}),
		ArchiveWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshotarchive",
			Name:      "writes_total",
			Help:      "Total number of snapshot payloads written to the diagnostic archive.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshotarchive",
			Name:      "errors_total",
			Help:      "Total number of snapshot archive write/read failures.",
		}),
		ArchiveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshotarchive",
			Name:      "size_bytes",
			Help:      "On-disk size of the snapshot archive, in bytes.",
		}),
	}

	reg.MustRegister(
		r.Commits,
		r.CommitErrors,
		r.SnapshotsCreated,
		r.SnapshotsEvicted,
		r.MapReduceInvocations,
		r.MapReduceDuration,
		r.CodecDecodeFailures,
		r.ArchiveWrites,
		r.ArchiveErrors,
		r.ArchiveBytes,
	)

	return r
}

// Handler returns an HTTP handler serving /metrics in Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
