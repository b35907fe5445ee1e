// Package metric provides Prometheus metrics for the replicated state
// machine service: commit throughput, snapshot lifecycle events,
// map-reduce invocation counts and latency, and codec failures.
//
// Metrics are exposed at /metrics in Prometheus exposition format via
// Registry.Handler.
package metric
