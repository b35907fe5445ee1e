// Package config provides the layered configuration surface: defaults,
// optional YAML file, then environment variables, loaded through
// internal/infra/confloader. It carries the state machine's
// async_snapshot_creation/snapshot_window_size/committed_result_window_size
// knobs (§6) alongside the ambient API server, cluster, storage, and log
// sections.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: business validation (ports, paths, window sizes)
//   - sanitize.go: log-safe copy with secrets masked
package config
