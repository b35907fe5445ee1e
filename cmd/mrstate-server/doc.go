// Package main provides the entry point for mrstate-server.
//
// mrstate-server replicates a key-value/map-reduce state machine over a
// hashicorp/raft cluster:
//
//   - A client-facing HTTP API to submit operations and fetch map-reduce
//     results (internal/server/apiserver)
//   - The Raft collaborator wiring the state machine into the cluster
//     (internal/raftnode, internal/raftfsm)
//   - An optional diagnostic snapshot archive (internal/storage/snapshotarchive)
//
// Usage:
//
//	mrstate-server [flags]
//	mrstate-server --config /path/to/config.yaml
package main
