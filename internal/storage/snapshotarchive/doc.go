// Package snapshotarchive persists additional, non-authoritative copies
// of committed state-machine snapshot payloads for operator diagnostics
// (manual inspection, disaster-recovery comparison). It never
// participates in ApplySnapshot/ReadSnapshotObject correctness: the
// in-memory snapshot window in internal/statemachine remains the sole
// source of truth for the Raft collaborator.
//
// Archived payloads are optionally encrypted at rest with
// pkg/crypto/adaptive when an encryption key is configured.
package snapshotarchive
