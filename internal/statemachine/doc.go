// Package statemachine implements the deterministic consumer of
// committed log entries: it owns the key-value store, the
// committed-result index, and the bounded snapshot window, and exposes
// the commit and snapshot lifecycle hooks a Raft collaborator drives.
//
// StateMachine itself has no dependency on any particular consensus
// library. internal/raftfsm adapts hashicorp/raft's narrower raft.FSM
// interface to the hook set defined here.
package statemachine
