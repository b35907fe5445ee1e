// Package domain defines the core domain models for the replicated
// key-value / map-reduce state machine.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - OperationPayload: the tagged record carried by every Raft log entry
//   - MapReduceResult: the output of a map-reduce aggregation
//   - Errors: domain-specific error definitions
package domain
