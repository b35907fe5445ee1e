// Package kvstore implements the in-memory multi-valued key-value
// container that backs the replicated state machine: a mapping from
// string key to an ordered sequence of signed 32-bit integers.
//
// Store is not safe for concurrent use by multiple goroutines; callers
// (the state machine's commit path) are responsible for serializing
// writes. Clone produces an independent deep copy suitable for snapshot
// capture under the caller's own lock.
package kvstore
