// Package mapreduce implements the fixed map/reduce aggregation engine
// that runs read-only queries against a kvstore.Store snapshot.
//
// The map and reduce catalogs are closed: adding an operation is a code
// change to catalog.go, not a runtime registration. This is deliberate —
// the set of operations a committed log entry can reference must be
// identical across every replica.
package mapreduce
