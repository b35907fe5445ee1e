// Package apiserver provides the client-facing HTTP API described in §6:
// clients submit an OperationPayload and receive the (log_index,
// has_mr_results) result buffer, then fetch the map-reduce result map
// with a second call when has_mr_results is set.
//
//   - server.go: net/http.Server wrapper
//   - router.go: route table and middleware chain
//   - middleware.go: request ID stamping, per-client rate limiting, recover
//   - handler.go: /v1/ops submit + result fetch handlers
//   - types.go: JSON request/response envelopes
package apiserver
