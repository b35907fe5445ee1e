// Package logger provides structured logging for the replicated state
// machine service, backed by log/slog:
//
//   - logger.go: handler construction, dynamic level control
//   - context.go: context-aware logging with request correlation IDs
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Context propagation for request correlation
package logger
