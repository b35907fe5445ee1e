// Package shutdown provides graceful shutdown for mrstate.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - A shutdown deadline passed to every hook as a context
//   - Cleanup callback registration, run in reverse order
//   - Shutdown coordination
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	err := h.Wait() // Blocks until SIGINT/SIGTERM, then runs the hooks
//
// @design DS-0501
package shutdown
