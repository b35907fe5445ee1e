package apiserver

import (
	"net/http"
	"time"

	"github.com/duskraft/mrstate-go/internal/raftnode"
	"github.com/duskraft/mrstate-go/internal/statemachine"
	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Node   *raftnode.Node
	SM     *statemachine.StateMachine
	Logger logger.Logger

	ApplyTimeout    time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
}

// NewRouter builds the route table with the middleware chain:
// Recover -> RequestID -> RateLimit -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := New(cfg.Node, cfg.SM, cfg.Logger, cfg.ApplyTimeout)

	return Chain(h,
		Recover(cfg.Logger),
		RequestID(),
		RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst, cfg.Logger),
	)
}
