package monitor

import (
	"context"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/strategy"
)

// Notifier delivers one cycle's outcome. plan is nil unless the cycle
// produced an entry signal.
type Notifier interface {
	Notify(ctx context.Context, assessment strategy.Assessment, plan *strategy.TradePlan) error
}

// Commentator produces an optional free-form comment on an entry signal.
type Commentator interface {
	Comment(ctx context.Context, assessment strategy.Assessment, plan strategy.TradePlan) (string, error)
}

// State is the per-symbol bookkeeping. It is owned by that symbol's
// monitoring goroutine and never shared across symbols.
type State struct {
	LastSuccess         time.Time
	LastErr             error
	ConsecutiveFailures int
}
