package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dipwatch/dip-agent/internal/schedule"
)

var _ schedule.Task = (*Fleet)(nil)

// Fleet runs one SymbolMonitor per configured pair on a fixed wall-clock
// interval. Cycles of different pairs are fully independent: a provider
// failure for one pair never delays or skips another pair's cycle.
type Fleet struct {
	monitors []*SymbolMonitor
	interval time.Duration
}

func NewFleet(interval time.Duration, monitors ...*SymbolMonitor) *Fleet {
	return &Fleet{
		monitors: monitors,
		interval: interval,
	}
}

func (f *Fleet) Name() string {
	return "dip monitor fleet"
}

// Run blocks until ctx is cancelled. Cancellation lets every in-flight cycle
// finish before returning, so log records are never cut off mid-write.
func (f *Fleet) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, m := range f.monitors {
		wg.Add(1)
		go func(m *SymbolMonitor) {
			defer wg.Done()
			f.loop(ctx, m)
		}(m)
	}
	wg.Wait()
	return nil
}

func (f *Fleet) loop(ctx context.Context, m *SymbolMonitor) {
	slog.Info("monitor loop started", "symbol", m.Pair().ToString(), "interval", f.interval)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.runOnce(ctx, m)
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor loop stopped", "symbol", m.Pair().ToString())
			return
		case <-ticker.C:
			f.runOnce(ctx, m)
		}
	}
}

func (f *Fleet) runOnce(ctx context.Context, m *SymbolMonitor) {
	// The stop signal is only observed between cycles. The cycle itself runs
	// on a detached context bounded by the poll interval, so a raised stop
	// waits for it instead of aborting it mid-computation.
	cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.interval)
	defer cancel()

	if err := m.RunCycle(cycleCtx); err != nil {
		slog.Error("cycle failed",
			"symbol", m.Pair().ToString(),
			"error", err,
			"consecutive_failures", m.State().ConsecutiveFailures)
	}
}
