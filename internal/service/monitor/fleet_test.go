package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleet_FailingSymbolDoesNotStallOthers(t *testing.T) {
	failing := &stubMarket{err: exchange.ErrProviderUnavailable}
	healthy := &stubMarket{
		klines: dailySeries(100000, 100000, 100000, 100000, 100000, 100000, 88000),
		price:  decimal.NewFromInt(88000),
		stats:  exchange.Ticker24h{PriceChangePercent: decimal.NewFromFloat(-12)},
	}

	notifierA := &captureNotifier{}
	notifierB := &captureNotifier{}

	monitorA := NewSymbolMonitor(exchange.TradingPair{Base: "ETH", Quote: "USDT"},
		failing, newTestAnalyzer(), newTestPlanner(), 90, WithNotifier(notifierA))
	monitorB := NewSymbolMonitor(exchange.TradingPair{Base: "BTC", Quote: "USDT"},
		healthy, newTestAnalyzer(), newTestPlanner(), 90, WithNotifier(notifierB))

	fleet := NewFleet(20*time.Millisecond, monitorA, monitorB)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, fleet.Run(ctx))
	}()

	time.Sleep(110 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fleet did not stop after cancellation")
	}

	assert.GreaterOrEqual(t, failing.cycleCount(), 3, "failing symbol keeps being retried on schedule")
	assert.GreaterOrEqual(t, monitorA.State().ConsecutiveFailures, 3)
	assert.Zero(t, notifierA.count())

	require.GreaterOrEqual(t, notifierB.count(), 3, "healthy symbol keeps its cadence")
	assert.Zero(t, monitorB.State().ConsecutiveFailures)
	for _, plan := range notifierB.plans {
		require.NotNil(t, plan)
	}
}

func TestFleet_RunsImmediatelyOnStart(t *testing.T) {
	market := &stubMarket{
		klines: dailySeries(100, 101, 100, 102, 101, 103, 102),
		price:  decimal.NewFromInt(103),
	}
	m := NewSymbolMonitor(testPair, market, newTestAnalyzer(), newTestPlanner(), 90)

	fleet := NewFleet(time.Hour, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = fleet.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return market.cycleCount() == 1
	}, time.Second, 5*time.Millisecond, "first cycle must not wait for the interval")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fleet did not stop after cancellation")
	}
}

func TestFleet_Name(t *testing.T) {
	assert.NotEmpty(t, NewFleet(time.Minute).Name())
}
