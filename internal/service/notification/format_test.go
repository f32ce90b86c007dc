package notification

import (
	"context"
	"testing"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/internal/service/indicator"
	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAssessment() strategy.Assessment {
	return strategy.Assessment{
		Pair:         exchange.TradingPair{Base: "BTC", Quote: "USDT"},
		Score:        5,
		CurrentPrice: decimal.NewFromInt(95000),
		EntrySignal:  true,
		Triggered: []strategy.TriggeredSignal{
			{Kind: strategy.SignalDrop, Points: 3, Detail: "drawdown_7d drop 6.20%"},
			{Kind: strategy.SignalRSIOversold, Points: 2, Detail: "RSI 27.4"},
		},
		Snapshot: indicator.Snapshot{
			MA:                decimal.NewFromInt(98000),
			MADistancePercent: decimal.NewFromFloat(-3.06),
			RSI:               decimal.NewFromFloat(27.4),
			Supports:          []decimal.Decimal{decimal.NewFromInt(93000), decimal.NewFromInt(91000)},
			Resistances:       []decimal.Decimal{decimal.NewFromInt(99500)},
		},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func samplePlan() *strategy.TradePlan {
	return &strategy.TradePlan{
		EntryPrice:      decimal.NewFromInt(95000),
		TargetPrice:     decimal.NewFromInt(97850),
		TargetPercent:   decimal.NewFromFloat(3.0),
		StopPrice:       decimal.NewFromInt(93000),
		StopPercent:     decimal.NewFromFloat(2.1),
		RiskRewardRatio: decimal.NewFromFloat(1.43),
	}
}

func TestFormatTradeSignal(t *testing.T) {
	msg := FormatTradeSignal(sampleAssessment(), samplePlan(), 7)

	assert.Contains(t, msg, "BTCUSDT ENTRY SIGNAL")
	assert.Contains(t, msg, "MA7: 98000.00")
	assert.Contains(t, msg, "RSI: 27.4")
	assert.Contains(t, msg, "Score: 5")
	assert.Contains(t, msg, "drawdown_7d drop 6.20% (+3)")
	assert.Contains(t, msg, "TARGET: 97850.00 (+3.00%)")
	assert.Contains(t, msg, "STOP: 93000.00 (-2.10%)")
	assert.Contains(t, msg, "Risk/Reward: 1:1.43")
	assert.Contains(t, msg, "Supports: 93000, 91000")
	assert.Contains(t, msg, "Resistances: 99500")
}

func TestFormatTradeSignal_WithSizing(t *testing.T) {
	plan := samplePlan()
	plan.Quantity = decimal.NewFromFloat(0.05)
	plan.QuoteCost = decimal.NewFromInt(4750)

	msg := FormatTradeSignal(sampleAssessment(), plan, 7)
	assert.Contains(t, msg, "SIZE: 0.05 (≈4750.00 USDT)")
}

func TestFormatTradeSignal_NoPlan(t *testing.T) {
	msg := FormatTradeSignal(sampleAssessment(), nil, 7)
	assert.Contains(t, msg, "no entry")
	assert.NotContains(t, msg, "TRADE SUGGESTION")
}

type captureSender struct {
	texts []string
}

func (c *captureSender) SendText(ctx context.Context, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func TestTradeNotifier(t *testing.T) {
	sender := &captureSender{}
	notifier := NewTradeNotifier(sender, 7)

	err := notifier.Notify(context.Background(), sampleAssessment(), samplePlan())
	require.NoError(t, err)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "ENTRY SIGNAL")
}
