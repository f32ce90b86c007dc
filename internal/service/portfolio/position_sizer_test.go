package portfolio

import (
	"testing"

	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() RiskConfig {
	return RiskConfig{
		Budget:         decimal.NewFromInt(1000),
		MaxRiskPercent: 2.0,
		MinRiskReward:  0,
	}
}

func planWith(entry, target, stop float64) strategy.TradePlan {
	e := decimal.NewFromFloat(entry)
	tg := decimal.NewFromFloat(target)
	st := decimal.NewFromFloat(stop)
	plan := strategy.TradePlan{
		EntryPrice:  e,
		TargetPrice: tg,
		StopPrice:   st,
	}
	if !st.IsZero() && st.LessThan(e) {
		targetPct := tg.Sub(e).Div(e).Mul(decimal.NewFromInt(100))
		stopPct := e.Sub(st).Div(e).Mul(decimal.NewFromInt(100))
		plan.TargetPercent = targetPct
		plan.StopPercent = stopPct
		plan.RiskRewardRatio = targetPct.Div(stopPct)
	}
	return plan
}

func TestNewSimpleSizer_Validation(t *testing.T) {
	_, err := NewSimpleSizer(RiskConfig{Budget: decimal.Zero, MaxRiskPercent: 2}, 3)
	assert.Error(t, err)

	_, err = NewSimpleSizer(RiskConfig{Budget: decimal.NewFromInt(1000), MaxRiskPercent: 0}, 3)
	assert.Error(t, err)

	_, err = NewSimpleSizer(RiskConfig{Budget: decimal.NewFromInt(1000), MaxRiskPercent: 150}, 3)
	assert.Error(t, err)

	_, err = NewSimpleSizer(testConfig(), 0)
	assert.Error(t, err)

	_, err = NewSimpleSizer(testConfig(), 3)
	assert.NoError(t, err)
}

func TestSize_FullSizeAtMaxScore(t *testing.T) {
	sizer, err := NewSimpleSizer(testConfig(), 3)
	require.NoError(t, err)

	// risk per unit 2, max loss 20 -> 10 units, exactly the budget
	sizing, err := sizer.Size(strategy.Assessment{Score: strategy.MaxScore}, planWith(100, 105, 98))
	require.NoError(t, err)
	require.True(t, sizing.Validated, sizing.Reason)
	assert.True(t, sizing.Quantity.Equal(decimal.NewFromInt(10)), "got %s", sizing.Quantity)
	assert.True(t, sizing.QuoteCost.Equal(decimal.NewFromInt(1000)), "got %s", sizing.QuoteCost)
	assert.True(t, sizing.MaxLoss.Equal(decimal.NewFromInt(20)), "got %s", sizing.MaxLoss)
}

func TestSize_HalfSizeAtThresholdScore(t *testing.T) {
	sizer, err := NewSimpleSizer(testConfig(), 3)
	require.NoError(t, err)

	sizing, err := sizer.Size(strategy.Assessment{Score: 3}, planWith(100, 105, 98))
	require.NoError(t, err)
	require.True(t, sizing.Validated, sizing.Reason)
	assert.True(t, sizing.Quantity.Equal(decimal.NewFromInt(5)), "got %s", sizing.Quantity)
	assert.True(t, sizing.QuoteCost.Equal(decimal.NewFromInt(500)), "got %s", sizing.QuoteCost)
	assert.True(t, sizing.MaxLoss.Equal(decimal.NewFromInt(10)), "got %s", sizing.MaxLoss)
}

func TestSize_BudgetCapsTightStops(t *testing.T) {
	sizer, err := NewSimpleSizer(testConfig(), 3)
	require.NoError(t, err)

	// risk per unit 0.1 would allow 200 units; the budget only buys 10
	sizing, err := sizer.Size(strategy.Assessment{Score: strategy.MaxScore}, planWith(100, 102, 99.9))
	require.NoError(t, err)
	require.True(t, sizing.Validated, sizing.Reason)
	assert.True(t, sizing.Quantity.Equal(decimal.NewFromInt(10)), "got %s", sizing.Quantity)
	assert.True(t, sizing.QuoteCost.Equal(decimal.NewFromInt(1000)), "got %s", sizing.QuoteCost)
	assert.True(t, sizing.MaxLoss.Equal(decimal.NewFromInt(1)), "got %s", sizing.MaxLoss)
}

func TestSize_RejectsLowRiskReward(t *testing.T) {
	cfg := testConfig()
	cfg.MinRiskReward = 1.5
	sizer, err := NewSimpleSizer(cfg, 3)
	require.NoError(t, err)

	// target 2% vs stop 2% -> risk/reward 1.0
	sizing, err := sizer.Size(strategy.Assessment{Score: 5}, planWith(100, 102, 98))
	require.NoError(t, err)
	assert.False(t, sizing.Validated)
	assert.Contains(t, sizing.Reason, "risk/reward")
	assert.True(t, sizing.Quantity.IsZero())
}

func TestSize_RejectsStopAboveEntry(t *testing.T) {
	sizer, err := NewSimpleSizer(testConfig(), 3)
	require.NoError(t, err)

	sizing, err := sizer.Size(strategy.Assessment{Score: 5}, planWith(100, 105, 101))
	require.NoError(t, err)
	assert.False(t, sizing.Validated)

	sizing, err = sizer.Size(strategy.Assessment{Score: 5}, planWith(100, 105, 0))
	require.NoError(t, err)
	assert.False(t, sizing.Validated)
}

func TestScoreMultiplier_Bounds(t *testing.T) {
	sizer, err := NewSimpleSizer(testConfig(), 3)
	require.NoError(t, err)

	half := decimal.NewFromFloat(0.5)
	one := decimal.NewFromInt(1)

	assert.True(t, sizer.scoreMultiplier(3).Equal(half))
	assert.True(t, sizer.scoreMultiplier(strategy.MaxScore).Equal(one))
	assert.True(t, sizer.scoreMultiplier(strategy.MaxScore+5).Equal(one))
	assert.True(t, sizer.scoreMultiplier(0).Equal(half))

	mid := sizer.scoreMultiplier(5)
	assert.True(t, mid.GreaterThan(half) && mid.LessThan(one), "got %s", mid)
}
