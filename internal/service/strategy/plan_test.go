package strategy

import (
	"testing"

	"github.com/dipwatch/dip-agent/internal/service/indicator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestPlanner() *Planner {
	return NewPlanner(0.6, 5.0, 2.0, 3.0)
}

func assessmentWith(price float64, supports, resistances []float64) Assessment {
	toDecimals := func(values []float64) []decimal.Decimal {
		res := make([]decimal.Decimal, len(values))
		for i, v := range values {
			res[i] = decimal.NewFromFloat(v)
		}
		return res
	}
	return Assessment{
		CurrentPrice: decimal.NewFromFloat(price),
		EntrySignal:  true,
		Snapshot: indicator.Snapshot{
			Supports:    toDecimals(supports),
			Resistances: toDecimals(resistances),
		},
	}
}

func TestBuildPlan_PartialResistanceTarget(t *testing.T) {
	// (108000-100000)/100000 * 100 * 0.6 = 4.8, under the 5.0 cap
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, nil, []float64{108000}))

	assert.True(t, plan.TargetPercent.Equal(decimal.NewFromFloat(4.8)), "target%% = %s", plan.TargetPercent)
	assert.True(t, plan.TargetPrice.Equal(decimal.NewFromInt(104800)), "target = %s", plan.TargetPrice)
}

func TestBuildPlan_TargetCapped(t *testing.T) {
	// raw 12% * 0.6 = 7.2, capped at 5.0
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, nil, []float64{120000}))

	assert.True(t, plan.TargetPercent.Equal(decimal.NewFromFloat(5.0)), "target%% = %s", plan.TargetPercent)
	assert.True(t, plan.TargetPrice.Equal(decimal.NewFromInt(105000)), "target = %s", plan.TargetPrice)
}

func TestBuildPlan_NoResistanceFallsBackToMinimum(t *testing.T) {
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, nil, nil))

	assert.True(t, plan.TargetPercent.Equal(decimal.NewFromFloat(2.0)))
	assert.True(t, plan.TargetPrice.Equal(decimal.NewFromInt(102000)), "target = %s", plan.TargetPrice)
}

func TestBuildPlan_CapHoldsForAnyResistance(t *testing.T) {
	cap := decimal.NewFromFloat(5.0)
	for _, resistance := range []float64{100000, 100001, 104000, 110000, 250000, 99000} {
		plan := newTestPlanner().BuildPlan(assessmentWith(100000, nil, []float64{resistance}))
		assert.True(t, plan.TargetPercent.LessThanOrEqual(cap),
			"resistance %v produced target%% %s", resistance, plan.TargetPercent)
	}
}

func TestBuildPlan_StopAtNearSupport(t *testing.T) {
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, []float64{98000}, nil))

	assert.True(t, plan.StopPrice.Equal(decimal.NewFromInt(98000)))
	assert.True(t, plan.StopPercent.Equal(decimal.NewFromInt(2)), "stop%% = %s", plan.StopPercent)
	assert.True(t, plan.StopPrice.LessThan(plan.EntryPrice))
}

func TestBuildPlan_FarSupportUsesFixedStop(t *testing.T) {
	// support 10% away exceeds twice the 3% stop distance
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, []float64{90000}, nil))

	assert.True(t, plan.StopPercent.Equal(decimal.NewFromInt(3)))
	assert.True(t, plan.StopPrice.Equal(decimal.NewFromInt(97000)), "stop = %s", plan.StopPrice)
	assert.True(t, plan.StopPrice.LessThan(plan.EntryPrice))
}

func TestBuildPlan_RiskReward(t *testing.T) {
	// target 4.8%, stop 2% -> 2.4
	plan := newTestPlanner().BuildPlan(assessmentWith(100000, []float64{98000}, []float64{108000}))

	assert.True(t, plan.RiskRewardRatio.Equal(decimal.NewFromFloat(2.4)), "rr = %s", plan.RiskRewardRatio)
}

func TestBuildPlan_StopAlwaysBelowEntry(t *testing.T) {
	cases := []Assessment{
		assessmentWith(100000, nil, nil),
		assessmentWith(100000, []float64{99999}, nil),
		assessmentWith(100000, []float64{94100}, nil),
		assessmentWith(50, []float64{49}, []float64{51}),
	}
	for i, assessment := range cases {
		plan := newTestPlanner().BuildPlan(assessment)
		assert.True(t, plan.StopPrice.LessThan(plan.EntryPrice), "case %d: stop %s entry %s", i, plan.StopPrice, plan.EntryPrice)
	}
}
