package strategy

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Planner turns an entry assessment into a bounded target/stop plan. Raw
// resistance levels are often too far away to be realistic short-term targets,
// so the target takes a fraction of the distance and caps the result.
type Planner struct {
	resistanceFactor     decimal.Decimal
	maxTakeProfitPercent decimal.Decimal
	minTakeProfitPercent decimal.Decimal
	stopLossPercent      decimal.Decimal
}

func NewPlanner(resistanceFactor, maxTakeProfitPercent, minTakeProfitPercent, stopLossPercent float64) *Planner {
	return &Planner{
		resistanceFactor:     decimal.NewFromFloat(resistanceFactor),
		maxTakeProfitPercent: decimal.NewFromFloat(maxTakeProfitPercent),
		minTakeProfitPercent: decimal.NewFromFloat(minTakeProfitPercent),
		stopLossPercent:      decimal.NewFromFloat(stopLossPercent),
	}
}

// BuildPlan computes the target and stop for a triggered assessment.
// TargetPercent never exceeds the cap; the configured minimum is only the
// fallback when no resistance exists above the price, it does not override
// the cap. StopPrice is always below the entry price.
func (p *Planner) BuildPlan(assessment Assessment) TradePlan {
	price := assessment.CurrentPrice

	targetPercent := p.minTakeProfitPercent
	if len(assessment.Snapshot.Resistances) > 0 {
		nearest := assessment.Snapshot.Resistances[0]
		rawPercent := nearest.Sub(price).Div(price).Mul(hundred).Mul(p.resistanceFactor)
		targetPercent = decimal.Min(rawPercent, p.maxTakeProfitPercent)
	}
	targetPrice := price.Mul(decimal.NewFromInt(1).Add(targetPercent.Div(hundred)))

	stopPrice, stopPercent := p.stop(assessment, price)

	plan := TradePlan{
		EntryPrice:    price,
		TargetPrice:   targetPrice,
		TargetPercent: targetPercent,
		StopPrice:     stopPrice,
		StopPercent:   stopPercent,
	}
	if !stopPercent.IsZero() {
		plan.RiskRewardRatio = targetPercent.Div(stopPercent)
	}
	return plan
}

// stop prefers the nearest support below price, but only when it is close
// enough to act as a stop (within twice the fixed stop distance); otherwise
// the fixed-percent stop applies.
func (p *Planner) stop(assessment Assessment, price decimal.Decimal) (stopPrice, stopPercent decimal.Decimal) {
	if len(assessment.Snapshot.Supports) > 0 {
		support := assessment.Snapshot.Supports[0]
		percent := price.Sub(support).Div(price).Mul(hundred)
		if percent.LessThanOrEqual(p.stopLossPercent.Mul(decimal.NewFromInt(2))) {
			return support, percent
		}
	}
	stopPercent = p.stopLossPercent
	stopPrice = price.Mul(decimal.NewFromInt(1).Sub(stopPercent.Div(hundred)))
	return stopPrice, stopPercent
}
