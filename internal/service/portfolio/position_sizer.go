package portfolio

import (
	"fmt"

	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/shopspring/decimal"
)

var _ Sizer = (*SimpleSizer)(nil)

var hundred = decimal.NewFromInt(100)

// SimpleSizer 简单的仓位管理器实现
// 数量由止损距离反推：预算内允许亏损的金额除以每单位亏损，
// 再按评分在半仓与满仓之间线性调整。
type SimpleSizer struct {
	cfg            RiskConfig
	entryThreshold int
}

func NewSimpleSizer(cfg RiskConfig, entryThreshold int) (*SimpleSizer, error) {
	if !cfg.Budget.IsPositive() {
		return nil, fmt.Errorf("budget must be positive, got %s", cfg.Budget)
	}
	if cfg.MaxRiskPercent <= 0 || cfg.MaxRiskPercent > 100 {
		return nil, fmt.Errorf("max risk percent must be within (0, 100], got %f", cfg.MaxRiskPercent)
	}
	if cfg.MinRiskReward < 0 {
		return nil, fmt.Errorf("min risk reward must not be negative, got %f", cfg.MinRiskReward)
	}
	if entryThreshold <= 0 {
		return nil, fmt.Errorf("entry threshold must be positive, got %d", entryThreshold)
	}
	return &SimpleSizer{
		cfg:            cfg,
		entryThreshold: entryThreshold,
	}, nil
}

// Size 处理入场计划，进行风控检查并计算买入数量
func (s *SimpleSizer) Size(assessment strategy.Assessment, plan strategy.TradePlan) (Sizing, error) {
	result := Sizing{}

	// 止损价必须低于入场价，否则无法衡量风险
	if plan.StopPrice.IsZero() || plan.StopPrice.GreaterThanOrEqual(plan.EntryPrice) {
		result.Reason = fmt.Sprintf("stop %s does not sit below entry %s", plan.StopPrice, plan.EntryPrice)
		return result, nil
	}

	if s.cfg.MinRiskReward > 0 && plan.RiskRewardRatio.LessThan(decimal.NewFromFloat(s.cfg.MinRiskReward)) {
		result.Reason = fmt.Sprintf("risk/reward %.2f below minimum %.2f",
			plan.RiskRewardRatio.InexactFloat64(), s.cfg.MinRiskReward)
		return result, nil
	}

	riskPerUnit := plan.EntryPrice.Sub(plan.StopPrice)
	maxLoss := s.cfg.Budget.Mul(decimal.NewFromFloat(s.cfg.MaxRiskPercent)).Div(hundred)

	quantity := maxLoss.Div(riskPerUnit).Mul(s.scoreMultiplier(assessment.Score))
	cost := quantity.Mul(plan.EntryPrice)

	// 预算封顶
	if cost.GreaterThan(s.cfg.Budget) {
		quantity = s.cfg.Budget.Div(plan.EntryPrice)
		cost = s.cfg.Budget
	}

	quantity = quantity.Round(8)

	result.Quantity = quantity
	result.QuoteCost = cost.Round(8)
	result.MaxLoss = quantity.Mul(riskPerUnit).Round(8)
	result.Validated = true
	result.Reason = fmt.Sprintf("risking %s at score %d", result.MaxLoss, assessment.Score)
	return result, nil
}

// scoreMultiplier 评分等于入场阈值时半仓，评分到达满分时满仓
func (s *SimpleSizer) scoreMultiplier(score int) decimal.Decimal {
	span := strategy.MaxScore - s.entryThreshold
	if span <= 0 {
		return decimal.NewFromInt(1)
	}
	excess := score - s.entryThreshold
	if excess < 0 {
		excess = 0
	}
	if excess > span {
		excess = span
	}
	frac := decimal.NewFromInt(int64(excess)).Div(decimal.NewFromInt(int64(span)))
	return decimal.NewFromFloat(0.5).Add(frac.Mul(decimal.NewFromFloat(0.5)))
}
