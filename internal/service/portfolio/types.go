package portfolio

import (
	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/shopspring/decimal"
)

type RiskConfig struct {
	// 每个交易对可用的计价货币预算
	Budget decimal.Decimal

	// 单笔交易最大可承受亏损占预算的比例(%)
	MaxRiskPercent float64

	// 最小盈亏比，低于该值的计划不通过风控，0 表示不检查
	MinRiskReward float64
}

type Sizing struct {
	Quantity  decimal.Decimal
	QuoteCost decimal.Decimal
	MaxLoss   decimal.Decimal
	Validated bool   // 是否通过风控
	Reason    string // 风控理由
}

type Sizer interface {
	// Size 根据评分与计划计算建议买入数量
	Size(assessment strategy.Assessment, plan strategy.TradePlan) (Sizing, error)
}
