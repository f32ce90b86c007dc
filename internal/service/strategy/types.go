package strategy

import (
	"context"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/detector"
	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/internal/service/indicator"
	"github.com/shopspring/decimal"
)

type SignalKind string

const (
	SignalDrop        SignalKind = "drop"
	SignalBelowMA     SignalKind = "below_ma"
	SignalRSIOversold SignalKind = "rsi_oversold"
	SignalNearSupport SignalKind = "near_support"
)

// Fixed point table; the weights are not adjusted at runtime.
const (
	dropPoints        = 3
	belowMAPoints     = 2
	rsiOversoldPoints = 2
	nearSupportPoints = 1
)

// MaxScore is the sum of every category's points.
const MaxScore = dropPoints + belowMAPoints + rsiOversoldPoints + nearSupportPoints

// TriggeredSignal 单个命中的信号条件
type TriggeredSignal struct {
	Kind   SignalKind
	Points int
	Detail string
}

// Assessment is one cycle's scoring result for one trading pair.
type Assessment struct {
	Pair         exchange.TradingPair
	Score        int
	Triggered    []TriggeredSignal
	EntrySignal  bool
	CurrentPrice decimal.Decimal
	Snapshot     indicator.Snapshot
	Drops        []detector.DropEvent
	Timestamp    time.Time
	// Commentary is optional free-form context attached before notifying.
	Commentary string
}

// TradePlan 入场建议：目标价、止损价与盈亏比。仅供参考，不会被执行。
type TradePlan struct {
	EntryPrice      decimal.Decimal
	TargetPrice     decimal.Decimal
	TargetPercent   decimal.Decimal
	StopPrice       decimal.Decimal
	StopPercent     decimal.Decimal
	RiskRewardRatio decimal.Decimal

	// Quantity and QuoteCost are filled in only when position sizing is
	// enabled; both stay zero otherwise.
	Quantity  decimal.Decimal
	QuoteCost decimal.Decimal
}

type AnalyzeInput struct {
	Pair         exchange.TradingPair
	Klines       []exchange.Kline
	Stats        exchange.Ticker24h
	CurrentPrice decimal.Decimal
}

type Analyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (Assessment, error)
}
