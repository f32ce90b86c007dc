package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TradeNotifier renders assessments into chat messages and hands them to a
// Sender. It satisfies the monitor's Notifier contract.
type TradeNotifier struct {
	sender   Sender
	maPeriod int
}

func NewTradeNotifier(sender Sender, maPeriod int) *TradeNotifier {
	return &TradeNotifier{
		sender:   sender,
		maPeriod: maPeriod,
	}
}

func (n *TradeNotifier) Notify(ctx context.Context, assessment strategy.Assessment, plan *strategy.TradePlan) error {
	return n.sender.SendText(ctx, FormatTradeSignal(assessment, plan, n.maPeriod))
}

// FormatTradeSignal renders the entry-signal message. A nil plan renders a
// plain status message instead.
func FormatTradeSignal(assessment strategy.Assessment, plan *strategy.TradePlan, maPeriod int) string {
	var b strings.Builder

	symbol := assessment.Pair.ToString()
	if plan == nil {
		fmt.Fprintf(&b, "%s status: score %d, price %s, no entry\n", symbol, assessment.Score, assessment.CurrentPrice)
		return b.String()
	}

	fmt.Fprintf(&b, "🚨 *%s ENTRY SIGNAL* 🚨\n\n", symbol)
	fmt.Fprintf(&b, "⏰ %s\n", assessment.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "💰 Price: %s\n\n", assessment.CurrentPrice)

	fmt.Fprintf(&b, "📊 *INDICATORS:*\n")
	fmt.Fprintf(&b, "• MA%d: %s (%+.2f%%)\n", maPeriod, assessment.Snapshot.MA.StringFixed(2), assessment.Snapshot.MADistancePercent.InexactFloat64())
	fmt.Fprintf(&b, "• RSI: %.1f\n", assessment.Snapshot.RSI.InexactFloat64())
	fmt.Fprintf(&b, "• Score: %d\n\n", assessment.Score)

	fmt.Fprintf(&b, "🔔 *SIGNALS:*\n")
	for _, sig := range assessment.Triggered {
		fmt.Fprintf(&b, "• [%s] %s (+%d)\n", sig.Kind, sig.Detail, sig.Points)
	}

	fmt.Fprintf(&b, "\n💡 *TRADE SUGGESTION:*\n")
	fmt.Fprintf(&b, "🔹 ENTRY: %s\n", plan.EntryPrice)
	fmt.Fprintf(&b, "🎯 TARGET: %s (+%.2f%%)\n", plan.TargetPrice.StringFixed(2), plan.TargetPercent.InexactFloat64())
	fmt.Fprintf(&b, "🛑 STOP: %s (-%.2f%%)\n", plan.StopPrice.StringFixed(2), plan.StopPercent.InexactFloat64())
	fmt.Fprintf(&b, "📊 Risk/Reward: 1:%.2f\n", plan.RiskRewardRatio.InexactFloat64())
	if !plan.Quantity.IsZero() {
		fmt.Fprintf(&b, "💵 SIZE: %s (≈%s %s)\n", plan.Quantity, plan.QuoteCost.StringFixed(2), assessment.Pair.Quote)
	}

	if levels := formatLevels(assessment.Snapshot.Resistances); levels != "" {
		fmt.Fprintf(&b, "\n📍 Resistances: %s\n", levels)
	}
	if levels := formatLevels(assessment.Snapshot.Supports); levels != "" {
		fmt.Fprintf(&b, "📍 Supports: %s\n", levels)
	}
	if assessment.Commentary != "" {
		fmt.Fprintf(&b, "\n💬 %s\n", assessment.Commentary)
	}
	return b.String()
}

func formatLevels(levels []decimal.Decimal) string {
	top := levels
	if len(top) > 3 {
		top = top[:3]
	}
	return strings.Join(lo.Map(top, func(l decimal.Decimal, index int) string {
		return l.StringFixed(0)
	}), ", ")
}
