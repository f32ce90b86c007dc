package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/dipwatch/dip-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeTarget  Outcome = "target"
	OutcomeStop    Outcome = "stop"
	OutcomeTimeout Outcome = "timeout"
)

// SimulatedTrade 回放中的一笔模拟交易
type SimulatedTrade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Score      int
	Outcome    Outcome
	PnLPercent decimal.Decimal
	HoldDays   int
}

// BacktestReport 策略在一段历史上的回放结果
type BacktestReport struct {
	Pair   exchange.TradingPair
	Trades []SimulatedTrade

	TotalTrades int
	Wins        int
	Losses      int

	WinRate        decimal.Decimal
	AvgWinPercent  decimal.Decimal
	AvgLossPercent decimal.Decimal
	ProfitFactor   decimal.Decimal
	AvgHoldDays    decimal.Decimal

	GeneratedAt time.Time
}

func (r BacktestReport) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// Backtester replays the entry rules day by day over a historical series.
// Each entry is simulated forward against the following candles until the
// plan's target or stop is touched, or maxHoldDays pass. Positions never
// overlap: the scan resumes after the exit candle.
type Backtester struct {
	analyzer    strategy.Analyzer
	planner     *strategy.Planner
	warmupDays  int
	maxHoldDays int
}

func NewBacktester(analyzer strategy.Analyzer, planner *strategy.Planner, warmupDays, maxHoldDays int) *Backtester {
	if warmupDays < 1 {
		warmupDays = 1
	}
	if maxHoldDays < 1 {
		maxHoldDays = 1
	}
	return &Backtester{
		analyzer:    analyzer,
		planner:     planner,
		warmupDays:  warmupDays,
		maxHoldDays: maxHoldDays,
	}
}

func (b *Backtester) Run(ctx context.Context, pair exchange.TradingPair, klines []exchange.Kline) (BacktestReport, error) {
	if err := exchange.ValidateSeries(klines); err != nil {
		return BacktestReport{}, err
	}

	report := BacktestReport{
		Pair:        pair,
		GeneratedAt: time.Now(),
	}

	i := b.warmupDays
	for i < len(klines)-1 {
		select {
		case <-ctx.Done():
			return BacktestReport{}, ctx.Err()
		default:
		}

		price := klines[i].Close
		assessment, err := b.analyzer.Analyze(ctx, strategy.AnalyzeInput{
			Pair:   pair,
			Klines: klines[:i+1],
			Stats: exchange.Ticker24h{
				PriceChangePercent: decimalx.PercentChange(klines[i-1].Close, price),
				LastPrice:          price,
			},
			CurrentPrice: price,
		})
		if err != nil || !assessment.EntrySignal {
			i++
			continue
		}

		plan := b.planner.BuildPlan(assessment)
		trade, exitIdx := b.simulate(klines, i, plan, assessment.Score)
		report.Trades = append(report.Trades, trade)
		i = exitIdx + 1
	}

	b.fillMetrics(&report)
	return report, nil
}

// simulate walks forward from the entry candle. The stop is checked before the
// target on each candle; when both sit inside one candle's range the worse
// outcome is assumed.
func (b *Backtester) simulate(klines []exchange.Kline, entryIdx int, plan strategy.TradePlan, score int) (SimulatedTrade, int) {
	trade := SimulatedTrade{
		EntryTime:  klines[entryIdx].CloseTime,
		EntryPrice: plan.EntryPrice,
		Score:      score,
	}

	last := entryIdx + b.maxHoldDays
	if last > len(klines)-1 {
		last = len(klines) - 1
	}

	exitIdx := last
	exitPrice := klines[last].Close
	outcome := OutcomeTimeout
	for j := entryIdx + 1; j <= last; j++ {
		if klines[j].Low.LessThanOrEqual(plan.StopPrice) {
			exitIdx, exitPrice, outcome = j, plan.StopPrice, OutcomeStop
			break
		}
		if klines[j].High.GreaterThanOrEqual(plan.TargetPrice) {
			exitIdx, exitPrice, outcome = j, plan.TargetPrice, OutcomeTarget
			break
		}
	}

	trade.ExitTime = klines[exitIdx].CloseTime
	trade.ExitPrice = exitPrice
	trade.Outcome = outcome
	trade.PnLPercent = decimalx.PercentChange(plan.EntryPrice, exitPrice)
	trade.HoldDays = exitIdx - entryIdx
	return trade, exitIdx
}

func (b *Backtester) fillMetrics(report *BacktestReport) {
	report.TotalTrades = len(report.Trades)
	if report.TotalTrades == 0 {
		return
	}

	grossWin, grossLoss := decimal.Zero, decimal.Zero
	var holdDays int64
	for _, trade := range report.Trades {
		holdDays += int64(trade.HoldDays)
		switch {
		case trade.PnLPercent.IsPositive():
			report.Wins++
			grossWin = grossWin.Add(trade.PnLPercent)
		case trade.PnLPercent.IsNegative():
			report.Losses++
			grossLoss = grossLoss.Add(trade.PnLPercent.Abs())
		}
	}

	total := decimal.NewFromInt(int64(report.TotalTrades))
	report.WinRate = decimal.NewFromInt(int64(report.Wins)).Div(total).Mul(decimal.NewFromInt(100))
	report.AvgHoldDays = decimal.NewFromInt(holdDays).Div(total)
	if report.Wins > 0 {
		report.AvgWinPercent = grossWin.Div(decimal.NewFromInt(int64(report.Wins)))
	}
	if report.Losses > 0 {
		report.AvgLossPercent = grossLoss.Div(decimal.NewFromInt(int64(report.Losses)))
	}
	if !grossLoss.IsZero() {
		report.ProfitFactor = grossWin.Div(grossLoss)
	}
}
