package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/detector"
	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
)

func NewHistoricalAnalyzer(marketSvc exchange.MarketService, minDropPercent float64) *HistoricalAnalyzer {
	return &HistoricalAnalyzer{
		marketSvc:      marketSvc,
		minDropPercent: decimal.NewFromFloat(minDropPercent),
	}
}

// HistoricalAnalyzer walks a daily series once and counts every method's hits
// separately. Unlike live scoring there is no dedup across methods; the point
// here is to show how often each method fires on its own.
type HistoricalAnalyzer struct {
	marketSvc      exchange.MarketService
	minDropPercent decimal.Decimal
}

func (a *HistoricalAnalyzer) Analyze(ctx context.Context, pair exchange.TradingPair, startTime, endTime time.Time) (Report, error) {
	klines, err := a.marketSvc.GetKlines(ctx, exchange.GetKlinesReq{
		TradingPair: pair,
		Interval:    exchange.Interval1d,
		StartTime:   startTime,
		EndTime:     endTime,
	})
	if err != nil {
		return Report{}, err
	}
	return a.Summarize(pair, klines)
}

// Summarize 对已获取的日线序列做离线统计
func (a *HistoricalAnalyzer) Summarize(pair exchange.TradingPair, klines []exchange.Kline) (Report, error) {
	if err := exchange.ValidateSeries(klines); err != nil {
		return Report{}, err
	}

	report := Report{
		Pair:        pair,
		StartTime:   klines[0].OpenTime,
		EndTime:     klines[len(klines)-1].CloseTime,
		Days:        len(klines),
		TrendSlope:  decimalx.Slope(exchange.Closes(klines)),
		GeneratedAt: time.Now(),
	}

	report.Methods = []MethodStats{
		a.closeToCloseStats(klines, &report.Recovery),
		a.drawdownStats(klines, 7, detector.MethodDrawdown7d),
		a.drawdownStats(klines, 30, detector.MethodDrawdown30d),
		a.intradayStats(klines),
	}
	for _, m := range report.Methods {
		report.TotalEvents += m.Events
	}
	return report, nil
}

// closeToCloseStats counts day-over-day drops and, for each one, how many days
// the close took to climb back to its pre-drop level.
func (a *HistoricalAnalyzer) closeToCloseStats(klines []exchange.Kline, recovery *RecoveryStats) MethodStats {
	stats := newMethodStats(detector.MethodCloseToClose)
	var totalDays int64

	for i := 1; i < len(klines); i++ {
		magnitude := decimalx.PercentChange(klines[i-1].Close, klines[i].Close).Neg()
		if magnitude.LessThan(a.minDropPercent) {
			continue
		}
		stats.record(magnitude)

		recovered := false
		for j := i + 1; j < len(klines); j++ {
			if klines[j].Close.GreaterThanOrEqual(klines[i-1].Close) {
				days := j - i
				recovery.Recovered++
				totalDays += int64(days)
				if days > recovery.MaxDays {
					recovery.MaxDays = days
				}
				recovered = true
				break
			}
		}
		if !recovered {
			recovery.Unrecovered++
		}
	}

	if recovery.Recovered > 0 {
		recovery.AvgDays = decimal.NewFromInt(totalDays).Div(decimal.NewFromInt(int64(recovery.Recovered)))
	}
	return stats.finish()
}

// drawdownStats counts the days on which the close sat at least minDropPercent
// below the window's peak close.
func (a *HistoricalAnalyzer) drawdownStats(klines []exchange.Kline, window int, method detector.Method) MethodStats {
	stats := newMethodStats(method)

	for i := 1; i < len(klines); i++ {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		peak := klines[from].Close
		for j := from + 1; j <= i; j++ {
			peak = decimal.Max(peak, klines[j].Close)
		}
		if peak.IsZero() {
			continue
		}
		magnitude := peak.Sub(klines[i].Close).Div(peak).Mul(decimal.NewFromInt(100))
		if magnitude.GreaterThanOrEqual(a.minDropPercent) {
			stats.record(magnitude)
		}
	}
	return stats.finish()
}

func (a *HistoricalAnalyzer) intradayStats(klines []exchange.Kline) MethodStats {
	stats := newMethodStats(detector.MethodIntraday)
	for _, k := range klines {
		if k.High.IsZero() {
			continue
		}
		magnitude := k.High.Sub(k.Low).Div(k.High).Mul(decimal.NewFromInt(100))
		if magnitude.GreaterThanOrEqual(a.minDropPercent) {
			stats.record(magnitude)
		}
	}
	return stats.finish()
}

// MethodStats 单个检测方法在整段历史上的统计
type MethodStats struct {
	Method         detector.Method
	Events         int
	AvgDropPercent decimal.Decimal
	MaxDropPercent decimal.Decimal

	sum decimal.Decimal
}

func newMethodStats(method detector.Method) MethodStats {
	return MethodStats{Method: method}
}

func (m *MethodStats) record(magnitude decimal.Decimal) {
	m.Events++
	m.sum = m.sum.Add(magnitude)
	m.MaxDropPercent = decimal.Max(m.MaxDropPercent, magnitude)
}

func (m MethodStats) finish() MethodStats {
	if m.Events > 0 {
		m.AvgDropPercent = m.sum.Div(decimal.NewFromInt(int64(m.Events)))
	}
	m.sum = decimal.Zero
	return m
}

// RecoveryStats 跌幅事件之后收盘价回到跌前水平所需的天数
type RecoveryStats struct {
	Recovered   int
	Unrecovered int
	AvgDays     decimal.Decimal
	MaxDays     int
}

// Report 历史回看报告
type Report struct {
	Pair      exchange.TradingPair
	StartTime time.Time
	EndTime   time.Time
	Days      int

	Methods     []MethodStats
	TotalEvents int
	Recovery    RecoveryStats

	// TrendSlope is the normalized least-squares slope of the closes.
	TrendSlope decimal.Decimal

	GeneratedAt time.Time
}

func (r Report) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}
