package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dipwatch/dip-agent/internal/entity"
	"github.com/dipwatch/dip-agent/internal/repo"
	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/internal/service/portfolio"
	"github.com/dipwatch/dip-agent/internal/service/strategy"
	"github.com/samber/lo"
)

// SymbolMonitor drives one polling cycle for one trading pair:
// fetch -> indicators/detection -> scoring -> plan -> report.
type SymbolMonitor struct {
	pair      exchange.TradingPair
	marketSvc exchange.MarketService
	analyzer  strategy.Analyzer
	planner   *strategy.Planner

	notifier    Notifier
	signalRepo  repo.SignalRepo
	signalLog   *repo.SignalLog
	commentator Commentator
	sizer       portfolio.Sizer

	historicalDays int

	state State
}

type consoleNotifier struct {
}

func (c consoleNotifier) Notify(ctx context.Context, assessment strategy.Assessment, plan *strategy.TradePlan) error {
	fmt.Printf("entry signal %s score=%d price=%s\n", assessment.Pair.ToString(), assessment.Score, assessment.CurrentPrice)
	return nil
}

type Option func(m *SymbolMonitor)

func WithNotifier(notifier Notifier) Option {
	return func(m *SymbolMonitor) {
		m.notifier = notifier
	}
}

func WithSignalRepo(signalRepo repo.SignalRepo) Option {
	return func(m *SymbolMonitor) {
		m.signalRepo = signalRepo
	}
}

func WithSignalLog(signalLog *repo.SignalLog) Option {
	return func(m *SymbolMonitor) {
		m.signalLog = signalLog
	}
}

func WithCommentator(commentator Commentator) Option {
	return func(m *SymbolMonitor) {
		m.commentator = commentator
	}
}

func WithSizer(sizer portfolio.Sizer) Option {
	return func(m *SymbolMonitor) {
		m.sizer = sizer
	}
}

func NewSymbolMonitor(pair exchange.TradingPair, marketSvc exchange.MarketService,
	analyzer strategy.Analyzer, planner *strategy.Planner, historicalDays int, opts ...Option) *SymbolMonitor {
	m := &SymbolMonitor{
		pair:           pair,
		marketSvc:      marketSvc,
		analyzer:       analyzer,
		planner:        planner,
		historicalDays: historicalDays,
		notifier:       consoleNotifier{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SymbolMonitor) Pair() exchange.TradingPair {
	return m.pair
}

func (m *SymbolMonitor) State() State {
	return m.state
}

// RunCycle executes one full cycle. A failure while fetching or computing
// abandons the cycle without emitting anything; it is recorded in State and
// retried on the next scheduled cycle, never within this one.
func (m *SymbolMonitor) RunCycle(ctx context.Context) error {
	assessment, plan, err := m.cycle(ctx)
	if err != nil {
		m.state.LastErr = err
		m.state.ConsecutiveFailures++
		return err
	}
	m.state.LastSuccess = time.Now()
	m.state.LastErr = nil
	m.state.ConsecutiveFailures = 0

	m.report(ctx, assessment, plan)
	return nil
}

func (m *SymbolMonitor) cycle(ctx context.Context) (strategy.Assessment, *strategy.TradePlan, error) {
	price, err := m.marketSvc.Ticker(ctx, m.pair)
	if err != nil {
		return strategy.Assessment{}, nil, err
	}
	stats, err := m.marketSvc.Ticker24h(ctx, m.pair)
	if err != nil {
		return strategy.Assessment{}, nil, err
	}
	end := time.Now()
	klines, err := m.marketSvc.GetKlines(ctx, exchange.GetKlinesReq{
		TradingPair: m.pair,
		Interval:    exchange.Interval1d,
		StartTime:   end.AddDate(0, 0, -m.historicalDays),
		EndTime:     end,
	})
	if err != nil {
		return strategy.Assessment{}, nil, err
	}

	assessment, err := m.analyzer.Analyze(ctx, strategy.AnalyzeInput{
		Pair:         m.pair,
		Klines:       klines,
		Stats:        stats,
		CurrentPrice: price,
	})
	if err != nil {
		return strategy.Assessment{}, nil, err
	}

	if !assessment.EntrySignal {
		return assessment, nil, nil
	}
	plan := m.planner.BuildPlan(assessment)
	return assessment, &plan, nil
}

// report never fails the cycle: a sink error is logged and the next cycle
// proceeds on schedule.
func (m *SymbolMonitor) report(ctx context.Context, assessment strategy.Assessment, plan *strategy.TradePlan) {
	if plan == nil {
		slog.Info("no entry opportunity",
			"symbol", m.pair.ToString(),
			"score", assessment.Score,
			"price", assessment.CurrentPrice,
			"rsi", assessment.Snapshot.RSI)
		return
	}

	if m.sizer != nil {
		sizing, err := m.sizer.Size(assessment, *plan)
		switch {
		case err != nil:
			slog.Error("sizing failed", "symbol", m.pair.ToString(), "error", err)
		case sizing.Validated:
			plan.Quantity = sizing.Quantity
			plan.QuoteCost = sizing.QuoteCost
		default:
			slog.Info("sizing rejected", "symbol", m.pair.ToString(), "reason", sizing.Reason)
		}
	}

	if m.commentator != nil {
		comment, err := m.commentator.Comment(ctx, assessment, *plan)
		if err != nil {
			slog.Error("commentary failed", "symbol", m.pair.ToString(), "error", err)
		} else {
			assessment.Commentary = comment
		}
	}

	slog.Info("entry signal detected",
		"symbol", m.pair.ToString(),
		"score", assessment.Score,
		"price", assessment.CurrentPrice,
		"target", plan.TargetPrice,
		"stop", plan.StopPrice)

	m.persist(ctx, assessment, *plan)

	if err := m.notifier.Notify(ctx, assessment, plan); err != nil {
		slog.Error("notify failed", "symbol", m.pair.ToString(), "error", err)
	}
}

func (m *SymbolMonitor) persist(ctx context.Context, assessment strategy.Assessment, plan strategy.TradePlan) {
	details := lo.Map(assessment.Triggered, func(sig strategy.TriggeredSignal, index int) string {
		return fmt.Sprintf("%s: %s", sig.Kind, sig.Detail)
	})

	var quantity string
	if !plan.Quantity.IsZero() {
		quantity = plan.Quantity.String()
	}

	if m.signalRepo != nil {
		triggered, err := json.Marshal(details)
		if err != nil {
			triggered = []byte("[]")
		}
		_, err = m.signalRepo.Create(ctx, entity.Signal{
			BaseSymbol:      m.pair.Base,
			QuoteSymbol:     m.pair.Quote,
			Price:           assessment.CurrentPrice.String(),
			Score:           assessment.Score,
			Triggered:       string(triggered),
			EntryPrice:      plan.EntryPrice.String(),
			TargetPrice:     plan.TargetPrice.String(),
			TargetPercent:   plan.TargetPercent.InexactFloat64(),
			StopPrice:       plan.StopPrice.String(),
			StopPercent:     plan.StopPercent.InexactFloat64(),
			RiskRewardRatio: plan.RiskRewardRatio.InexactFloat64(),
			Quantity:        quantity,
			CreatedAt:       assessment.Timestamp,
		})
		if err != nil {
			slog.Error("save signal failed", "symbol", m.pair.ToString(), "error", err)
		}
	}

	if m.signalLog != nil {
		err := m.signalLog.Append(repo.SignalRecord{
			Timestamp:       assessment.Timestamp,
			Symbol:          m.pair.ToString(),
			Price:           assessment.CurrentPrice.String(),
			Score:           assessment.Score,
			Signals:         details,
			EntryPrice:      plan.EntryPrice.String(),
			TargetPrice:     plan.TargetPrice.String(),
			TargetPercent:   plan.TargetPercent.InexactFloat64(),
			StopPrice:       plan.StopPrice.String(),
			StopPercent:     plan.StopPercent.InexactFloat64(),
			RiskRewardRatio: plan.RiskRewardRatio.InexactFloat64(),
			Quantity:        quantity,
		})
		if err != nil {
			slog.Error("append signal log failed", "symbol", m.pair.ToString(), "error", err)
		}
	}
}
