package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/detector"
	"github.com/dipwatch/dip-agent/internal/service/indicator"
	"github.com/shopspring/decimal"
)

// Thresholds 评分阈值
type Thresholds struct {
	MADistancePercent       float64 // price this far below MA scores
	RSIOversold             float64
	SupportProximityPercent float64
	EntryThreshold          int
}

var _ Analyzer = (*ruleBasedAnalyzer)(nil)

type ruleBasedAnalyzer struct {
	engine     *indicator.Engine
	detector   *detector.Detector
	thresholds Thresholds
}

func NewRuleBasedAnalyzer(engine *indicator.Engine, det *detector.Detector, thresholds Thresholds) Analyzer {
	return &ruleBasedAnalyzer{
		engine:     engine,
		detector:   det,
		thresholds: thresholds,
	}
}

// Analyze scores one cycle: indicator snapshot plus drop events mapped through
// the fixed point table. The entry decision is score >= EntryThreshold, with
// the boundary score triggering.
func (a *ruleBasedAnalyzer) Analyze(ctx context.Context, input AnalyzeInput) (Assessment, error) {
	snapshot, err := a.engine.ComputeSnapshot(input.Klines, input.CurrentPrice)
	if err != nil {
		return Assessment{}, fmt.Errorf("compute snapshot for %s: %w", input.Pair.ToString(), err)
	}

	drops := a.detector.Detect(input.Klines, input.Stats)

	assessment := Assessment{
		Pair:         input.Pair,
		CurrentPrice: input.CurrentPrice,
		Snapshot:     snapshot,
		Drops:        drops,
		Timestamp:    time.Now(),
	}

	// Several drop methods usually flag the same underlying decline, so the
	// drop category scores once, on the largest event.
	if largest, ok := detector.Largest(drops); ok {
		assessment.add(TriggeredSignal{
			Kind:   SignalDrop,
			Points: dropPoints,
			Detail: fmt.Sprintf("%s drop %.2f%%", largest.Method, largest.MagnitudePercent.InexactFloat64()),
		})
	}

	if snapshot.MADistancePercent.LessThanOrEqual(decimal.NewFromFloat(-a.thresholds.MADistancePercent)) {
		assessment.add(TriggeredSignal{
			Kind:   SignalBelowMA,
			Points: belowMAPoints,
			Detail: fmt.Sprintf("price %.2f%% below MA %s", snapshot.MADistancePercent.Abs().InexactFloat64(), snapshot.MA),
		})
	}

	if snapshot.RSI.LessThanOrEqual(decimal.NewFromFloat(a.thresholds.RSIOversold)) {
		assessment.add(TriggeredSignal{
			Kind:   SignalRSIOversold,
			Points: rsiOversoldPoints,
			Detail: fmt.Sprintf("RSI %.1f", snapshot.RSI.InexactFloat64()),
		})
	}

	if support, ok := a.nearSupport(snapshot, input.CurrentPrice); ok {
		assessment.add(TriggeredSignal{
			Kind:   SignalNearSupport,
			Points: nearSupportPoints,
			Detail: fmt.Sprintf("support at %s", support),
		})
	}

	assessment.EntrySignal = assessment.Score >= a.thresholds.EntryThreshold
	slog.Debug("assessed pair",
		"pair", input.Pair.ToString(),
		"score", assessment.Score,
		"entry", assessment.EntrySignal)
	return assessment, nil
}

func (a *ruleBasedAnalyzer) nearSupport(snapshot indicator.Snapshot, price decimal.Decimal) (decimal.Decimal, bool) {
	if len(snapshot.Supports) == 0 {
		return decimal.Zero, false
	}
	nearest := snapshot.Supports[0]
	distance := price.Sub(nearest).Div(nearest).Mul(decimal.NewFromInt(100))
	if distance.LessThanOrEqual(decimal.NewFromFloat(a.thresholds.SupportProximityPercent)) {
		return nearest, true
	}
	return decimal.Zero, false
}

func (s *Assessment) add(sig TriggeredSignal) {
	s.Triggered = append(s.Triggered, sig)
	s.Score += sig.Points
}
