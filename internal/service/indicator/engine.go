package indicator

import (
	"fmt"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Snapshot 单个周期的指标快照
type Snapshot struct {
	MA                decimal.Decimal
	MADistancePercent decimal.Decimal
	RSI               decimal.Decimal
	// Supports are levels below the current price, nearest first.
	Supports []decimal.Decimal
	// Resistances are levels above the current price, nearest first.
	Resistances []decimal.Decimal
}

type Engine struct {
	maPeriod       int
	rsiPeriod      int
	levelTolerance decimal.Decimal // fraction, e.g. 0.02 for 2%
}

func NewEngine(maPeriod, rsiPeriod int, levelTolerancePercent float64) *Engine {
	return &Engine{
		maPeriod:       maPeriod,
		rsiPeriod:      rsiPeriod,
		levelTolerance: decimal.NewFromFloat(levelTolerancePercent).Div(hundred),
	}
}

// ComputeSnapshot derives MA, RSI and support/resistance levels from a
// validated daily series. The series must carry at least maPeriod+1 and
// rsiPeriod+1 candles; anything shorter is malformed, never a zero snapshot.
func (e *Engine) ComputeSnapshot(klines []exchange.Kline, currentPrice decimal.Decimal) (Snapshot, error) {
	if err := exchange.ValidateSeries(klines); err != nil {
		return Snapshot{}, err
	}
	need := e.maPeriod
	if e.rsiPeriod > need {
		need = e.rsiPeriod
	}
	if len(klines) < need+1 {
		return Snapshot{}, fmt.Errorf("%w: need at least %d candles, got %d", exchange.ErrMalformedSeries, need+1, len(klines))
	}

	closes := exchange.Closes(klines)

	ma := decimalx.Avg(closes[len(closes)-e.maPeriod:])
	rsi, err := RSI(closes, e.rsiPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	supports, resistances := e.Levels(klines, currentPrice)

	return Snapshot{
		MA:                ma,
		MADistancePercent: decimalx.PercentChange(ma, currentPrice),
		RSI:               rsi,
		Supports:          supports,
		Resistances:       resistances,
	}, nil
}

// RSI computes the Wilder relative strength index over the given period:
// simple gain/loss averages over the first period changes, then Wilder
// smoothing across the rest of the series. Always within [0, 100].
func RSI(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("rsi period must be positive, got %d", period)
	}
	if len(closes) < period+1 {
		return decimal.Zero, fmt.Errorf("%w: rsi needs %d closes, got %d", exchange.ErrMalformedSeries, period+1, len(closes))
	}

	var avgGain, avgLoss decimal.Decimal
	for i := 1; i <= period; i++ {
		change := closes[i].Sub(closes[i-1])
		if change.IsPositive() {
			avgGain = avgGain.Add(change)
		} else {
			avgLoss = avgLoss.Sub(change)
		}
	}
	n := decimal.NewFromInt(int64(period))
	avgGain = avgGain.Div(n)
	avgLoss = avgLoss.Div(n)

	smooth := decimal.NewFromInt(int64(period - 1))
	for i := period + 1; i < len(closes); i++ {
		change := closes[i].Sub(closes[i-1])
		gain, loss := decimal.Zero, decimal.Zero
		if change.IsPositive() {
			gain = change
		} else {
			loss = change.Neg()
		}
		avgGain = avgGain.Mul(smooth).Add(gain).Div(n)
		avgLoss = avgLoss.Mul(smooth).Add(loss).Div(n)
	}

	if avgLoss.IsZero() {
		return hundred, nil
	}
	if avgGain.IsZero() {
		return decimal.Zero, nil
	}
	rs := avgGain.Div(avgLoss)
	rsi := hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
	return decimal.Max(decimal.Zero, decimal.Min(hundred, rsi)), nil
}
