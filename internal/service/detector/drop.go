package detector

import (
	"time"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCloseToClose Method = "close_to_close"
	MethodDrawdown7d   Method = "drawdown_7d"
	MethodDrawdown30d  Method = "drawdown_30d"
	MethodIntraday     Method = "intraday"
)

// DropEvent 单个检测方法命中的下跌事件
type DropEvent struct {
	Method           Method
	MagnitudePercent decimal.Decimal
	WindowStart      time.Time
	WindowEnd        time.Time
}

// Detector scans one series with several independent drop methods. A single
// close-to-close comparison misses slow multi-day bleeds, which is exactly
// what the drawdown windows exist to catch.
type Detector struct {
	minDropPercent decimal.Decimal
}

func NewDetector(minDropPercent float64) *Detector {
	return &Detector{minDropPercent: decimal.NewFromFloat(minDropPercent)}
}

// Detect runs every method over the series and keeps the events whose
// magnitude reaches the configured minimum. Methods are order-insensitive and
// overlapping windows are not deduplicated here; the scorer picks the largest.
func (d *Detector) Detect(klines []exchange.Kline, stats exchange.Ticker24h) []DropEvent {
	if len(klines) == 0 {
		return nil
	}

	var events []DropEvent
	if ev, ok := d.closeToClose(klines, stats); ok {
		events = append(events, ev)
	}
	if ev, ok := d.drawdown(klines, 7, MethodDrawdown7d); ok {
		events = append(events, ev)
	}
	if ev, ok := d.drawdown(klines, 30, MethodDrawdown30d); ok {
		events = append(events, ev)
	}
	if ev, ok := d.intraday(klines); ok {
		events = append(events, ev)
	}

	return lo.Filter(events, func(ev DropEvent, index int) bool {
		return ev.MagnitudePercent.GreaterThanOrEqual(d.minDropPercent)
	})
}

// Largest returns the biggest-magnitude event of a cycle.
func Largest(events []DropEvent) (DropEvent, bool) {
	if len(events) == 0 {
		return DropEvent{}, false
	}
	return lo.MaxBy(events, func(a DropEvent, b DropEvent) bool {
		return a.MagnitudePercent.GreaterThan(b.MagnitudePercent)
	}), true
}

func (d *Detector) closeToClose(klines []exchange.Kline, stats exchange.Ticker24h) (DropEvent, bool) {
	step := candlesPer24h(klines)
	if len(klines) <= step {
		return DropEvent{}, false
	}
	latest := klines[len(klines)-1]
	prior := klines[len(klines)-1-step]
	if prior.Close.IsZero() {
		return DropEvent{}, false
	}
	magnitude := decimalx.PercentChange(prior.Close, latest.Close).Neg()
	return DropEvent{
		Method:           MethodCloseToClose,
		MagnitudePercent: magnitude,
		WindowStart:      prior.OpenTime,
		WindowEnd:        latest.CloseTime,
	}, true
}

func (d *Detector) drawdown(klines []exchange.Kline, window int, method Method) (DropEvent, bool) {
	if len(klines) < 2 {
		return DropEvent{}, false
	}
	if len(klines) > window {
		klines = klines[len(klines)-window:]
	}

	// peak close first, then the lowest close at or after it
	peakIdx := 0
	for i, k := range klines {
		if k.Close.GreaterThan(klines[peakIdx].Close) {
			peakIdx = i
		}
	}
	troughIdx := peakIdx
	for i := peakIdx; i < len(klines); i++ {
		if klines[i].Close.LessThan(klines[troughIdx].Close) {
			troughIdx = i
		}
	}

	peak := klines[peakIdx].Close
	if peak.IsZero() {
		return DropEvent{}, false
	}
	magnitude := peak.Sub(klines[troughIdx].Close).Div(peak).Mul(decimal.NewFromInt(100))
	return DropEvent{
		Method:           method,
		MagnitudePercent: magnitude,
		WindowStart:      klines[peakIdx].OpenTime,
		WindowEnd:        klines[troughIdx].CloseTime,
	}, true
}

func (d *Detector) intraday(klines []exchange.Kline) (DropEvent, bool) {
	latest := klines[len(klines)-1]
	if latest.High.IsZero() {
		return DropEvent{}, false
	}
	magnitude := latest.High.Sub(latest.Low).Div(latest.High).Mul(decimal.NewFromInt(100))
	return DropEvent{
		Method:           MethodIntraday,
		MagnitudePercent: magnitude,
		WindowStart:      latest.OpenTime,
		WindowEnd:        latest.CloseTime,
	}, true
}

// candlesPer24h derives how many candles span the trailing 24h window the
// summary describes. Daily granularity resolves to a single candle.
func candlesPer24h(klines []exchange.Kline) int {
	if len(klines) < 2 {
		return 1
	}
	span := klines[len(klines)-1].OpenTime.Sub(klines[len(klines)-2].OpenTime)
	if span <= 0 {
		return 1
	}
	n := int(24 * time.Hour / span)
	if n < 1 {
		return 1
	}
	return n
}
