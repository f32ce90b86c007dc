package indicator

import (
	"sort"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/dipwatch/dip-agent/pkg/decimalx"
	"github.com/shopspring/decimal"
)

// extremaNeighborhood is how many candles on each side a local extreme must dominate.
const extremaNeighborhood = 2

// Levels scans the series for local extrema, clusters nearby ones into single
// levels and splits them around the current price. A series too short to hold
// any extreme yields empty slices, which only suppresses the near-support
// signal downstream.
func (e *Engine) Levels(klines []exchange.Kline, currentPrice decimal.Decimal) (supports, resistances []decimal.Decimal) {
	lows := localMinima(klines, extremaNeighborhood)
	highs := localMaxima(klines, extremaNeighborhood)

	lowLevels := clusterLevels(lows, e.levelTolerance)
	highLevels := clusterLevels(highs, e.levelTolerance)

	for _, l := range lowLevels {
		if l.LessThan(currentPrice) {
			supports = append(supports, l)
		}
	}
	for _, h := range highLevels {
		if h.GreaterThan(currentPrice) {
			resistances = append(resistances, h)
		}
	}

	// nearest level first on both sides
	sort.Slice(supports, func(i, j int) bool {
		return supports[i].GreaterThan(supports[j])
	})
	sort.Slice(resistances, func(i, j int) bool {
		return resistances[i].LessThan(resistances[j])
	})
	return supports, resistances
}

func localMinima(klines []exchange.Kline, n int) []decimal.Decimal {
	var res []decimal.Decimal
	for i := n; i < len(klines)-n; i++ {
		isMin := true
		for j := i - n; j <= i+n; j++ {
			if j == i {
				continue
			}
			if klines[j].Low.LessThan(klines[i].Low) {
				isMin = false
				break
			}
		}
		if isMin {
			res = append(res, klines[i].Low)
		}
	}
	return res
}

func localMaxima(klines []exchange.Kline, n int) []decimal.Decimal {
	var res []decimal.Decimal
	for i := n; i < len(klines)-n; i++ {
		isMax := true
		for j := i - n; j <= i+n; j++ {
			if j == i {
				continue
			}
			if klines[j].High.GreaterThan(klines[i].High) {
				isMax = false
				break
			}
		}
		if isMax {
			res = append(res, klines[i].High)
		}
	}
	return res
}

// clusterLevels groups sorted prices whose relative distance to the previous
// cluster member stays within tolerance, keeping the median of each cluster.
func clusterLevels(levels []decimal.Decimal, tolerance decimal.Decimal) []decimal.Decimal {
	if len(levels) == 0 {
		return nil
	}
	sorted := make([]decimal.Decimal, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	var clusters []decimal.Decimal
	current := []decimal.Decimal{sorted[0]}
	for _, level := range sorted[1:] {
		last := current[len(current)-1]
		if level.Sub(last).Abs().LessThanOrEqual(last.Mul(tolerance)) {
			current = append(current, level)
		} else {
			clusters = append(clusters, decimalx.Median(current))
			current = []decimal.Decimal{level}
		}
	}
	clusters = append(clusters, decimalx.Median(current))
	return clusters
}
