package calculator

import (
	"math"

	"CoinPilot/internal/model"
)

// ATRSeries computes the Wilder-smoothed Average True Range. True range
// is max(high−low, |high−prevClose|, |low−prevClose|); the first bar has
// no previous close so its range is simply high−low. Defined from index
// period-1 onward.
func ATRSeries(bars []model.OHLCV, period int) []float64 {
	n := len(bars)
	out := nanSlice(n)
	if period <= 0 || n < period {
		return out
	}

	tr := make([]float64, n)
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low,
			math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	prev := sum / float64(period)
	out[period-1] = prev

	for i := period; i < n; i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}
