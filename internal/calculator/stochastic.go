package calculator

import (
	"math"

	"CoinPilot/internal/model"
)

// Stochastic computes %K = 100·(close − lowN)/(highN − lowN) over the
// trailing period and %D as the smooth-bar SMA of %K. A flat window
// (highN == lowN) leaves %K undefined for that bar rather than forcing
// a divide-by-zero.
func Stochastic(bars []model.OHLCV, period, smooth int) (k, d []float64) {
	n := len(bars)
	k = nanSlice(n)
	d = nanSlice(n)
	if period <= 0 || smooth <= 0 || n < period {
		return k, d
	}

	for i := period - 1; i < n; i++ {
		high := math.Inf(-1)
		low := math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			if bars[j].High > high {
				high = bars[j].High
			}
			if bars[j].Low < low {
				low = bars[j].Low
			}
		}
		if high == low {
			continue // %K undefined for a flat window
		}
		k[i] = 100.0 * (bars[i].Close - low) / (high - low)
	}

	for i := smooth - 1; i < n; i++ {
		sum := 0.0
		ok := true
		for j := i - smooth + 1; j <= i; j++ {
			if math.IsNaN(k[j]) {
				ok = false
				break
			}
			sum += k[j]
		}
		if ok {
			d[i] = sum / float64(smooth)
		}
	}
	return k, d
}
