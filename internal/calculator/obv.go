package calculator

import "CoinPilot/internal/model"

// OBVSeries computes On-Balance Volume: a running cumulative volume
// whose sign per bar follows the close-to-close direction. The first
// bar contributes its full volume.
func OBVSeries(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}
	out[0] = bars[0].Volume
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			out[i] = out[i-1] + bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			out[i] = out[i-1] - bars[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
