package calculator

import "math"

// Bollinger computes the middle band (SMA), and upper/lower bands at
// mean ± k·σ, where σ is the population standard deviation over the
// trailing period. The first period-1 entries are NaN.
func Bollinger(closes []float64, period int, k float64) (middle, upper, lower []float64) {
	n := len(closes)
	middle = SMA(closes, period)
	upper = nanSlice(n)
	lower = nanSlice(n)
	if period <= 0 || n < period {
		return middle, upper, lower
	}
	for i := period - 1; i < n; i++ {
		mean := middle[i]
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			sq += d * d
		}
		sigma := math.Sqrt(sq / float64(period))
		upper[i] = mean + k*sigma
		lower[i] = mean - k*sigma
	}
	return middle, upper, lower
}
