package calculator

import "math"

// MACDSeries computes the MACD line (EMA12 − EMA26), its EMA9 signal
// line, and the histogram (line − signal). The line is defined once
// EMA26 is, the signal nine bars later.
func MACDSeries(closes []float64) (line, signal, diff []float64) {
	n := len(closes)
	fast := EMA(closes, 12)
	slow := EMA(closes, 26)

	line = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	signal = emaTail(line, 9)

	diff = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			diff[i] = line[i] - signal[i]
		}
	}
	return line, signal, diff
}
