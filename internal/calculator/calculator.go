// Package calculator computes technical indicators over OHLCV series.
// All series functions are pure: same input, same output, no state.
// Values inside an indicator's warm-up window are NaN.
package calculator

import (
	"math"

	"CoinPilot/internal/model"
)

// AddIndicators returns the input series augmented with the full
// indicator set. Bars with a missing or non-positive OHLC field are
// dropped before computation. Input must be sorted ascending by time.
func AddIndicators(bars []model.OHLCV) []model.IndicatorBar {
	clean := dropInvalid(bars)
	closes := extractCloses(clean)

	sma20 := SMA(closes, 20)
	ema12 := EMA(closes, 12)
	ma50 := SMA(closes, 50)
	ma200 := SMA(closes, 200)
	bbMiddle, bbUpper, bbLower := Bollinger(closes, 20, 2)
	rsi := RSISeries(closes, 14)
	macd, macdSignal, macdDiff := MACDSeries(closes)
	stochK, stochD := Stochastic(clean, 14, 3)
	atr := ATRSeries(clean, 14)
	obv := OBVSeries(clean)

	rows := make([]model.IndicatorBar, len(clean))
	for i, b := range clean {
		rows[i] = model.IndicatorBar{
			OHLCV:      b,
			SMA20:      sma20[i],
			EMA12:      ema12[i],
			MA50:       ma50[i],
			MA200:      ma200[i],
			BBMiddle:   bbMiddle[i],
			BBUpper:    bbUpper[i],
			BBLower:    bbLower[i],
			RSI:        rsi[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			MACDDiff:   macdDiff[i],
			StochK:     stochK[i],
			StochD:     stochD[i],
			ATR:        atr[i],
			OBV:        obv[i],
		}
	}
	return rows
}

// dropInvalid removes bars whose OHLC fields are NaN or non-positive.
// Upstream feeds mark holidays and gaps with nulls; exclusion, not an
// error, is the contract here.
func dropInvalid(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !validPrice(b.Open) || !validPrice(b.High) || !validPrice(b.Low) || !validPrice(b.Close) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && v > 0
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
