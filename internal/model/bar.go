package model

import (
	"math"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndicatorBar is an OHLCV bar augmented with derived technical indicators.
// Fields inside their lookback warm-up window hold NaN, never zero, so a
// missing value can never be mistaken for a real one.
type IndicatorBar struct {
	OHLCV

	SMA20 float64
	EMA12 float64
	MA50  float64
	MA200 float64

	BBMiddle float64
	BBUpper  float64
	BBLower  float64

	RSI float64

	MACD       float64
	MACDSignal float64
	MACDDiff   float64

	StochK float64
	StochD float64

	ATR float64
	OBV float64
}

// Defined reports whether v carries a real value (i.e. is outside its
// warm-up window).
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
