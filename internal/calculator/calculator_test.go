package calculator

import (
	"math"
	"testing"
	"time"

	"CoinPilot/internal/model"
)

func makeBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   c * 0.999,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		// Gentle uptrend with a ripple so gains and losses both occur.
		closes[i] = 100 + float64(i)*0.5 + 3*math.Sin(float64(i)/3)
	}
	return closes
}

func TestSMA_WarmupAndValue(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN during warm-up, got %v", i, out[i])
		}
	}
	if out[2] != 2 || out[3] != 3 || out[4] != 4 {
		t.Errorf("unexpected SMA values: %v", out)
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestEMA_SeededFromSMA(t *testing.T) {
	values := []float64{2, 4, 6, 8}
	out := EMA(values, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("expected NaN before the seed index")
	}
	if out[2] != 4 {
		t.Errorf("seed should be SMA of first 3 values, got %v", out[2])
	}
	// k = 2/(3+1) = 0.5; next = (8-4)*0.5 + 4 = 6
	if out[3] != 6 {
		t.Errorf("expected 6, got %v", out[3])
	}
}

func TestBollinger_ConstantSeries(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 50
	}
	middle, upper, lower := Bollinger(values, 20, 2)
	for i := 0; i < 19; i++ {
		if !math.IsNaN(upper[i]) {
			t.Fatalf("index %d: expected NaN during warm-up", i)
		}
	}
	for i := 19; i < len(values); i++ {
		if middle[i] != 50 || upper[i] != 50 || lower[i] != 50 {
			t.Errorf("flat series should collapse bands to the mean at %d: %v %v %v",
				i, middle[i], upper[i], lower[i])
		}
	}
}

func TestBollinger_BandSymmetry(t *testing.T) {
	values := trendingCloses(40)
	middle, upper, lower := Bollinger(values, 20, 2)
	for i := 19; i < len(values); i++ {
		up := upper[i] - middle[i]
		down := middle[i] - lower[i]
		if math.Abs(up-down) > 1e-9 {
			t.Errorf("bands not symmetric at %d: +%v -%v", i, up, down)
		}
		if up < 0 {
			t.Errorf("upper band below middle at %d", i)
		}
	}
}

func TestRSI_Bounds(t *testing.T) {
	out := RSISeries(trendingCloses(60), 14)
	for i := 14; i < len(out); i++ {
		if out[i] < 0 || out[i] > 100 {
			t.Errorf("RSI out of [0,100] at %d: %v", i, out[i])
		}
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN during warm-up, got %v", i, out[i])
		}
	}
}

func TestRSI_AllGainsIs100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSISeries(closes, 14)
	for i := 14; i < len(out); i++ {
		if out[i] != 100 {
			t.Errorf("monotonic rise must give RSI=100 at %d, got %v", i, out[i])
		}
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	out := RSISeries(closes, 14)
	for i := 14; i < len(out); i++ {
		if out[i] != 0 {
			t.Errorf("monotonic fall must give RSI=0 at %d, got %v", i, out[i])
		}
	}
}

func TestMACD_WarmupOrder(t *testing.T) {
	line, signal, diff := MACDSeries(trendingCloses(60))
	if !math.IsNaN(line[24]) || math.IsNaN(line[25]) {
		t.Error("MACD line should become defined exactly when EMA26 does")
	}
	if !math.IsNaN(signal[32]) || math.IsNaN(signal[33]) {
		t.Error("signal should become defined 8 bars after the MACD line")
	}
	for i := 33; i < 60; i++ {
		if math.Abs(diff[i]-(line[i]-signal[i])) > 1e-12 {
			t.Errorf("diff mismatch at %d", i)
		}
	}
}

func TestStochastic_FlatWindowUndefined(t *testing.T) {
	bars := make([]model.OHLCV, 20)
	for i := range bars {
		bars[i] = model.OHLCV{Open: 10, High: 10, Low: 10, Close: 10, Volume: 1}
	}
	k, d := Stochastic(bars, 14, 3)
	for i := range k {
		if !math.IsNaN(k[i]) || !math.IsNaN(d[i]) {
			t.Fatalf("flat window must leave %%K/%%D undefined at %d", i)
		}
	}
}

func TestStochastic_Range(t *testing.T) {
	bars := makeBars(trendingCloses(40))
	k, d := Stochastic(bars, 14, 3)
	for i := 13; i < len(bars); i++ {
		if math.IsNaN(k[i]) {
			continue
		}
		if k[i] < 0 || k[i] > 100 {
			t.Errorf("%%K out of range at %d: %v", i, k[i])
		}
	}
	if math.IsNaN(d[20]) {
		t.Error("%D should be defined once three %K values exist")
	}
}

func TestATR_PositiveAfterWarmup(t *testing.T) {
	bars := makeBars(trendingCloses(40))
	out := ATRSeries(bars, 14)
	for i := 0; i < 13; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN during warm-up", i)
		}
	}
	for i := 13; i < len(bars); i++ {
		if math.IsNaN(out[i]) || out[i] <= 0 {
			t.Errorf("ATR must be positive at %d: %v", i, out[i])
		}
	}
}

func TestOBV_Direction(t *testing.T) {
	bars := makeBars([]float64{100, 101, 101, 99})
	out := OBVSeries(bars)
	want := []float64{1000, 2000, 2000, 1000}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("OBV[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestAddIndicators_DropsInvalidRows(t *testing.T) {
	bars := makeBars(trendingCloses(30))
	bars[5].Close = math.NaN()
	bars[10].Low = 0
	rows := AddIndicators(bars)
	if len(rows) != 28 {
		t.Fatalf("expected 28 rows after dropping invalid bars, got %d", len(rows))
	}
}

func TestAddIndicators_Idempotent(t *testing.T) {
	bars := makeBars(trendingCloses(250))
	a := AddIndicators(bars)
	b := AddIndicators(bars)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !sameBar(a[i], b[i]) {
			t.Fatalf("row %d differs between runs", i)
		}
	}
	// With 250 bars even the 200-period MA must be defined at the tail.
	last := a[len(a)-1]
	for name, v := range map[string]float64{
		"SMA20": last.SMA20, "EMA12": last.EMA12, "MA50": last.MA50,
		"MA200": last.MA200, "BBUpper": last.BBUpper, "BBLower": last.BBLower,
		"RSI": last.RSI, "MACD": last.MACD, "MACDSignal": last.MACDSignal,
		"StochD": last.StochD, "ATR": last.ATR, "OBV": last.OBV,
	} {
		if math.IsNaN(v) {
			t.Errorf("%s undefined at tail of long series", name)
		}
	}
}

func sameBar(a, b model.IndicatorBar) bool {
	eq := func(x, y float64) bool {
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y
	}
	return eq(a.SMA20, b.SMA20) && eq(a.EMA12, b.EMA12) &&
		eq(a.MA50, b.MA50) && eq(a.MA200, b.MA200) &&
		eq(a.BBMiddle, b.BBMiddle) && eq(a.BBUpper, b.BBUpper) && eq(a.BBLower, b.BBLower) &&
		eq(a.RSI, b.RSI) && eq(a.MACD, b.MACD) && eq(a.MACDSignal, b.MACDSignal) &&
		eq(a.MACDDiff, b.MACDDiff) && eq(a.StochK, b.StochK) && eq(a.StochD, b.StochD) &&
		eq(a.ATR, b.ATR) && eq(a.OBV, b.OBV)
}
