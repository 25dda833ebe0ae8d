// Package strategy turns an indicator-augmented bar series into a
// buy/sell/hold decision by detecting crossovers between the two most
// recent bars.
package strategy

import "CoinPilot/internal/model"

// Rule evaluation order is fixed; the first matching rule wins. Band
// rules are checked before MACD rules, so a simultaneous band and MACD
// crossover resolves to the band decision. A crossover that completed
// earlier than the immediately preceding bar is never detected.
const (
	reasonUpperBand = "Price crossed above upper Bollinger Band with RSI overbought."
	reasonLowerBand = "Price crossed below lower Bollinger Band with RSI oversold."
	reasonMACDUp    = "MACD line crossed above signal line."
	reasonMACDDown  = "MACD line crossed below signal line."
)

// Decide examines the last two bars of the series and returns the first
// matching crossover decision. It returns hold with an empty reason
// unless both bars carry fully defined values for every field it reads.
func Decide(bars []model.IndicatorBar) model.Decision {
	if len(bars) < 2 {
		return model.Hold()
	}
	prev := bars[len(bars)-2]
	last := bars[len(bars)-1]
	if !ready(prev) || !ready(last) {
		return model.Hold()
	}

	switch {
	case prev.Close < prev.BBUpper && last.Close >= last.BBUpper &&
		prev.RSI <= 70 && last.RSI > 70:
		return model.Decision{Action: model.ActionSell, Reason: reasonUpperBand}

	case prev.Close > prev.BBLower && last.Close <= last.BBLower &&
		prev.RSI >= 30 && last.RSI < 30:
		return model.Decision{Action: model.ActionBuy, Reason: reasonLowerBand}

	case prev.MACD <= prev.MACDSignal && last.MACD > last.MACDSignal:
		return model.Decision{Action: model.ActionBuy, Reason: reasonMACDUp}

	case prev.MACD >= prev.MACDSignal && last.MACD < last.MACDSignal:
		return model.Decision{Action: model.ActionSell, Reason: reasonMACDDown}
	}
	return model.Hold()
}

// ready reports whether every field Decide consumes is defined.
func ready(b model.IndicatorBar) bool {
	return model.Defined(b.Close) &&
		model.Defined(b.BBUpper) &&
		model.Defined(b.BBLower) &&
		model.Defined(b.RSI) &&
		model.Defined(b.MACD) &&
		model.Defined(b.MACDSignal)
}
