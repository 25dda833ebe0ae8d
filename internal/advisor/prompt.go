package advisor

import (
	"encoding/json"
	"fmt"

	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
)

const decisionInstructions = `You are an expert in cryptocurrency investing. Analyze the provided data and determine whether to buy, sell, or hold at the current moment. Consider:

- Technical indicators and market data
- Recent news headlines and their potential impact
- The Fear and Greed Index and its implications
- Recent trading performance and reflection

Respond with a JSON object only:

{
  "decision": "buy" | "sell" | "hold",
  "percentage": <integer 1-100 for buy/sell, exactly 0 for hold>,
  "reason": "<short explanation>"
}

The percentage reflects the strength of your conviction.`

// promptBar is the compact per-bar shape sent to the model.
type promptBar struct {
	Time   string  `json:"t"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	RSI    float64 `json:"rsi,omitempty"`
	MACD   float64 `json:"macd,omitempty"`
	BBUp   float64 `json:"bb_upper,omitempty"`
	BBLow  float64 `json:"bb_lower,omitempty"`
}

func tailBars(bars []model.IndicatorBar, n int) []promptBar {
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	out := make([]promptBar, len(bars))
	for i, b := range bars {
		pb := promptBar{
			Time:   b.Time.Format("2006-01-02T15:04"),
			Close:  b.Close,
			Volume: b.Volume,
		}
		// NaN is not valid JSON; leave warm-up fields at their zero
		// value so omitempty drops them.
		if model.Defined(b.RSI) {
			pb.RSI = b.RSI
		}
		if model.Defined(b.MACD) {
			pb.MACD = b.MACD
		}
		if model.Defined(b.BBUpper) {
			pb.BBUp = b.BBUpper
		}
		if model.Defined(b.BBLower) {
			pb.BBLow = b.BBLower
		}
		out[i] = pb
	}
	return out
}

type promptTrade struct {
	Timestamp string  `json:"timestamp"`
	Decision  string  `json:"decision"`
	Percent   float64 `json:"percentage"`
	Symbol    string  `json:"symbol"`
	Cash      float64 `json:"cash_balance"`
	Asset     float64 `json:"asset_balance"`
	Price     float64 `json:"price"`
	Reason    string  `json:"reason"`
}

func promptTrades(recent []ledger.TradeRecord) []promptTrade {
	out := make([]promptTrade, len(recent))
	for i, r := range recent {
		out[i] = promptTrade{
			Timestamp: r.Timestamp.Format("2006-01-02T15:04:05"),
			Decision:  string(r.Decision),
			Percent:   r.Percentage,
			Symbol:    r.Symbol,
			Cash:      r.CashBalance,
			Asset:     r.AssetBalance,
			Price:     r.Price,
			Reason:    r.Reason,
		}
	}
	return out
}

func buildDecisionPrompt(snap *model.MarketSnapshot, recent []ledger.TradeRecord, reflection string) ([]chatMessage, error) {
	data := map[string]interface{}{
		"snapshot":      snap,
		"daily_bars":    tailBars(snap.Daily, 60),
		"hourly_bars":   tailBars(snap.Hourly, 48),
		"recent_trades": promptTrades(recent),
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal market data: %w", err)
	}

	system := decisionInstructions
	if reflection != "" {
		system += "\n\nRecent trading reflection:\n" + reflection
	}
	return []chatMessage{
		{Role: "user", Content: system},
		{Role: "user", Content: string(payload)},
	}, nil
}

func buildReflectionPrompt(recent []ledger.TradeRecord, snap *model.MarketSnapshot) ([]chatMessage, error) {
	performance := ledger.Performance(recent)
	trades, err := json.Marshal(promptTrades(recent))
	if err != nil {
		return nil, fmt.Errorf("marshal trades: %w", err)
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	content := fmt.Sprintf(`You are a trading assistant reviewing recent performance to improve future decisions.

Recent trading data:
%s

Current market data:
%s

Overall performance over the window: %.2f%%

Provide a brief reflection on the recent decisions, what worked and what did not, and suggestions for improvement. Limit your response to 250 words.`,
		trades, snapJSON, performance)

	return []chatMessage{{Role: "user", Content: content}}, nil
}
