package model

import "time"

// OrderbookUnit is one price level of the order book.
type OrderbookUnit struct {
	AskPrice float64 `json:"ask_price"`
	BidPrice float64 `json:"bid_price"`
	AskSize  float64 `json:"ask_size"`
	BidSize  float64 `json:"bid_size"`
}

// Orderbook holds the current bid/ask ladder for a market.
type Orderbook struct {
	Market    string          `json:"market"`
	Timestamp int64           `json:"timestamp"`
	Units     []OrderbookUnit `json:"orderbook_units"`
}

// FearGreed is one reading of the crypto fear & greed index.
type FearGreed struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

// Headline is one news item title with its publication date.
type Headline struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// MarketSnapshot bundles everything the advisory service sees for one
// market in one cycle. FearGreed is nil and News empty when the
// respective feed was unavailable; an absent feed never aborts a cycle.
type MarketSnapshot struct {
	Market       string         `json:"market"`
	FetchedAt    time.Time      `json:"fetched_at"`
	CashBalance  float64        `json:"cash_balance"`
	AssetBalance float64        `json:"asset_balance"`
	AvgBuyPrice  float64        `json:"avg_buy_price"`
	CurrentPrice float64        `json:"current_price"`
	Orderbook    *Orderbook     `json:"orderbook,omitempty"`
	Daily        []IndicatorBar `json:"-"`
	Hourly       []IndicatorBar `json:"-"`
	FearGreed    *FearGreed     `json:"fear_greed,omitempty"`
	News         []Headline     `json:"news,omitempty"`
}
