// Package broker provides access to the exchange: balances, prices,
// candles, and market order placement.
package broker

import (
	"github.com/shopspring/decimal"

	"CoinPilot/internal/model"
)

// Order is the exchange's acknowledgement of a placed order.
type Order struct {
	UUID  string `json:"uuid"`
	Side  string `json:"side"`
	State string `json:"state"`
}

// Broker is the narrow gateway the trading session talks to. Money is
// decimal throughout; the exchange reports balances as numeric strings
// and float arithmetic on order amounts invites rounding surprises.
type Broker interface {
	// CashBalance returns the available quote-currency balance.
	CashBalance() (decimal.Decimal, error)
	// AssetBalance returns the available balance of one asset symbol.
	AssetBalance(symbol string) (decimal.Decimal, error)
	// AvgBuyPrice returns the recorded average buy price of one asset.
	AvgBuyPrice(symbol string) (decimal.Decimal, error)
	// CurrentPrice returns the latest trade price for a market.
	CurrentPrice(market string) (decimal.Decimal, error)
	// Candles returns up to count bars for a market at the given
	// interval (e.g. "minute5", "minute60", "day"), ascending by time.
	Candles(market, interval string, count int) ([]model.OHLCV, error)
	// Orderbook returns the current bid/ask ladder for a market.
	Orderbook(market string) (*model.Orderbook, error)
	// MarketBuy spends cashAmount of quote currency at market price.
	MarketBuy(market string, cashAmount decimal.Decimal) (*Order, error)
	// MarketSell sells volume units of the base asset at market price.
	MarketSell(market string, volume decimal.Decimal) (*Order, error)
	Name() string
}
