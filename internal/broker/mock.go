package broker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"CoinPilot/internal/model"
)

// PlacedOrder remembers one order the mock accepted, for assertions.
type PlacedOrder struct {
	Market string
	Side   string
	Amount decimal.Decimal
}

// Mock returns controllable fixed data for development and testing.
type Mock struct {
	Cash     decimal.Decimal
	Balances map[string]decimal.Decimal
	AvgBuys  map[string]decimal.Decimal
	Prices   map[string]decimal.Decimal
	Bars     map[string][]model.OHLCV

	BuyErr  error
	SellErr error

	Orders []PlacedOrder
}

func NewMock() *Mock {
	return &Mock{
		Balances: map[string]decimal.Decimal{},
		AvgBuys:  map[string]decimal.Decimal{},
		Prices:   map[string]decimal.Decimal{},
		Bars:     map[string][]model.OHLCV{},
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) CashBalance() (decimal.Decimal, error) {
	return m.Cash, nil
}

func (m *Mock) AssetBalance(symbol string) (decimal.Decimal, error) {
	return m.Balances[symbol], nil
}

func (m *Mock) AvgBuyPrice(symbol string) (decimal.Decimal, error) {
	return m.AvgBuys[symbol], nil
}

func (m *Mock) CurrentPrice(market string) (decimal.Decimal, error) {
	p, ok := m.Prices[market]
	if !ok {
		return decimal.Zero, fmt.Errorf("mock: no price for %s", market)
	}
	return p, nil
}

func (m *Mock) Candles(market, interval string, count int) ([]model.OHLCV, error) {
	if bars, ok := m.Bars[market]; ok {
		if len(bars) > count {
			bars = bars[len(bars)-count:]
		}
		return bars, nil
	}
	price, err := m.CurrentPrice(market)
	if err != nil {
		return nil, err
	}
	base, _ := price.Float64()
	return GenerateBars(base, count), nil
}

func (m *Mock) Orderbook(market string) (*model.Orderbook, error) {
	return &model.Orderbook{Market: market, Timestamp: time.Now().UnixMilli()}, nil
}

func (m *Mock) MarketBuy(market string, cashAmount decimal.Decimal) (*Order, error) {
	if m.BuyErr != nil {
		return nil, m.BuyErr
	}
	m.Orders = append(m.Orders, PlacedOrder{Market: market, Side: "bid", Amount: cashAmount})
	return &Order{UUID: fmt.Sprintf("mock-%d", len(m.Orders)), Side: "bid", State: "done"}, nil
}

func (m *Mock) MarketSell(market string, volume decimal.Decimal) (*Order, error) {
	if m.SellErr != nil {
		return nil, m.SellErr
	}
	m.Orders = append(m.Orders, PlacedOrder{Market: market, Side: "ask", Amount: volume})
	return &Order{UUID: fmt.Sprintf("mock-%d", len(m.Orders)), Side: "ask", State: "done"}, nil
}

// GenerateBars produces a mild synthetic price drift around basePrice.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().Add(-time.Duration(count-i) * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}
