// Package collector assembles the market snapshot one cycle feeds to
// the advisory service: account state, orderbook, indicator-augmented
// candles, and the auxiliary sentiment/news feeds.
package collector

import (
	"fmt"
	"log"
	"strings"
	"time"

	"CoinPilot/internal/broker"
	"CoinPilot/internal/calculator"
	"CoinPilot/internal/model"
)

// Collector fetches market data through the broker plus the optional
// auxiliary feeds. A failing auxiliary feed degrades the snapshot
// (empty field, warning log); it never fails the cycle.
type Collector struct {
	Broker broker.Broker
	Feeds  *Feeds
}

// NewCollector creates a Collector. feeds may be nil when no auxiliary
// feeds are configured.
func NewCollector(b broker.Broker, feeds *Feeds) *Collector {
	return &Collector{Broker: b, Feeds: feeds}
}

// Snapshot builds the full market snapshot for one market. Broker data
// is required and fails the snapshot; sentiment and news are optional.
func (c *Collector) Snapshot(market string, dailyCount, hourlyCount int) (*model.MarketSnapshot, error) {
	symbol := SymbolOf(market)

	cash, err := c.Broker.CashBalance()
	if err != nil {
		return nil, fmt.Errorf("fetch cash balance: %w", err)
	}
	asset, err := c.Broker.AssetBalance(symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s balance: %w", symbol, err)
	}
	avgBuy, err := c.Broker.AvgBuyPrice(symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s avg buy price: %w", symbol, err)
	}
	price, err := c.Broker.CurrentPrice(market)
	if err != nil {
		return nil, fmt.Errorf("fetch current price: %w", err)
	}

	daily, err := c.Broker.Candles(market, "day", dailyCount)
	if err != nil {
		return nil, fmt.Errorf("fetch daily candles: %w", err)
	}
	hourly, err := c.Broker.Candles(market, "minute60", hourlyCount)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly candles: %w", err)
	}

	snap := &model.MarketSnapshot{
		Market:       market,
		FetchedAt:    time.Now(),
		CashBalance:  cash.InexactFloat64(),
		AssetBalance: asset.InexactFloat64(),
		AvgBuyPrice:  avgBuy.InexactFloat64(),
		CurrentPrice: price.InexactFloat64(),
		Daily:        calculator.AddIndicators(daily),
		Hourly:       calculator.AddIndicators(hourly),
	}

	// Optional parts from here on: log and continue without them.
	if ob, err := c.Broker.Orderbook(market); err != nil {
		log.Printf("[WARN] orderbook fetch failed for %s: %v", market, err)
	} else {
		snap.Orderbook = ob
	}

	if c.Feeds != nil {
		if fg, err := c.Feeds.FearGreed(); err != nil {
			log.Printf("[WARN] fear & greed index unavailable: %v", err)
		} else {
			snap.FearGreed = fg
		}
		if news, err := c.Feeds.News(symbol); err != nil {
			log.Printf("[WARN] news headlines unavailable: %v", err)
		} else {
			snap.News = news
		}
	}

	return snap, nil
}

// SymbolOf strips the quote-currency prefix from a market identifier:
// "KRW-BTC" -> "BTC".
func SymbolOf(market string) string {
	if i := strings.Index(market, "-"); i >= 0 {
		return market[i+1:]
	}
	return market
}
