// Package session runs the trading cycle: gather data, decide, size
// the order, place it, persist the executed trade, and notify.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"CoinPilot/internal/broker"
	"CoinPilot/internal/calculator"
	"CoinPilot/internal/collector"
	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
	"CoinPilot/internal/notifier"
	"CoinPilot/internal/strategy"
)

// Allocation is one traded market with its share of the total cash
// balance, in percent.
type Allocation struct {
	Market     string
	Symbol     string
	Allocation decimal.Decimal
}

// Session owns the per-cycle trading pipeline for a set of markets.
// Cumulative buy amounts are tracked per symbol so a market never
// spends more than its allocation; a sell resets its counter.
type Session struct {
	Broker    broker.Broker
	Ledger    ledger.Ledger
	Notifier  notifier.Notifier
	Advisor   Advisor
	Collector *collector.Collector

	Markets        []Allocation
	FeeRate        decimal.Decimal
	MinOrder       decimal.Decimal
	CandleInterval string
	CandleCount    int
	StateFile      string

	mu         sync.Mutex
	cumulative map[string]decimal.Decimal
	inFlight   atomic.Bool
}

// Advisor produces a trade decision from a full market snapshot. Nil
// means the crossover strategy decides alone.
type Advisor interface {
	Decide(ctx context.Context, snap *model.MarketSnapshot, recent []ledger.TradeRecord, reflection string) (model.Decision, error)
	Reflect(ctx context.Context, recent []ledger.TradeRecord, snap *model.MarketSnapshot) (string, error)
}

// New creates a Session with the exchange defaults for fee rate,
// minimum order size, and candle window.
func New(b broker.Broker, l ledger.Ledger, n notifier.Notifier, markets []Allocation) *Session {
	s := &Session{
		Broker:         b,
		Ledger:         l,
		Notifier:       n,
		Markets:        markets,
		FeeRate:        decimal.NewFromFloat(0.0005),
		MinOrder:       decimal.NewFromInt(5000),
		CandleInterval: "minute5",
		CandleCount:    100,
		cumulative:     map[string]decimal.Decimal{},
	}
	return s
}

// RestoreState loads the cumulative buy amounts saved by a previous run.
func (s *Session) RestoreState(stateFile string) error {
	state, err := LoadState(stateFile)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	s.mu.Lock()
	s.cumulative = state.CumulativeBuys
	s.mu.Unlock()
	s.StateFile = stateFile
	return nil
}

// TryCycle runs one cycle unless the previous one is still in flight,
// in which case it skips and logs. Used as the scheduler entry point so
// a slow cycle never stacks on top of itself.
func (s *Session) TryCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Println("[WARN] previous trading cycle still running, skipping this tick")
		return
	}
	defer s.inFlight.Store(false)

	for _, m := range s.Markets {
		if err := s.CycleMarket(ctx, m); err != nil {
			log.Printf("[ERROR] cycle %s: %v", m.Market, err)
			s.trySend(ctx, notifier.FormatCycleError(m.Market, err))
		}
	}
	s.persistState()
}

// CycleMarket runs the pipeline for one market: data, decision, order
// sizing, placement, ledger write, notification. Hold decisions and
// failed orders are never persisted.
func (s *Session) CycleMarket(ctx context.Context, m Allocation) error {
	start := time.Now()

	decision, snap, err := s.decide(ctx, m)
	if err != nil {
		return err
	}
	if decision.Action == model.ActionHold {
		log.Printf("[INFO] %s: hold (%s)", m.Market, orDash(decision.Reason))
		return nil
	}
	log.Printf("[INFO] %s: %s %.0f%% (%s)", m.Market, decision.Action, decision.Percentage, decision.Reason)

	executed, soldVolume, err := s.execute(m, decision)
	if err != nil {
		// Order failures degrade the cycle: report, keep the loop alive,
		// and leave no trade row behind.
		log.Printf("[ERROR] order %s %s: %v", decision.Action, m.Market, err)
		s.trySend(ctx, fmt.Sprintf("Order failed: %s %s: %v", decision.Action, m.Market, err))
		return nil
	}
	if !executed {
		return nil
	}

	rec, err := s.buildTradeRecord(m, decision, soldVolume, start)
	if err != nil {
		return err
	}
	if s.Advisor != nil && snap != nil {
		rec.Reflection = s.reflect(ctx, snap)
	}
	if _, err := s.Ledger.Record(rec); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}

	s.trySend(ctx, notifier.FormatTradeReport(rec))
	return nil
}

// decide picks the decision source: the advisory service when
// configured, the crossover strategy otherwise. An advisor failure is
// a hold, not an error; the strategy remains usable next cycle.
func (s *Session) decide(ctx context.Context, m Allocation) (model.Decision, *model.MarketSnapshot, error) {
	if s.Advisor == nil {
		bars, err := s.Broker.Candles(m.Market, s.CandleInterval, s.CandleCount)
		if err != nil {
			return model.Hold(), nil, fmt.Errorf("fetch candles: %w", err)
		}
		d := strategy.Decide(calculator.AddIndicators(bars))
		if d.Action != model.ActionHold && d.Percentage == 0 {
			d.Percentage = 100
		}
		return d, nil, nil
	}

	snap, err := s.Collector.Snapshot(m.Market, 60, 48)
	if err != nil {
		return model.Hold(), nil, fmt.Errorf("collect snapshot: %w", err)
	}
	recent, err := s.Ledger.Recent(7*24*time.Hour, ledger.Descending)
	if err != nil {
		return model.Hold(), nil, fmt.Errorf("load recent trades: %w", err)
	}
	d, err := s.Advisor.Decide(ctx, snap, recent, latestReflection(recent))
	if err != nil {
		log.Printf("[WARN] advisor decision for %s rejected, holding: %v", m.Market, err)
		return model.Hold(), snap, nil
	}
	return d, snap, nil
}

// execute sizes and places the order. Returns executed=false when the
// order was skipped without error (below the exchange minimum). For a
// sell it also returns the volume sold, for profit accounting.
func (s *Session) execute(m Allocation, d model.Decision) (bool, decimal.Decimal, error) {
	price, err := s.Broker.CurrentPrice(m.Market)
	if err != nil {
		return false, decimal.Zero, fmt.Errorf("fetch price: %w", err)
	}
	pct := decimal.NewFromFloat(d.Percentage).Div(decimal.NewFromInt(100))

	switch d.Action {
	case model.ActionBuy:
		cash, err := s.Broker.CashBalance()
		if err != nil {
			return false, decimal.Zero, fmt.Errorf("fetch cash balance: %w", err)
		}
		budget := s.remainingBudget(m, cash)
		if cash.LessThan(budget) {
			budget = cash
		}
		spend := budget.Mul(pct).Mul(decimal.NewFromInt(1).Sub(s.FeeRate))
		if spend.LessThan(s.MinOrder) {
			s.skip(m.Symbol, d, fmt.Sprintf("buy amount %s below minimum %s", spend.StringFixed(0), s.MinOrder.StringFixed(0)))
			return false, decimal.Zero, nil
		}
		if _, err := s.Broker.MarketBuy(m.Market, spend); err != nil {
			return false, decimal.Zero, err
		}
		s.addCumulative(m.Symbol, spend)
		return true, decimal.Zero, nil

	case model.ActionSell:
		volume, err := s.Broker.AssetBalance(m.Symbol)
		if err != nil {
			return false, decimal.Zero, fmt.Errorf("fetch asset balance: %w", err)
		}
		volume = volume.Mul(pct)
		if volume.Mul(price).LessThan(s.MinOrder) {
			s.skip(m.Symbol, d, fmt.Sprintf("sell value %s below minimum %s", volume.Mul(price).StringFixed(0), s.MinOrder.StringFixed(0)))
			return false, decimal.Zero, nil
		}
		if _, err := s.Broker.MarketSell(m.Market, volume); err != nil {
			return false, decimal.Zero, err
		}
		s.resetCumulative(m.Symbol)
		return true, volume, nil
	}
	return false, decimal.Zero, nil
}

// buildTradeRecord reads post-trade balances and computes realized
// profit on a sell. The caller appends the record to the ledger; a
// persistence failure propagates because the trade happened and must
// not vanish quietly.
func (s *Session) buildTradeRecord(m Allocation, d model.Decision, soldVolume decimal.Decimal, start time.Time) (*ledger.TradeRecord, error) {
	cash, err := s.Broker.CashBalance()
	if err != nil {
		return nil, fmt.Errorf("fetch post-trade cash: %w", err)
	}
	asset, err := s.Broker.AssetBalance(m.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch post-trade balance: %w", err)
	}
	avgBuy, err := s.Broker.AvgBuyPrice(m.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch avg buy price: %w", err)
	}
	price, err := s.Broker.CurrentPrice(m.Market)
	if err != nil {
		return nil, fmt.Errorf("fetch post-trade price: %w", err)
	}

	rec := &ledger.TradeRecord{
		Timestamp:    time.Now(),
		Decision:     d.Action,
		Percentage:   d.Percentage,
		Reason:       d.Reason,
		Symbol:       m.Symbol,
		AssetBalance: asset.InexactFloat64(),
		CashBalance:  cash.InexactFloat64(),
		AvgBuyPrice:  avgBuy.InexactFloat64(),
		Price:        price.InexactFloat64(),
		TradeStart:   start,
		TradeEnd:     time.Now(),
	}
	if d.Action == model.ActionSell && avgBuy.IsPositive() {
		diff := price.Sub(avgBuy)
		rec.ProfitAmount.Valid = true
		rec.ProfitAmount.Float64 = diff.Mul(soldVolume).InexactFloat64()
		rec.ProfitRate.Valid = true
		rec.ProfitRate.Float64 = diff.Div(avgBuy).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return rec, nil
}

// reflect asks the advisor to critique recent trades. The text is
// stored on the trade row and fed into the next decision prompt. Best
// effort: a failure only logs and returns empty.
func (s *Session) reflect(ctx context.Context, snap *model.MarketSnapshot) string {
	recent, err := s.Ledger.Recent(7*24*time.Hour, ledger.Descending)
	if err != nil {
		log.Printf("[WARN] reflection skipped, recent trades unavailable: %v", err)
		return ""
	}
	text, err := s.Advisor.Reflect(ctx, recent, snap)
	if err != nil {
		log.Printf("[WARN] reflection failed: %v", err)
		return ""
	}
	return text
}

// remainingBudget is the symbol's allocation of total cash minus what
// it has already committed since its last sell.
func (s *Session) remainingBudget(m Allocation, cash decimal.Decimal) decimal.Decimal {
	s.mu.Lock()
	spent := s.cumulative[m.Symbol]
	s.mu.Unlock()

	total := cash.Add(s.totalCommitted())
	budget := total.Mul(m.Allocation).Div(decimal.NewFromInt(100)).Sub(spent)
	if budget.IsNegative() {
		return decimal.Zero
	}
	return budget
}

func (s *Session) totalCommitted() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, v := range s.cumulative {
		sum = sum.Add(v)
	}
	return sum
}

func (s *Session) addCumulative(symbol string, amount decimal.Decimal) {
	s.mu.Lock()
	s.cumulative[symbol] = s.cumulative[symbol].Add(amount)
	s.mu.Unlock()
}

func (s *Session) resetCumulative(symbol string) {
	s.mu.Lock()
	s.cumulative[symbol] = decimal.Zero
	s.mu.Unlock()
}

func (s *Session) persistState() {
	if s.StateFile == "" {
		return
	}
	s.mu.Lock()
	buys := make(map[string]decimal.Decimal, len(s.cumulative))
	for k, v := range s.cumulative {
		buys[k] = v
	}
	s.mu.Unlock()
	if err := SaveState(s.StateFile, &State{CumulativeBuys: buys}); err != nil {
		log.Printf("[ERROR] save session state: %v", err)
	}
}

func (s *Session) skip(symbol string, d model.Decision, detail string) {
	log.Printf("[INFO] %s: %s", symbol, detail)
	if err := s.Notifier.Send(notifier.FormatSkip(symbol, d, detail)); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

func (s *Session) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

// latestReflection returns the newest stored reflection. recent must
// be in descending order.
func latestReflection(recent []ledger.TradeRecord) string {
	for _, r := range recent {
		if r.Reflection != "" {
			return r.Reflection
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "no signal"
	}
	return s
}
