package ledger

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"CoinPilot/internal/model"
)

func openTestLedger(t *testing.T) *SQLite {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordRoundTrip(t *testing.T) {
	l := openTestLedger(t)

	now := time.Now().Truncate(time.Second)
	rec := &TradeRecord{
		Timestamp:    now,
		Decision:     model.ActionSell,
		Percentage:   40,
		Reason:       "MACD line crossed below signal line.",
		Symbol:       "BTC",
		AssetBalance: 0.5,
		CashBalance:  250000,
		AvgBuyPrice:  90000000,
		Price:        95000000,
		ProfitAmount: sql.NullFloat64{Float64: 2500000, Valid: true},
		ProfitRate:   sql.NullFloat64{Float64: 5.55, Valid: true},
		TradeStart:   now.Add(-2 * time.Second),
		TradeEnd:     now.Add(-1 * time.Second),
		Reflection:   "sold into strength",
	}
	id, err := l.Record(rec)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id == 0 || rec.ID != id {
		t.Fatalf("expected assigned id, got %d/%d", id, rec.ID)
	}

	got, err := l.Recent(time.Hour, Ascending)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	g := got[0]
	if !g.Timestamp.Equal(now) {
		t.Errorf("timestamp: got %v want %v", g.Timestamp, now)
	}
	if g.Decision != rec.Decision || g.Percentage != rec.Percentage ||
		g.Reason != rec.Reason || g.Symbol != rec.Symbol ||
		g.AssetBalance != rec.AssetBalance || g.CashBalance != rec.CashBalance ||
		g.AvgBuyPrice != rec.AvgBuyPrice || g.Price != rec.Price ||
		g.ProfitAmount != rec.ProfitAmount || g.ProfitRate != rec.ProfitRate ||
		g.Reflection != rec.Reflection {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", g, *rec)
	}
	if !g.TradeStart.Equal(rec.TradeStart) || !g.TradeEnd.Equal(rec.TradeEnd) {
		t.Errorf("trade times mismatch: %v/%v vs %v/%v",
			g.TradeStart, g.TradeEnd, rec.TradeStart, rec.TradeEnd)
	}
}

func TestRecentWindowAndOrder(t *testing.T) {
	l := openTestLedger(t)

	times := []time.Time{
		time.Now().Add(-72 * time.Hour),
		time.Now().Add(-24 * time.Hour),
		time.Now().Add(-1 * time.Hour),
	}
	for i, ts := range times {
		if _, err := l.Record(&TradeRecord{
			Timestamp: ts, Decision: model.ActionBuy, Symbol: "BTC",
			CashBalance: float64(i),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := l.Recent(48*time.Hour, Ascending)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("48h window should exclude the 72h-old record, got %d", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("ascending order violated")
	}

	all, err := l.Recent(365*24*time.Hour, Descending)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("wide window must cover the full history, got %d", len(all))
	}
	if !all[0].Timestamp.After(all[2].Timestamp) {
		t.Error("descending order violated")
	}
}

func TestOptionalFieldsStayAbsent(t *testing.T) {
	l := openTestLedger(t)

	if _, err := l.Record(&TradeRecord{
		Decision: model.ActionBuy, Symbol: "XRP", CashBalance: 100000,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := l.Recent(time.Hour, Ascending)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	g := got[0]
	if g.ProfitAmount.Valid || g.ProfitRate.Valid {
		t.Error("profit fields must stay NULL for a buy")
	}
	if !g.TradeStart.IsZero() || !g.TradeEnd.IsZero() {
		t.Error("unset trade times must read back as zero")
	}
}

func TestPerformance(t *testing.T) {
	asc := []TradeRecord{
		{CashBalance: 1000000, AssetBalance: 0, Price: 50000000},
		{CashBalance: 100000, AssetBalance: 0.02, Price: 60000000},
	}
	got := Performance(asc)
	want := (100000 + 0.02*60000000 - 1000000) / 1000000 * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("performance: got %v want %v", got, want)
	}
}

func TestPerformance_DescendingWindow(t *testing.T) {
	now := time.Now()
	desc := []TradeRecord{
		{Timestamp: now, CashBalance: 2000000},
		{Timestamp: now.Add(-time.Hour), CashBalance: 1000000},
	}
	if got := Performance(desc); math.Abs(got-100) > 1e-9 {
		t.Errorf("descending window: got %v want 100", got)
	}
	asc := []TradeRecord{desc[1], desc[0]}
	if got := Performance(asc); math.Abs(got-100) > 1e-9 {
		t.Errorf("ascending window: got %v want 100", got)
	}
}

func TestPerformance_ZeroInitialIsNonFinite(t *testing.T) {
	trades := []TradeRecord{
		{CashBalance: 0, AssetBalance: 0, Price: 0},
		{CashBalance: 500000, AssetBalance: 0, Price: 0},
	}
	if got := Performance(trades); !math.IsInf(got, 1) {
		t.Errorf("zero initial valuation must report non-finite, got %v", got)
	}
}

func TestPerformance_Empty(t *testing.T) {
	if got := Performance(nil); got != 0 {
		t.Errorf("empty history should be 0%%, got %v", got)
	}
}
