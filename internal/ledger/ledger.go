// Package ledger persists the append-only history of executed trades.
// It is the sole source of historical performance: rows are inserted
// once per executed decision and never mutated or deleted.
package ledger

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"CoinPilot/internal/model"

	_ "modernc.org/sqlite"
)

// TradeRecord is one ledger row. ProfitAmount and ProfitRate are only
// set for sells with a known average buy price; Reflection is only set
// when the advisory service produced one.
type TradeRecord struct {
	ID           int64
	Timestamp    time.Time
	Decision     model.Action
	Percentage   float64
	Reason       string
	Symbol       string
	AssetBalance float64
	CashBalance  float64
	AvgBuyPrice  float64
	Price        float64
	ProfitAmount sql.NullFloat64
	ProfitRate   sql.NullFloat64
	TradeStart   time.Time
	TradeEnd     time.Time
	Reflection   string
}

// Valuation is the account value at the moment this record was written:
// cash plus asset holdings at the recorded price.
func (r *TradeRecord) Valuation() float64 {
	return r.CashBalance + r.AssetBalance*r.Price
}

// Order selects the scan direction of Recent.
type Order string

const (
	Ascending  Order = "ASC"
	Descending Order = "DESC"
)

// Ledger is the append/query contract the trading session depends on.
type Ledger interface {
	Record(rec *TradeRecord) (int64, error)
	Recent(since time.Duration, order Order) ([]TradeRecord, error)
	Close() error
}

// SQLite implements Ledger on a local SQLite database.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database and creates the trades table if
// absent. A failure here is fatal to the caller: trading without a
// working ledger would silently lose history.
func Open(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the dashboard can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	l := &SQLite{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] trade ledger opened: %s", dbPath)
	return l, nil
}

func (l *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			decision      TEXT NOT NULL,
			percentage    REAL,
			reason        TEXT,
			symbol        TEXT,
			asset_balance REAL,
			cash_balance  REAL,
			avg_buy_price REAL,
			price         REAL,
			profit_amount REAL,
			profit_rate   REAL,
			trade_start   INTEGER,
			trade_end     INTEGER,
			reflection    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

// Record appends one trade row and returns its id. Errors propagate to
// the caller; a lost record would corrupt the performance history.
func (l *SQLite) Record(rec *TradeRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	res, err := l.db.Exec(`INSERT INTO trades
		(timestamp, decision, percentage, reason, symbol,
		 asset_balance, cash_balance, avg_buy_price, price,
		 profit_amount, profit_rate, trade_start, trade_end, reflection)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.Timestamp.Unix(), string(rec.Decision), rec.Percentage, rec.Reason, rec.Symbol,
		rec.AssetBalance, rec.CashBalance, rec.AvgBuyPrice, rec.Price,
		rec.ProfitAmount, rec.ProfitRate, unixOrZero(rec.TradeStart), unixOrZero(rec.TradeEnd),
		rec.Reflection,
	)
	if err != nil {
		return 0, fmt.Errorf("insert trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("trade id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Recent returns all trades newer than now-since in the given order.
// A window large enough to cover the first record yields the complete
// history.
func (l *SQLite) Recent(since time.Duration, order Order) ([]TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-since).Unix()
	rows, err := l.db.Query(fmt.Sprintf(`SELECT
		id, timestamp, decision, percentage, reason, symbol,
		asset_balance, cash_balance, avg_buy_price, price,
		profit_amount, profit_rate, trade_start, trade_end, reflection
		FROM trades WHERE timestamp > ? ORDER BY timestamp %s, id %s`, order, order),
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var ts, start, end int64
		var decision string
		if err := rows.Scan(&rec.ID, &ts, &decision, &rec.Percentage, &rec.Reason, &rec.Symbol,
			&rec.AssetBalance, &rec.CashBalance, &rec.AvgBuyPrice, &rec.Price,
			&rec.ProfitAmount, &rec.ProfitRate, &start, &end, &rec.Reflection); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.Decision = model.Action(decision)
		if start != 0 {
			rec.TradeStart = time.Unix(start, 0)
		}
		if end != 0 {
			rec.TradeEnd = time.Unix(end, 0)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *SQLite) Close() error {
	log.Println("[INFO] closing trade ledger")
	return l.db.Close()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
