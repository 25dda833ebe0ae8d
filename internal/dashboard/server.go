// Package dashboard serves a small read-only web view over the trade
// ledger: recent trades and a profit summary.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
)

// Server exposes the ledger over HTTP. It only ever reads; the bot
// process owns all writes.
type Server struct {
	echo           *echo.Echo
	ledger         ledger.Ledger
	initialBalance float64
}

// NewServer creates the dashboard server.
func NewServer(l ledger.Ledger, initialBalance float64) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, ledger: l, initialBalance: initialBalance}
	e.GET("/", s.index)
	e.GET("/api/summary", s.summary)
	e.GET("/api/trades", s.trades)
	return s
}

// Start begins serving in the background.
func (s *Server) Start(addr string) {
	go func() {
		log.Printf("[INFO] dashboard listening on %s", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] dashboard server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type tradeResponse struct {
	ID           int64    `json:"id"`
	Timestamp    string   `json:"timestamp"`
	Decision     string   `json:"decision"`
	Percentage   float64  `json:"percentage"`
	Reason       string   `json:"reason"`
	Symbol       string   `json:"symbol"`
	AssetBalance float64  `json:"asset_balance"`
	CashBalance  float64  `json:"cash_balance"`
	AvgBuyPrice  float64  `json:"avg_buy_price"`
	Price        float64  `json:"price"`
	ProfitAmount *float64 `json:"profit_amount,omitempty"`
	ProfitRate   *float64 `json:"profit_rate,omitempty"`
	Reflection   string   `json:"reflection,omitempty"`
}

type summaryResponse struct {
	WindowHours     int     `json:"window_hours"`
	TradeCount      int     `json:"trade_count"`
	SellCount       int     `json:"sell_count"`
	TotalSellProfit float64 `json:"total_sell_profit"`
	Performance     string  `json:"performance_pct"`
	OverallReturn   *string `json:"overall_return_pct,omitempty"`
}

func (s *Server) trades(c echo.Context) error {
	window := windowParam(c)
	recs, err := s.ledger.Recent(window, ledger.Descending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]tradeResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toResponse(&recs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) summary(c echo.Context) error {
	window := windowParam(c)
	recs, err := s.ledger.Recent(window, ledger.Ascending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := summaryResponse{
		WindowHours: int(window / time.Hour),
		TradeCount:  len(recs),
		Performance: formatPct(ledger.Performance(recs)),
	}
	for i := range recs {
		if recs[i].Decision == model.ActionSell && recs[i].ProfitAmount.Valid {
			resp.SellCount++
			resp.TotalSellProfit += recs[i].ProfitAmount.Float64
		}
	}
	if s.initialBalance > 0 && len(recs) > 0 {
		final := recs[len(recs)-1].Valuation()
		overall := formatPct((final - s.initialBalance) / s.initialBalance * 100)
		resp.OverallReturn = &overall
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) index(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

func toResponse(rec *ledger.TradeRecord) tradeResponse {
	r := tradeResponse{
		ID:           rec.ID,
		Timestamp:    rec.Timestamp.Format(time.RFC3339),
		Decision:     string(rec.Decision),
		Percentage:   rec.Percentage,
		Reason:       rec.Reason,
		Symbol:       rec.Symbol,
		AssetBalance: rec.AssetBalance,
		CashBalance:  rec.CashBalance,
		AvgBuyPrice:  rec.AvgBuyPrice,
		Price:        rec.Price,
		Reflection:   rec.Reflection,
	}
	if rec.ProfitAmount.Valid {
		v := rec.ProfitAmount.Float64
		r.ProfitAmount = &v
	}
	if rec.ProfitRate.Valid {
		v := rec.ProfitRate.Float64
		r.ProfitRate = &v
	}
	return r
}

// windowParam reads ?hours= with a 7-day default.
func windowParam(c echo.Context) time.Duration {
	if v := c.QueryParam("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return 7 * 24 * time.Hour
}

// formatPct renders a percentage, keeping +Inf readable in JSON.
func formatPct(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>CoinPilot</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #111; color: #ddd; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { padding: 6px 10px; border-bottom: 1px solid #333; text-align: left; }
.buy { color: #4c8; } .sell { color: #e66; }
#summary { font-size: 1.1em; }
</style>
</head>
<body>
<h1>CoinPilot</h1>
<div id="summary">loading…</div>
<table id="trades"><thead><tr>
<th>Time</th><th>Symbol</th><th>Action</th><th>%</th><th>Price</th><th>Profit</th><th>Reason</th>
</tr></thead><tbody></tbody></table>
<script>
fetch('/api/summary').then(r => r.json()).then(s => {
  document.getElementById('summary').textContent =
    s.trade_count + ' trades / ' + s.window_hours + 'h, sell profit ' +
    s.total_sell_profit.toFixed(0) + ' KRW, window performance ' + s.performance_pct + '%';
});
fetch('/api/trades').then(r => r.json()).then(rows => {
  const body = document.querySelector('#trades tbody');
  rows.forEach(t => {
    const tr = document.createElement('tr');
    const profit = t.profit_amount === undefined ? '' : t.profit_amount.toFixed(0);
    tr.innerHTML = '<td>' + t.timestamp + '</td><td>' + t.symbol +
      '</td><td class="' + t.decision + '">' + t.decision + '</td><td>' + t.percentage +
      '</td><td>' + t.price + '</td><td>' + profit + '</td><td>' + t.reason + '</td>';
    body.appendChild(tr);
  });
});
</script>
</body>
</html>`
