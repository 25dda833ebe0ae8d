package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
)

// FormatTradeReport renders one executed trade for the notification
// channel.
func FormatTradeReport(rec *ledger.TradeRecord) string {
	var b strings.Builder
	verb := "BUY"
	if rec.Decision == model.ActionSell {
		verb = "SELL"
	}
	fmt.Fprintf(&b, "**%s %s** @ %s\n", verb, rec.Symbol, formatAmount(rec.Price))
	fmt.Fprintf(&b, "Committed: %.0f%% | Reason: %s\n", rec.Percentage, rec.Reason)
	fmt.Fprintf(&b, "Balances after: %s %s / %s KRW",
		formatQty(rec.AssetBalance), rec.Symbol, formatAmount(rec.CashBalance))
	if rec.ProfitAmount.Valid {
		fmt.Fprintf(&b, "\nProfit: %s KRW", formatAmount(rec.ProfitAmount.Float64))
		if rec.ProfitRate.Valid {
			fmt.Fprintf(&b, " (%+.2f%%)", rec.ProfitRate.Float64)
		}
	}
	return b.String()
}

// FormatSkip renders an order that was signalled but not placed.
func FormatSkip(symbol string, decision model.Decision, detail string) string {
	return fmt.Sprintf("Skipped %s %s: %s (signal: %s)",
		strings.ToUpper(string(decision.Action)), symbol, detail, decision.Reason)
}

// FormatCycleError renders a recoverable cycle failure.
func FormatCycleError(market string, err error) string {
	return fmt.Sprintf("Cycle error on %s: %v", market, err)
}

func formatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 0)
}

func formatQty(v float64) string {
	return fmt.Sprintf("%.8g", v)
}
