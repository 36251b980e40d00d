package tradingview

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jwtly10/tradebot/internal/account"
)

func allowDump() bool {
	// Get OS Env for dump DEBUG_DUMP=1 etc
	debugDump := os.Getenv("DEBUG_DUMP")
	if debugDump == "1" {
		slog.Info("DEBUG_DUMP=1, dumping to stdout")
		return true
	}

	return false
}

func DumpPineScript(trades []account.Trade) {
	if !allowDump() {
		return
	}

	pineCode := generateTradePinescript(trades)
	fmt.Println(pineCode)
}

// generateTradePinescript renders entry and exit markers for every closed
// trade of a session, so the fills can be checked against a TradingView chart.
// Trades are numbered in ledger order; losing exits are drawn red.
func generateTradePinescript(trades []account.Trade) string {
	var sb strings.Builder

	sb.WriteString("// ============================================\n")
	sb.WriteString("// TRADE VALIDATION MARKERS\n")
	sb.WriteString("// ============================================\n\n")

	for i, trade := range trades {
		n := i + 1

		// Entry marker
		entryTimestamp := formatPineTimestamp(trade.EntryTime)
		entryText := fmt.Sprintf("#%d %s %s\\nEntry: %s\\nQty: %d\\nSignal: %s",
			n, trade.Side, trade.Instrument, trade.EntryPrice.StringFixed(5), trade.Quantity, trade.Signal)

		sb.WriteString(fmt.Sprintf("t%d_entry = time == %s\n", n, entryTimestamp))
		sb.WriteString(fmt.Sprintf("plotshape(t%d_entry, title=\"#%d %s Entry\", location=location.bottom, color=color.blue, style=shape.labelup, size=size.small, text=\"%s\", textcolor=color.white)\n\n",
			n, n, trade.Side, entryText))

		// Exit marker
		exitTimestamp := formatPineTimestamp(trade.ExitTime)
		exitColor := "color.green"
		if !trade.PnL.IsPositive() {
			exitColor = "color.red"
		}
		exitText := fmt.Sprintf("#%d EXIT\\nExit: %s\\nP&L: %s\\n%s",
			n, trade.ExitPrice.StringFixed(5), trade.PnL.StringFixed(2), trade.ExitReason)

		sb.WriteString(fmt.Sprintf("t%d_exit = time == %s\n", n, exitTimestamp))
		sb.WriteString(fmt.Sprintf("plotshape(t%d_exit, title=\"#%d EXIT\", location=location.top, color=%s, style=shape.labeldown, size=size.small, text=\"%s\", textcolor=color.white)\n\n",
			n, n, exitColor, exitText))
	}

	return sb.String()
}

func formatPineTimestamp(t time.Time) string {
	utc := t.UTC()
	return fmt.Sprintf("timestamp(\"UTC\", %d, %d, %d, %d, %d)",
		utc.Year(), int(utc.Month()), utc.Day(), utc.Hour(), utc.Minute())
}
