package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

type Statistics struct {
	// Basic
	TotalTrades      int
	ProfitableTrades int
	LosingTrades     int
	WinRate          decimal.Decimal

	// P&L
	NetPnL       decimal.Decimal
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal
	ProfitFactor decimal.Decimal

	// Averages
	AvgWin        decimal.Decimal
	AvgLoss       decimal.Decimal
	ExpectedValue decimal.Decimal

	// Risk
	MaxDrawdown decimal.Decimal

	// Session
	Iterations       int
	StopReason       StopReason
	Runtime          time.Duration
	AvgTradeDuration time.Duration
}

var hundred = decimal.NewFromInt(100)

// Calculate summarises the ledger. A trade with P&L <= 0 counts as losing.
func (r *Results) Calculate() *Statistics {
	if r.stats != nil {
		return r.stats
	}

	stats := &Statistics{
		TotalTrades: len(r.Trades),
		Iterations:  r.Iterations,
		StopReason:  r.StopReason,
		Runtime:     r.EndTime.Sub(r.StartTime),
	}

	if len(r.Trades) == 0 {
		r.stats = stats
		return stats
	}

	var totalDuration time.Duration
	var equity, peak decimal.Decimal

	for _, trade := range r.Trades {
		if trade.PnL.IsPositive() {
			stats.ProfitableTrades++
			stats.GrossProfit = stats.GrossProfit.Add(trade.PnL)
		} else {
			stats.LosingTrades++
			stats.GrossLoss = stats.GrossLoss.Add(trade.PnL)
		}

		// Drawdown on the running realized P&L curve
		equity = equity.Add(trade.PnL)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if dd := peak.Sub(equity); dd.GreaterThan(stats.MaxDrawdown) {
			stats.MaxDrawdown = dd
		}

		totalDuration += trade.ExitTime.Sub(trade.EntryTime)
	}

	total := decimal.NewFromInt(int64(stats.TotalTrades))

	stats.NetPnL = equity
	stats.WinRate = decimal.NewFromInt(int64(stats.ProfitableTrades)).Div(total).Mul(hundred)

	if !stats.GrossLoss.IsZero() {
		stats.ProfitFactor = stats.GrossProfit.Div(stats.GrossLoss.Neg())
	}

	if stats.ProfitableTrades > 0 {
		stats.AvgWin = stats.GrossProfit.Div(decimal.NewFromInt(int64(stats.ProfitableTrades)))
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = stats.GrossLoss.Div(decimal.NewFromInt(int64(stats.LosingTrades)))
	}
	stats.ExpectedValue = stats.NetPnL.Div(total)

	stats.AvgTradeDuration = totalDuration / time.Duration(stats.TotalTrades)

	r.stats = stats
	return stats
}

func (s *Statistics) Print() {
	fmt.Println("\n=== Session Summary ===")
	fmt.Printf("Stop Reason:      %s\n", s.StopReason)
	fmt.Printf("Iterations:       %d\n", s.Iterations)
	fmt.Printf("Runtime:          %s\n\n", s.Runtime.Round(time.Second))

	fmt.Printf("Total Trades:     %d\n", s.TotalTrades)
	fmt.Printf("Profitable:       %d (%s%%)\n", s.ProfitableTrades, s.WinRate.StringFixed(2))
	fmt.Printf("Losing:           %d\n\n", s.LosingTrades)

	fmt.Printf("Net P&L:          %s\n", s.NetPnL.StringFixed(2))
	fmt.Printf("Gross Profit:     %s\n", s.GrossProfit.StringFixed(2))
	fmt.Printf("Gross Loss:       %s\n", s.GrossLoss.StringFixed(2))
	fmt.Printf("Profit Factor:    %s\n\n", s.ProfitFactor.StringFixed(2))

	fmt.Printf("Avg Win:          %s\n", s.AvgWin.StringFixed(2))
	fmt.Printf("Avg Loss:         %s\n", s.AvgLoss.StringFixed(2))
	fmt.Printf("Expected Value:   %s per trade\n\n", s.ExpectedValue.StringFixed(2))

	fmt.Printf("Max Drawdown:     %s\n", s.MaxDrawdown.StringFixed(2))
	fmt.Printf("Avg Duration:     %s\n", s.AvgTradeDuration.Round(time.Minute))
}

// Log writes the running summary logged while the session is in progress.
func (s *Statistics) Log(iteration int) {
	slog.Info("Session summary",
		"iteration", iteration,
		"trades", s.TotalTrades,
		"profitable", s.ProfitableTrades,
		"losing", s.LosingTrades,
		"win_rate", s.WinRate.StringFixed(2),
		"net_pnl", s.NetPnL.StringFixed(2),
		"max_drawdown", s.MaxDrawdown.StringFixed(2))
}
