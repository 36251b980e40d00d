package risk

import (
	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/shopspring/decimal"
)

var riskLog = logging.New("risk")

type Reason string

const (
	None            Reason = "NONE"
	MaxDailyLoss    Reason = "MAX_DAILY_LOSS"
	MaxTradesPerDay Reason = "MAX_TRADES_PER_DAY"
	StopLoss        Reason = "STOP_LOSS"
	TakeProfit      Reason = "TAKE_PROFIT"
)

// AccountLevel reports whether the reason ends the session rather than just
// the current position.
func (r Reason) AccountLevel() bool {
	return r == MaxDailyLoss || r == MaxTradesPerDay
}

// Limits are fixed for a session. A threshold of zero or less disables its check.
type Limits struct {
	StopLoss        decimal.Decimal
	TakeProfit      decimal.Decimal
	MaxDailyLoss    decimal.Decimal
	MaxTradesPerDay int
}

type Decision struct {
	Continue bool
	Reason   Reason
}

// Ledger is the part of the trade ledger the gate reads.
type Ledger interface {
	Len() int
}

// Evaluate checks account-level limits before position-level ones; the first
// breached limit decides. It never mutates its inputs.
func Evaluate(ledger Ledger, realizedPnL, openPositionPnL decimal.Decimal, limits Limits) Decision {
	trades := 0
	if ledger != nil {
		trades = ledger.Len()
	}

	riskLog.Debug("Evaluating risk",
		"realized_pnl", realizedPnL.String(),
		"open_pnl", openPositionPnL.String(),
		"trades", trades)

	if limits.MaxDailyLoss.IsPositive() && realizedPnL.LessThanOrEqual(limits.MaxDailyLoss.Neg()) {
		return stop(MaxDailyLoss)
	}
	if limits.MaxTradesPerDay > 0 && trades >= limits.MaxTradesPerDay {
		return stop(MaxTradesPerDay)
	}
	if limits.StopLoss.IsPositive() && openPositionPnL.LessThanOrEqual(limits.StopLoss.Neg()) {
		return stop(StopLoss)
	}
	if limits.TakeProfit.IsPositive() && openPositionPnL.GreaterThanOrEqual(limits.TakeProfit) {
		return stop(TakeProfit)
	}
	return Decision{Continue: true, Reason: None}
}

func stop(reason Reason) Decision {
	return Decision{Continue: false, Reason: reason}
}
