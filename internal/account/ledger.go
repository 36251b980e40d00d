package account

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
)

type ExitReason string

const (
	ExitSignal          ExitReason = "SIGNAL"
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitTakeProfit      ExitReason = "TAKE_PROFIT"
	ExitMaxDailyLoss    ExitReason = "MAX_DAILY_LOSS"
	ExitMaxTradesPerDay ExitReason = "MAX_TRADES_PER_DAY"
	ExitSessionEnd      ExitReason = "SESSION_END"
)

// Trade is a closed position. It is never modified once in the ledger.
type Trade struct {
	ID         string
	Instrument string
	Side       types.Side
	Signal     types.Signal
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Quantity   int64
	PnL        decimal.Decimal
	ExitReason ExitReason
}

func (t Trade) Print() {
	fmt.Printf("%s | %s %s | Entry: %s @ %s | Exit: %s @ %s | Qty: %d | P&L: %s | %s\n",
		t.ID,
		t.Side,
		t.Instrument,
		t.EntryPrice.StringFixed(2),
		t.EntryTime.Format("2006-01-02 15:04"),
		t.ExitPrice.StringFixed(2),
		t.ExitTime.Format("2006-01-02 15:04"),
		t.Quantity,
		t.PnL.StringFixed(2),
		t.ExitReason,
	)
}

// Sink receives every trade appended to a ledger, e.g. an external journal.
type Sink interface {
	RecordTrade(Trade) error
}

// Journal is a Sink that writes each closed trade as a structured log record.
type Journal struct {
	log *slog.Logger
}

func NewJournal(log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	return &Journal{log: log.With("component", "journal")}
}

func (j *Journal) RecordTrade(t Trade) error {
	j.log.Info("Trade closed",
		"trade_id", t.ID,
		"instrument", t.Instrument,
		"side", t.Side,
		"entry_price", t.EntryPrice.String(),
		"exit_price", t.ExitPrice.String(),
		"quantity", t.Quantity,
		"pnl", t.PnL.String(),
		"exit_reason", t.ExitReason,
	)
	return nil
}

// Ledger is the append-only, chronological list of closed trades of a session.
type Ledger struct {
	trades   []Trade
	realized decimal.Decimal
	sinks    []Sink
}

func NewLedger(sinks ...Sink) *Ledger {
	return &Ledger{
		trades:   []Trade{},
		realized: decimal.Zero,
		sinks:    sinks,
	}
}

func (l *Ledger) Append(t Trade) {
	l.trades = append(l.trades, t)
	l.realized = l.realized.Add(t.PnL)

	for _, sink := range l.sinks {
		if err := sink.RecordTrade(t); err != nil {
			slog.Warn("Trade sink failed", "trade_id", t.ID, "error", err)
		}
	}
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// Trades returns a copy so callers cannot rewrite history.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// RealizedPnL is the sum of P&L over every trade in the ledger.
func (l *Ledger) RealizedPnL() decimal.Decimal {
	return l.realized
}
