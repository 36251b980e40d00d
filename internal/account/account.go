package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyHolding = errors.New("position already open")
	ErrNotHolding     = errors.New("no open position")
	ErrExecution      = errors.New("order execution failed")
	ErrInvalidOpen    = errors.New("invalid open request")
)

// Executor is the order execution gateway.
type Executor interface {
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
}

// Quoter supplies a live price used when a fill carries no price.
type Quoter interface {
	LivePrice(ctx context.Context, instrument string) (decimal.NullDecimal, error)
}

// Position is the single position of a session. The zero value is Flat.
type Position struct {
	Instrument string
	Side       types.Side
	Signal     types.Signal
	EntryPrice decimal.Decimal
	Quantity   int64
	EntryTime  time.Time
	OrderID    string
}

func (p Position) Holding() bool {
	return p.Side != types.Flat
}

// UnrealizedPnL marks the position to price; zero when Flat.
func (p Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	if !p.Holding() {
		return decimal.Zero
	}
	return price.Sub(p.EntryPrice).Mul(decimal.NewFromInt(p.Quantity)).Mul(p.Side.Sign())
}

type OpenRequest struct {
	Instrument string
	Side       types.Side
	Quantity   int64
	Signal     types.Signal
	// RefPrice is the last resort entry price when neither the fill nor a
	// live quote reports one, usually the latest bar close.
	RefPrice decimal.Decimal
}

// Account owns the position state machine (Flat <-> Holding) and the ledger
// of closed trades. It is not safe for concurrent use.
type Account struct {
	executor Executor
	quoter   Quoter
	ledger   *Ledger
	position Position
	now      func() time.Time
}

type Option func(*Account)

func WithQuoter(q Quoter) Option {
	return func(a *Account) { a.quoter = q }
}

func WithClock(now func() time.Time) Option {
	return func(a *Account) { a.now = now }
}

func NewAccount(executor Executor, ledger *Ledger, opts ...Option) *Account {
	if ledger == nil {
		ledger = NewLedger()
	}
	a := &Account{
		executor: executor,
		ledger:   ledger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Position returns a copy of the current position.
func (a *Account) Position() Position {
	return a.position
}

func (a *Account) Holding() bool {
	return a.position.Holding()
}

func (a *Account) Ledger() *Ledger {
	return a.ledger
}

func (a *Account) RealizedPnL() decimal.Decimal {
	return a.ledger.RealizedPnL()
}

// Open sends the opening order and moves Flat -> Holding. Any execution
// failure leaves the account Flat.
func (a *Account) Open(ctx context.Context, req OpenRequest) (Position, error) {
	if a.Holding() {
		return a.position, ErrAlreadyHolding
	}
	if req.Side == types.Flat || req.Quantity <= 0 || req.Instrument == "" {
		return a.position, fmt.Errorf("%w: side=%s quantity=%d instrument=%q", ErrInvalidOpen, req.Side, req.Quantity, req.Instrument)
	}

	slog.Info("Opening position", "instrument", req.Instrument, "side", req.Side, "quantity", req.Quantity, "signal", req.Signal)

	result, err := a.executor.PlaceOrder(ctx, types.OrderRequest{
		Instrument: req.Instrument,
		Action:     req.Side.OpenAction(),
		Quantity:   req.Quantity,
	})
	if err != nil {
		return a.position, fmt.Errorf("%w: open %s %s: %v", ErrExecution, req.Side, req.Instrument, err)
	}
	if !result.Filled {
		return a.position, fmt.Errorf("%w: open %s %s: order %s status %s", ErrExecution, req.Side, req.Instrument, result.OrderID, result.Status)
	}

	entry := a.resolvePrice(ctx, req.Instrument, result.FillPrice, req.RefPrice)

	qty := req.Quantity
	if result.Quantity > 0 {
		qty = result.Quantity
	}

	a.position = Position{
		Instrument: req.Instrument,
		Side:       req.Side,
		Signal:     req.Signal,
		EntryPrice: entry,
		Quantity:   qty,
		EntryTime:  a.now(),
		OrderID:    result.OrderID,
	}

	slog.Info("Opened position", "instrument", req.Instrument, "side", req.Side, "entry_price", entry.String(), "quantity", qty, "order_id", result.OrderID)
	return a.position, nil
}

// Close sends the unwinding order and moves Holding -> Flat, appending the
// trade to the ledger. On failure the position stays open.
func (a *Account) Close(ctx context.Context, reason ExitReason) (Trade, error) {
	if !a.Holding() {
		return Trade{}, ErrNotHolding
	}
	pos := a.position

	slog.Info("Closing position", "instrument", pos.Instrument, "side", pos.Side, "quantity", pos.Quantity, "reason", reason)

	result, err := a.executor.PlaceOrder(ctx, types.OrderRequest{
		Instrument: pos.Instrument,
		Action:     pos.Side.OpenAction().Opposite(),
		Quantity:   pos.Quantity,
	})
	if err != nil {
		return Trade{}, fmt.Errorf("%w: close %s %s: %v", ErrExecution, pos.Side, pos.Instrument, err)
	}
	if !result.Filled {
		return Trade{}, fmt.Errorf("%w: close %s %s: order %s status %s", ErrExecution, pos.Side, pos.Instrument, result.OrderID, result.Status)
	}

	// no exit price at all: assume no change, as a zero P&L record
	exit := a.resolvePrice(ctx, pos.Instrument, result.FillPrice, pos.EntryPrice)
	pnl := pos.UnrealizedPnL(exit)

	trade := Trade{
		ID:         uuid.NewString(),
		Instrument: pos.Instrument,
		Side:       pos.Side,
		Signal:     pos.Signal,
		EntryTime:  pos.EntryTime,
		ExitTime:   a.now(),
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		Quantity:   pos.Quantity,
		PnL:        pnl,
		ExitReason: reason,
	}

	a.ledger.Append(trade)
	a.position = Position{}

	slog.Info("Closed position", "id", trade.ID, "instrument", trade.Instrument, "exit_price", exit.String(), "pnl", pnl.String(), "reason", reason, "realized_pnl", a.ledger.RealizedPnL().String())
	return trade, nil
}

func (a *Account) resolvePrice(ctx context.Context, instrument string, fill, fallback decimal.Decimal) decimal.Decimal {
	if fill.IsPositive() {
		return fill
	}
	if a.quoter != nil {
		quote, err := a.quoter.LivePrice(ctx, instrument)
		if err != nil {
			slog.Warn("Could not fetch price after fill", "instrument", instrument, "error", err)
		} else if quote.Valid {
			return quote.Decimal
		}
	}
	slog.Warn("Fill price unavailable, using fallback", "instrument", instrument, "fallback", fallback.String())
	return fallback
}
