package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
)

var paperLog = logging.New("paper")

type Quoter interface {
	LivePrice(ctx context.Context, instrument string) (decimal.NullDecimal, error)
}

// Fill is one simulated execution.
type Fill struct {
	OrderID    string
	Time       time.Time
	Instrument string
	Action     types.Action
	Price      decimal.Decimal
	Quantity   int64
}

// Executor simulates market orders by filling them at the live quote. Orders
// are rejected while there is no quote. Safe for concurrent use.
type Executor struct {
	quoter Quoter
	now    func() time.Time

	mu        sync.Mutex
	inventory map[string]int64
	cash      decimal.Decimal
	fills     []Fill
}

func NewExecutor(quoter Quoter) *Executor {
	return &Executor{
		quoter:    quoter,
		now:       time.Now,
		inventory: make(map[string]int64),
		cash:      decimal.Zero,
		fills:     make([]Fill, 0),
	}
}

func (e *Executor) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if req.Quantity <= 0 {
		return types.OrderResult{}, fmt.Errorf("order quantity must be positive, got %d", req.Quantity)
	}

	quote, err := e.quoter.LivePrice(ctx, req.Instrument)
	if err != nil {
		return types.OrderResult{}, fmt.Errorf("failed to quote %s: %w", req.Instrument, err)
	}

	id := uuid.NewString()
	if !quote.Valid {
		paperLog.Warn("No quote, rejecting paper order", "order_id", id, "instrument", req.Instrument)
		return types.OrderResult{OrderID: id, Status: types.OrderRejected}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	notional := quote.Decimal.Mul(decimal.NewFromInt(req.Quantity))
	switch req.Action {
	case types.BUY:
		e.inventory[req.Instrument] += req.Quantity
		e.cash = e.cash.Sub(notional)
	case types.SELL:
		e.inventory[req.Instrument] -= req.Quantity
		e.cash = e.cash.Add(notional)
	default:
		return types.OrderResult{}, fmt.Errorf("unknown order action %q", req.Action)
	}

	e.fills = append(e.fills, Fill{
		OrderID:    id,
		Time:       e.now(),
		Instrument: req.Instrument,
		Action:     req.Action,
		Price:      quote.Decimal,
		Quantity:   req.Quantity,
	})

	paperLog.Info("Paper fill", "order_id", id, "instrument", req.Instrument, "action", req.Action, "quantity", req.Quantity, "price", quote.Decimal.String())

	return types.OrderResult{
		OrderID:   id,
		Filled:    true,
		FillPrice: quote.Decimal,
		Quantity:  req.Quantity,
		Status:    types.OrderFilled,
	}, nil
}

func (e *Executor) Inventory(instrument string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inventory[instrument]
}

// Cash is the net cash flow of every fill so far. Once every instrument is
// flat it equals the realized P&L.
func (e *Executor) Cash() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

func (e *Executor) Fills() []Fill {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Fill, len(e.fills))
	copy(out, e.fills)
	return out
}
