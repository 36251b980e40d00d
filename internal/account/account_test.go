package account

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedExecutor struct {
	fills    []decimal.Decimal
	err      error
	reject   bool
	requests []types.OrderRequest
}

func (e *scriptedExecutor) PlaceOrder(_ context.Context, req types.OrderRequest) (types.OrderResult, error) {
	e.requests = append(e.requests, req)
	if e.err != nil {
		return types.OrderResult{}, e.err
	}
	if e.reject {
		return types.OrderResult{OrderID: "rejected", Status: types.OrderRejected}, nil
	}
	price := decimal.Zero
	if len(e.fills) > 0 {
		price, e.fills = e.fills[0], e.fills[1:]
	}
	return types.OrderResult{
		OrderID:   "order",
		Filled:    true,
		FillPrice: price,
		Quantity:  req.Quantity,
		Status:    types.OrderFilled,
	}, nil
}

type staticQuoter struct {
	price decimal.NullDecimal
	err   error
}

func (q staticQuoter) LivePrice(context.Context, string) (decimal.NullDecimal, error) {
	return q.price, q.err
}

type recordingSink struct {
	trades []Trade
}

func (s *recordingSink) RecordTrade(t Trade) error {
	s.trades = append(s.trades, t)
	return errors.New("journal offline")
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

var fixedNow = time.Date(2025, 8, 15, 9, 30, 0, 0, time.UTC)

func newTestAccount(exec Executor, opts ...Option) *Account {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAccount(exec, nil, opts...)
}

func longRequest(qty int64) OpenRequest {
	return OpenRequest{Instrument: "NIFTY", Side: types.Long, Quantity: qty, Signal: types.Buy, RefPrice: d(99)}
}

func TestAccount_OpenAndCloseLong(t *testing.T) {
	exec := &scriptedExecutor{fills: []decimal.Decimal{d(100), d(105.5)}}
	acc := newTestAccount(exec)

	pos, err := acc.Open(context.Background(), longRequest(10))
	require.NoError(t, err)
	assert.True(t, acc.Holding())
	assert.True(t, pos.EntryPrice.Equal(d(100)))
	assert.Equal(t, types.BUY, exec.requests[0].Action)

	trade, err := acc.Close(context.Background(), ExitSignal)
	require.NoError(t, err)

	assert.False(t, acc.Holding())
	assert.Equal(t, Position{}, acc.Position())
	assert.Equal(t, types.SELL, exec.requests[1].Action)
	assert.Equal(t, int64(10), exec.requests[1].Quantity)
	assert.True(t, trade.PnL.Equal(d(55)), "got %s", trade.PnL)
	assert.Equal(t, ExitSignal, trade.ExitReason)
	assert.Equal(t, types.Buy, trade.Signal)
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, 1, acc.Ledger().Len())
	assert.True(t, acc.RealizedPnL().Equal(d(55)))
}

func TestAccount_ShortPnLIsSigned(t *testing.T) {
	exec := &scriptedExecutor{fills: []decimal.Decimal{d(200), d(210)}}
	acc := newTestAccount(exec)

	_, err := acc.Open(context.Background(), OpenRequest{Instrument: "NIFTY", Side: types.Short, Quantity: 2, Signal: types.Sell})
	require.NoError(t, err)
	assert.Equal(t, types.SELL, exec.requests[0].Action)
	assert.True(t, acc.Position().UnrealizedPnL(d(190)).Equal(d(20)))

	trade, err := acc.Close(context.Background(), ExitStopLoss)
	require.NoError(t, err)
	assert.Equal(t, types.BUY, exec.requests[1].Action)
	assert.True(t, trade.PnL.Equal(d(-20)))
}

func TestAccount_OpenWhileHolding(t *testing.T) {
	acc := newTestAccount(&scriptedExecutor{fills: []decimal.Decimal{d(100)}})

	_, err := acc.Open(context.Background(), longRequest(1))
	require.NoError(t, err)

	_, err = acc.Open(context.Background(), longRequest(1))
	assert.ErrorIs(t, err, ErrAlreadyHolding)
}

func TestAccount_CloseWhileFlat(t *testing.T) {
	acc := newTestAccount(&scriptedExecutor{})

	_, err := acc.Close(context.Background(), ExitSignal)
	assert.ErrorIs(t, err, ErrNotHolding)
	assert.Equal(t, 0, acc.Ledger().Len())
}

func TestAccount_InvalidOpenRequest(t *testing.T) {
	exec := &scriptedExecutor{}
	acc := newTestAccount(exec)

	_, err := acc.Open(context.Background(), OpenRequest{Instrument: "NIFTY", Side: types.Flat, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidOpen)
	_, err = acc.Open(context.Background(), OpenRequest{Instrument: "NIFTY", Side: types.Long, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidOpen)
	assert.Empty(t, exec.requests)
}

func TestAccount_ExecutionFailureStaysFlat(t *testing.T) {
	tests := []struct {
		name string
		exec *scriptedExecutor
	}{
		{"gateway error", &scriptedExecutor{err: errors.New("timeout")}},
		{"order rejected", &scriptedExecutor{reject: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newTestAccount(tt.exec)

			_, err := acc.Open(context.Background(), longRequest(1))

			assert.ErrorIs(t, err, ErrExecution)
			assert.False(t, acc.Holding())
			assert.True(t, acc.Position().EntryPrice.IsZero())
			assert.Zero(t, acc.Position().Quantity)
		})
	}
}

func TestAccount_CloseFailureKeepsPosition(t *testing.T) {
	exec := &scriptedExecutor{fills: []decimal.Decimal{d(100)}}
	acc := newTestAccount(exec)
	_, err := acc.Open(context.Background(), longRequest(3))
	require.NoError(t, err)

	exec.err = errors.New("broker down")
	_, err = acc.Close(context.Background(), ExitSignal)

	assert.ErrorIs(t, err, ErrExecution)
	assert.True(t, acc.Holding())
	assert.Equal(t, int64(3), acc.Position().Quantity)
	assert.Equal(t, 0, acc.Ledger().Len())
}

func TestAccount_EntryPriceFallbacks(t *testing.T) {
	t.Run("live quote when fill has no price", func(t *testing.T) {
		acc := newTestAccount(&scriptedExecutor{}, WithQuoter(staticQuoter{price: decimal.NewNullDecimal(d(101.25))}))

		pos, err := acc.Open(context.Background(), longRequest(1))
		require.NoError(t, err)
		assert.True(t, pos.EntryPrice.Equal(d(101.25)))
	})

	t.Run("reference price when no quote", func(t *testing.T) {
		acc := newTestAccount(&scriptedExecutor{}, WithQuoter(staticQuoter{}))

		pos, err := acc.Open(context.Background(), longRequest(1))
		require.NoError(t, err)
		assert.True(t, pos.EntryPrice.Equal(d(99)))
	})

	t.Run("reference price when quote fails", func(t *testing.T) {
		acc := newTestAccount(&scriptedExecutor{}, WithQuoter(staticQuoter{err: errors.New("no route")}))

		pos, err := acc.Open(context.Background(), longRequest(1))
		require.NoError(t, err)
		assert.True(t, pos.EntryPrice.Equal(d(99)))
	})

	t.Run("exit without any price is flat pnl", func(t *testing.T) {
		acc := newTestAccount(&scriptedExecutor{fills: []decimal.Decimal{d(50)}})
		_, err := acc.Open(context.Background(), longRequest(4))
		require.NoError(t, err)

		trade, err := acc.Close(context.Background(), ExitSessionEnd)
		require.NoError(t, err)
		assert.True(t, trade.ExitPrice.Equal(d(50)))
		assert.True(t, trade.PnL.IsZero())
	})
}

func TestPosition_UnrealizedPnLFlatIsZero(t *testing.T) {
	assert.True(t, Position{}.UnrealizedPnL(d(123)).IsZero())
}

func TestLedger_AppendOnly(t *testing.T) {
	sink := &recordingSink{}
	ledger := NewLedger(sink)

	ledger.Append(Trade{ID: "a", PnL: d(-500)})
	snapshot := ledger.Trades()
	snapshot[0].PnL = d(1_000_000)
	ledger.Append(Trade{ID: "b", PnL: d(300)})

	trades := ledger.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].ID)
	assert.True(t, trades[0].PnL.Equal(d(-500)), "caller copies must not rewrite history")
	assert.Equal(t, "b", trades[1].ID)
	assert.True(t, ledger.RealizedPnL().Equal(d(-200)))

	// a failing sink never blocks the ledger
	assert.Len(t, sink.trades, 2)
}

func TestJournal_LogsEachClosedTrade(t *testing.T) {
	var buf bytes.Buffer
	ledger := NewLedger(NewJournal(slog.New(slog.NewTextHandler(&buf, nil))))

	ledger.Append(Trade{
		ID:         "t-1",
		Instrument: "NAS100_USD",
		Side:       types.Long,
		EntryPrice: d(100),
		ExitPrice:  d(104),
		Quantity:   10,
		PnL:        d(40),
		ExitReason: ExitSessionEnd,
	})

	out := buf.String()
	assert.Contains(t, out, "component=journal")
	assert.Contains(t, out, "trade_id=t-1")
	assert.Contains(t, out, "pnl=40")
	assert.Contains(t, out, "exit_reason=SESSION_END")
}
