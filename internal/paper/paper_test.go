package paper

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoter struct {
	mu    sync.Mutex
	price decimal.NullDecimal
	err   error
}

func (q *fakeQuoter) set(v int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.price = decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func (q *fakeQuoter) LivePrice(context.Context, string) (decimal.NullDecimal, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.price, q.err
}

func TestExecutor_FillsAtQuote(t *testing.T) {
	q := &fakeQuoter{}
	q.set(100)
	exec := NewExecutor(q)

	res, err := exec.PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: types.BUY, Quantity: 5})
	require.NoError(t, err)

	assert.True(t, res.Filled)
	assert.Equal(t, types.OrderFilled, res.Status)
	assert.NotEmpty(t, res.OrderID)
	assert.True(t, res.FillPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(5), exec.Inventory("NIFTY"))

	q.set(110)
	_, err = exec.PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: types.SELL, Quantity: 5})
	require.NoError(t, err)

	assert.Zero(t, exec.Inventory("NIFTY"))
	assert.True(t, exec.Cash().Equal(decimal.NewFromInt(50)))
	assert.Len(t, exec.Fills(), 2)
}

func TestExecutor_RejectsWithoutQuote(t *testing.T) {
	exec := NewExecutor(&fakeQuoter{})

	res, err := exec.PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: types.BUY, Quantity: 1})
	require.NoError(t, err)

	assert.False(t, res.Filled)
	assert.Equal(t, types.OrderRejected, res.Status)
	assert.Empty(t, exec.Fills())
}

func TestExecutor_QuoteError(t *testing.T) {
	exec := NewExecutor(&fakeQuoter{err: errors.New("timeout")})

	_, err := exec.PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: types.BUY, Quantity: 1})
	assert.Error(t, err)
}

func TestExecutor_InvalidQuantity(t *testing.T) {
	q := &fakeQuoter{}
	q.set(100)

	_, err := NewExecutor(q).PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: types.BUY})
	assert.Error(t, err)
}

func TestExecutor_ConcurrentOrders(t *testing.T) {
	q := &fakeQuoter{}
	q.set(10)
	exec := NewExecutor(q)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := types.BUY
			if i%2 == 1 {
				action = types.SELL
			}
			_, err := exec.PlaceOrder(context.Background(), types.OrderRequest{Instrument: "NIFTY", Action: action, Quantity: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, exec.Inventory("NIFTY"))
	assert.True(t, exec.Cash().IsZero())
	assert.Len(t, exec.Fills(), 50)
}
