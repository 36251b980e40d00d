package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barAt(minute int, close float64) Bar {
	return Bar{
		Timestamp: time.Date(2025, 8, 15, 9, 15, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute),
		Open:      close, High: close, Low: close, Close: close, Volume: 1000,
	}
}

func TestBarSeries_EvictsOldestWhenFull(t *testing.T) {
	s := NewBarSeries(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(barAt(i*5, float64(100+i))))
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{102, 103, 104}, s.Closes())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, float64(104), last.Close)
}

func TestBarSeries_RejectsDuplicateAndOlderTimestamps(t *testing.T) {
	s := NewBarSeries(10)
	require.NoError(t, s.Append(barAt(5, 100)))

	assert.ErrorIs(t, s.Append(barAt(5, 101)), ErrOutOfOrder, "duplicate timestamp should be rejected")
	assert.ErrorIs(t, s.Append(barAt(0, 99)), ErrOutOfOrder, "older timestamp should be rejected")
	assert.Equal(t, 1, s.Len())
}

func TestSeriesFrom_ReportsOffendingIndex(t *testing.T) {
	_, err := SeriesFrom([]Bar{barAt(0, 1), barAt(5, 2), barAt(5, 3)}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Contains(t, err.Error(), "bar 2")
}

func TestBarSeries_BarsIsACopy(t *testing.T) {
	s := NewBarSeries(2)
	require.NoError(t, s.Append(barAt(0, 100)))

	bars := s.Bars()
	bars[0].Close = 1

	last, _ := s.Last()
	assert.Equal(t, float64(100), last.Close)
}

func TestEmptySeries(t *testing.T) {
	s := NewBarSeries(0)
	_, ok := s.Last()
	assert.False(t, ok)
	assert.Equal(t, 1, s.Capacity())
}

func TestSideSign(t *testing.T) {
	assert.Equal(t, "1", Long.Sign().String())
	assert.Equal(t, "-1", Short.Sign().String())
	assert.True(t, Flat.Sign().IsZero())
	assert.Equal(t, BUY, Long.OpenAction())
	assert.Equal(t, SELL, Short.OpenAction())
	assert.Equal(t, SELL, BUY.Opposite())
}
