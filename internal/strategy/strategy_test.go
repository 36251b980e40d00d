package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/jwtly10/tradebot/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 8, 15, 9, 15, 0, 0, time.UTC)

func bar(i int, close, volume float64) types.Bar {
	return types.Bar{
		Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
		Open:      close, High: close + 1, Low: close - 1, Close: close, Volume: volume,
	}
}

func barsFromCloses(closes []float64, volumes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i := range closes {
		bars[i] = bar(i, closes[i], volumes[i])
	}
	return bars
}

func TestEMA_MatchesRecursiveSmoothing(t *testing.T) {
	out := EMASeries([]float64{10, 20, 30}, 3)

	// alpha = 0.5, seeded with the first price
	assert.Equal(t, []float64{10, 15, 22.5}, out)
}

func TestRollingMean_NaNUntilWindowIsFull(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)

	short := RollingMean([]float64{1, 2}, 3)
	assert.True(t, math.IsNaN(short[1]))
}

func TestEMACrossover_RisingClosesAndVolumeGiveBuy(t *testing.T) {
	closes := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000 + float64(i)*100
	}

	policy := NewEMACrossover(9, 15, 10, 20)

	assert.Equal(t, types.Buy, policy.Evaluate(barsFromCloses(closes, volumes)))
}

func TestEMACrossover_FreshBullishCrossover(t *testing.T) {
	closes := make([]float64, 0, 20)
	volumes := make([]float64, 0, 20)
	for i := 0; i < 19; i++ {
		closes = append(closes, 120-0.5*float64(i))
		volumes = append(volumes, 1000)
	}
	// 111 -> 131 pulls the fast EMA through the slow one on the last bar
	closes = append(closes, 131)
	volumes = append(volumes, 5000)

	policy := NewEMACrossover(0, 0, 0, 0)
	bars := barsFromCloses(closes, volumes)

	assert.Equal(t, types.Buy, policy.Evaluate(bars))

	// without volume confirmation the crossover is ignored
	bars[19].Volume = 1000
	assert.Equal(t, types.Hold, policy.Evaluate(bars))
}

func TestEMACrossover_FreshBearishCrossover(t *testing.T) {
	closes := make([]float64, 0, 20)
	volumes := make([]float64, 0, 20)
	for i := 0; i < 19; i++ {
		closes = append(closes, 100+0.5*float64(i))
		volumes = append(volumes, 1000)
	}
	closes = append(closes, 89)
	volumes = append(volumes, 5000)

	assert.Equal(t, types.Sell, NewEMACrossover(0, 0, 0, 0).Evaluate(barsFromCloses(closes, volumes)))
}

func TestEMACrossover_FallingClosesGiveSell(t *testing.T) {
	closes := make([]float64, 25)
	volumes := make([]float64, 25)
	for i := range closes {
		closes[i] = 200 - float64(i)
		volumes[i] = 1000 + float64(i)*50
	}

	assert.Equal(t, types.Sell, NewEMACrossover(0, 0, 0, 0).Evaluate(barsFromCloses(closes, volumes)))
}

func TestEMACrossover_InsufficientBarsHold(t *testing.T) {
	closes := make([]float64, 19)
	volumes := make([]float64, 19)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000 + float64(i)*100
	}

	policy := NewEMACrossover(9, 15, 10, 20)

	assert.Equal(t, types.Hold, policy.Evaluate(barsFromCloses(closes, volumes)))
	assert.Equal(t, types.Hold, policy.Evaluate(nil))
}

func TestEMACrossover_FlatMarketHolds(t *testing.T) {
	closes := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := range closes {
		closes[i] = 101.8
		volumes[i] = 1300
	}

	assert.Equal(t, types.Hold, NewEMACrossover(0, 0, 0, 0).Evaluate(barsFromCloses(closes, volumes)))
}

func TestEMACrossover_IsDeterministic(t *testing.T) {
	closes := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000 + float64(i)*100
	}
	bars := barsFromCloses(closes, volumes)
	policy := NewEMACrossover(0, 0, 0, 0)

	first := policy.Evaluate(bars)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, policy.Evaluate(bars))
	}
}

func trendBars(from, step float64, n int) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = bar(i, from+step*float64(i), 1000)
	}
	return bars
}

func TestSuperTrend_FlipUpGivesBuy(t *testing.T) {
	bars := trendBars(200, -2, 20)
	policy := NewSuperTrend(10, 3)

	assert.Equal(t, types.Hold, policy.Evaluate(bars), "steady downtrend has no flip on the last bar")

	bars = append(bars, bar(20, bars[19].Close+15, 1000))
	assert.Equal(t, types.Buy, policy.Evaluate(bars))
}

func TestSuperTrend_FlipDownGivesSell(t *testing.T) {
	bars := trendBars(100, 2, 20)
	bars = append(bars, bar(20, bars[19].Close-15, 1000))

	assert.Equal(t, types.Sell, NewSuperTrend(10, 3).Evaluate(bars))
}

func TestSuperTrend_InsufficientBarsHold(t *testing.T) {
	assert.Equal(t, types.Hold, NewSuperTrend(10, 3).Evaluate(trendBars(100, 1, 10)))
}

func TestSuperTrendSeries_TrendUndefinedBeforeATR(t *testing.T) {
	states := SuperTrendSeries(trendBars(100, 2, 12), 10, 3)

	for i := 0; i < 9; i++ {
		assert.Equal(t, 0, states[i].Trend)
	}
	assert.Equal(t, 1, states[9].Trend)
	// every bar moves 2 with a 2-wide range, so TR is 3 from the second bar on
	assert.InDelta(t, 2.9, states[9].ATR, 1e-9)
}

func TestNew_SelectsByName(t *testing.T) {
	p, err := New(EMACrossoverName, Params{})
	require.NoError(t, err)
	assert.Equal(t, EMACrossoverName, p.Name())

	p, err = New(SuperTrendName, Params{STPeriod: 7, STMultiplier: 2})
	require.NoError(t, err)
	assert.Equal(t, SuperTrendName, p.Name())

	_, err = New("martingale", Params{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMinBars(t *testing.T) {
	n, err := MinBars(EMACrossoverName, Params{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMinBars, n)

	// a volume window longer than MIN_BARS raises the minimum
	n, err = MinBars(EMACrossoverName, Params{MinBars: 5, VolumeWindow: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = MinBars(SuperTrendName, Params{STPeriod: 7})
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, types.Hold, NewSuperTrend(7, 0).Evaluate(make([]types.Bar, n-1)))

	_, err = MinBars("martingale", Params{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
