package strategy

import (
	"math"

	"github.com/jwtly10/tradebot/internal/logging"
	"github.com/jwtly10/tradebot/internal/types"
	"github.com/markcheno/go-talib"
)

var (
	emaLog = logging.New("ema")
	stLog  = logging.New("supertrend")
)

// EMA - Exponential Moving Average, seeded with the first price it sees.
type EMA struct {
	period int
	value  float64
	alpha  float64
	init   bool
}

func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *EMA) Update(price float64) {
	if !e.init {
		e.value = price
		e.init = true
		return
	}
	e.value = (price * e.alpha) + (e.value * (1 - e.alpha))
}

func (e *EMA) Value() float64 {
	return e.value
}

func (e *EMA) Ready() bool {
	return e.init
}

// EMASeries runs a fresh EMA over prices and returns its value at every index.
func EMASeries(prices []float64, period int) []float64 {
	ema := NewEMA(period)
	out := make([]float64, len(prices))
	for i, p := range prices {
		ema.Update(p)
		out[i] = ema.Value()
	}
	emaLog.Debug("EMA series computed", "period", period, "points", len(out))
	return out
}

// RollingMean is the simple moving average of values over window, aligned to
// the input index. Entries before the first full window are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return out
	}
	sma := talib.Sma(values, window)
	for i := window - 1; i < len(values); i++ {
		out[i] = sma[i]
	}
	return out
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// bar has no previous close and uses high-low.
func TrueRange(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		tr := bar.High - bar.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
		}
		out[i] = tr
	}
	return out
}

// SuperTrendState is the indicator output at a single bar.
type SuperTrendState struct {
	Value float64
	Upper float64
	Lower float64
	ATR   float64
	Trend int // 1 up, -1 down, 0 before the ATR is defined
}

// SuperTrendSeries computes the SuperTrend with ATR as the rolling mean of the
// true range. The band recursion starts at the first bar with a full ATR window.
func SuperTrendSeries(bars []types.Bar, period int, multiplier float64) []SuperTrendState {
	out := make([]SuperTrendState, len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}

	atr := RollingMean(TrueRange(bars), period)
	start := period - 1

	hl2 := (bars[start].High + bars[start].Low) / 2
	upper := hl2 + multiplier*atr[start]
	lower := hl2 - multiplier*atr[start]
	trend := 1
	out[start] = SuperTrendState{Value: lower, Upper: upper, Lower: lower, ATR: atr[start], Trend: trend}

	for i := start + 1; i < len(bars); i++ {
		hl2 = (bars[i].High + bars[i].Low) / 2
		basicUpper := hl2 + multiplier*atr[i]
		basicLower := hl2 - multiplier*atr[i]
		prevClose := bars[i-1].Close

		if basicUpper < upper || prevClose > upper {
			upper = basicUpper
		}
		if basicLower > lower || prevClose < lower {
			lower = basicLower
		}

		switch {
		case bars[i].Close <= lower:
			trend = -1
		case bars[i].Close >= upper:
			trend = 1
		}

		value := lower
		if trend == -1 {
			value = upper
		}
		out[i] = SuperTrendState{Value: value, Upper: upper, Lower: lower, ATR: atr[i], Trend: trend}
	}

	if stLog.Enabled() {
		last := out[len(out)-1]
		stLog.Debug("SuperTrend computed", "period", period, "multiplier", multiplier, "value", last.Value, "trend", last.Trend, "atr", last.ATR)
	}
	return out
}
