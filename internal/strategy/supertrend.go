package strategy

import "github.com/jwtly10/tradebot/internal/types"

const (
	DefaultSTPeriod     = 10
	DefaultSTMultiplier = 3.0
)

// SuperTrend signals on trend flips of the SuperTrend indicator at the latest bar.
type SuperTrend struct {
	period     int
	multiplier float64
}

func NewSuperTrend(period int, multiplier float64) *SuperTrend {
	if period <= 0 {
		period = DefaultSTPeriod
	}
	if multiplier <= 0 {
		multiplier = DefaultSTMultiplier
	}
	return &SuperTrend{period: period, multiplier: multiplier}
}

func (s *SuperTrend) Name() string {
	return SuperTrendName
}

func (s *SuperTrend) Evaluate(bars []types.Bar) types.Signal {
	// one bar of trend history on top of the ATR window
	if len(bars) < s.period+1 {
		return types.Hold
	}

	states := SuperTrendSeries(bars, s.period, s.multiplier)
	cur, prev := states[len(states)-1], states[len(states)-2]

	switch {
	case prev.Trend == -1 && cur.Trend == 1:
		return types.Buy
	case prev.Trend == 1 && cur.Trend == -1:
		return types.Sell
	}
	return types.Hold
}
