package strategy

import (
	"errors"
	"fmt"

	"github.com/jwtly10/tradebot/internal/types"
)

const (
	EMACrossoverName = "ema_crossover"
	SuperTrendName   = "supertrend"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Policy turns a window of bars into a directional signal.
// Implementations keep no state between calls: the same bars always give the
// same signal, and too few bars give Hold.
type Policy interface {
	Evaluate(bars []types.Bar) types.Signal
	Name() string
}

// Params carries the tunables of every built-in policy; zero values fall back
// to the defaults of the selected policy.
type Params struct {
	FastPeriod   int
	SlowPeriod   int
	VolumeWindow int
	MinBars      int
	STPeriod     int
	STMultiplier float64
}

// New selects a policy by its configuration name.
func New(name string, p Params) (Policy, error) {
	switch name {
	case EMACrossoverName, "":
		return NewEMACrossover(p.FastPeriod, p.SlowPeriod, p.VolumeWindow, p.MinBars), nil
	case SuperTrendName:
		return NewSuperTrend(p.STPeriod, p.STMultiplier), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// MinBars is the shortest window the selected policy can signal on; fewer
// bars always give Hold.
func MinBars(name string, p Params) (int, error) {
	policy, err := New(name, p)
	if err != nil {
		return 0, err
	}
	switch s := policy.(type) {
	case *EMACrossover:
		return s.minBars, nil
	case *SuperTrend:
		return s.period + 1, nil
	}
	return 0, nil
}
