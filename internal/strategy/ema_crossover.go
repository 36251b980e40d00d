package strategy

import (
	"log/slog"

	"github.com/jwtly10/tradebot/internal/types"
)

const (
	DefaultFastPeriod   = 9
	DefaultSlowPeriod   = 15
	DefaultVolumeWindow = 10
	DefaultMinBars      = 20
)

// EMACrossover trades fast/slow EMA crossovers confirmed by price position,
// volume and momentum, plus trend continuation when the EMA gap widens.
type EMACrossover struct {
	fast         int
	slow         int
	volumeWindow int
	minBars      int
}

func NewEMACrossover(fast, slow, volumeWindow, minBars int) *EMACrossover {
	if fast <= 0 {
		fast = DefaultFastPeriod
	}
	if slow <= 0 {
		slow = DefaultSlowPeriod
	}
	if volumeWindow <= 0 {
		volumeWindow = DefaultVolumeWindow
	}
	if minBars <= 0 {
		minBars = DefaultMinBars
	}
	// the rules look three bars back and need a full volume window
	if minBars < volumeWindow {
		minBars = volumeWindow
	}
	if minBars < 3 {
		minBars = 3
	}
	return &EMACrossover{
		fast:         fast,
		slow:         slow,
		volumeWindow: volumeWindow,
		minBars:      minBars,
	}
}

func (s *EMACrossover) Name() string {
	return EMACrossoverName
}

func (s *EMACrossover) Evaluate(bars []types.Bar) types.Signal {
	if len(bars) < s.minBars {
		slog.Debug("Not enough bars for EMA crossover", "have", len(bars), "need", s.minBars)
		return types.Hold
	}

	closes := types.Closes(bars)
	fastEMA := EMASeries(closes, s.fast)
	slowEMA := EMASeries(closes, s.slow)
	avgVolume := RollingMean(types.Volumes(bars), s.volumeWindow)

	n := len(bars) - 1
	curClose, prevClose := closes[n], closes[n-1]
	curFast, prevFast, olderFast := fastEMA[n], fastEMA[n-1], fastEMA[n-2]
	curSlow, prevSlow := slowEMA[n], slowEMA[n-1]

	bullishCross := prevFast <= prevSlow && curFast > curSlow
	bearishCross := prevFast >= prevSlow && curFast < curSlow

	aboveEMAs := curClose > curFast && curClose > curSlow
	belowEMAs := curClose < curFast && curClose < curSlow

	// NaN average compares false, so an incomplete window never confirms
	volumeOK := bars[n].Volume > avgVolume[n]

	bullishMomentum := curClose > prevClose
	bearishMomentum := curClose < prevClose

	fastRising := curFast > olderFast
	fastFalling := curFast < olderFast

	emaLog.Debug("EMA crossover inputs",
		"close", curClose,
		"fast", curFast,
		"slow", curSlow,
		"prevFast", prevFast,
		"prevSlow", prevSlow,
		"volume", bars[n].Volume,
		"avgVolume", avgVolume[n])

	switch {
	case bullishCross && aboveEMAs && volumeOK && bullishMomentum && fastRising:
		return types.Buy
	case bearishCross && belowEMAs && volumeOK && bearishMomentum && fastFalling:
		return types.Sell
	case curFast > curSlow && prevFast > prevSlow && aboveEMAs && bullishMomentum && volumeOK &&
		(curFast-curSlow) > (prevFast-prevSlow):
		return types.Buy
	case curFast < curSlow && prevFast < prevSlow && belowEMAs && bearishMomentum && volumeOK &&
		(curSlow-curFast) > (prevSlow-prevFast):
		return types.Sell
	}
	return types.Hold
}
