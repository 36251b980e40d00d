package oanda

import (
	"fmt"
	"strings"
	"time"
)

type CandlestickGranularity string

const (
	// Oanda granularities
	M1  CandlestickGranularity = "M1"
	M2  CandlestickGranularity = "M2"
	M4  CandlestickGranularity = "M4"
	M5  CandlestickGranularity = "M5"
	M10 CandlestickGranularity = "M10"
	M15 CandlestickGranularity = "M15"
	M30 CandlestickGranularity = "M30"
	H1  CandlestickGranularity = "H1"
	H2  CandlestickGranularity = "H2"
	H3  CandlestickGranularity = "H3"
	H4  CandlestickGranularity = "H4"
	H6  CandlestickGranularity = "H6"
	H8  CandlestickGranularity = "H8"
	H12 CandlestickGranularity = "H12"
	D   CandlestickGranularity = "D"
	W   CandlestickGranularity = "W"
	M   CandlestickGranularity = "M"

	// Oanda Instruments
	GBPUSD = "GBP_USD"
	NAS100 = "NAS100_USD"
)

var granularityToDuration = map[CandlestickGranularity]time.Duration{
	M1:  1 * time.Minute,
	M2:  2 * time.Minute,
	M4:  4 * time.Minute,
	M5:  5 * time.Minute,
	M10: 10 * time.Minute,
	M15: 15 * time.Minute,
	M30: 30 * time.Minute,
	H1:  1 * time.Hour,
	H2:  2 * time.Hour,
	H3:  3 * time.Hour,
	H4:  4 * time.Hour,
	H6:  6 * time.Hour,
	H8:  8 * time.Hour,
	H12: 12 * time.Hour,
	D:   24 * time.Hour,
	W:   7 * 24 * time.Hour,
	M:   30 * 24 * time.Hour, // Approx
}

func (g CandlestickGranularity) ToDuration() (time.Duration, error) {
	duration, ok := granularityToDuration[g]
	if !ok {
		return 0, fmt.Errorf("invalid granularity: %s", g)
	}
	return duration, nil
}

func (g CandlestickGranularity) String() string {
	return string(g)
}

// Granularity maps a candle unit (minutes, hours, days, weeks, months) and
// interval to the Oanda granularity.
func Granularity(unit string, interval int) (CandlestickGranularity, error) {
	var g CandlestickGranularity
	switch strings.ToLower(unit) {
	case "minute", "minutes":
		g = CandlestickGranularity(fmt.Sprintf("M%d", interval))
	case "hour", "hours":
		g = CandlestickGranularity(fmt.Sprintf("H%d", interval))
	case "day", "days":
		if interval == 1 {
			g = D
		}
	case "week", "weeks":
		if interval == 1 {
			g = W
		}
	case "month", "months":
		if interval == 1 {
			g = M
		}
	}

	if _, err := g.ToDuration(); err != nil {
		return "", fmt.Errorf("unsupported candle interval %d %s", interval, unit)
	}
	return g, nil
}
