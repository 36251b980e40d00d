package types

import (
	"errors"
	"fmt"
)

var ErrOutOfOrder = errors.New("bar timestamp is not after the previous bar")

// BarSeries is a bounded window of bars ordered by strictly increasing timestamp.
// When the window is full the oldest bar is evicted.
type BarSeries struct {
	capacity int
	bars     []Bar
}

func NewBarSeries(capacity int) *BarSeries {
	if capacity <= 0 {
		capacity = 1
	}
	return &BarSeries{
		capacity: capacity,
		bars:     make([]Bar, 0, capacity),
	}
}

// SeriesFrom validates bars and keeps at most capacity of the most recent ones.
func SeriesFrom(bars []Bar, capacity int) (*BarSeries, error) {
	s := NewBarSeries(capacity)
	for i, bar := range bars {
		if err := s.Append(bar); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *BarSeries) Append(bar Bar) error {
	if n := len(s.bars); n > 0 && !bar.Timestamp.After(s.bars[n-1].Timestamp) {
		return fmt.Errorf("%w: %s <= %s", ErrOutOfOrder, bar.Timestamp, s.bars[n-1].Timestamp)
	}
	if len(s.bars) == s.capacity {
		copy(s.bars, s.bars[1:])
		s.bars = s.bars[:len(s.bars)-1]
	}
	s.bars = append(s.bars, bar)
	return nil
}

// Bars returns a copy of the window, oldest first.
func (s *BarSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

func (s *BarSeries) Len() int {
	return len(s.bars)
}

func (s *BarSeries) Capacity() int {
	return s.capacity
}

// Last returns the most recent bar, false if the series is empty.
func (s *BarSeries) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Closes returns the close prices of the window, oldest first.
func (s *BarSeries) Closes() []float64 {
	return Closes(s.bars)
}

func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
