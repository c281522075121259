package engine

import "sync/atomic"

// Clock hands out strictly increasing submission sequence numbers. Job
// ordering in LocalEngine is defined by these numbers, never wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
