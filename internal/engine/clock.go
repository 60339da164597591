package engine

import "sync/atomic"

// Clock hands out fact sequence numbers.
//
// Every fact is stamped with the next value when its insert is applied.
// The sequence fixes the order in which facts of a type are enumerated and
// names the fact in row lineage, so a retracted and re-inserted fact is a
// new fact.
//
// Clock is safe for concurrent use, although a session only calls it from
// CalculateScore.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first value is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
