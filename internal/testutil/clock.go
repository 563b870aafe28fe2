package testutil

import (
	"fmt"
	"sync"
)

// Clock is a logical time source for scenarios and tests. Time starts
// where the caller says and never moves backwards.
//
// All methods are safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now uint64
}

// NewClock returns a clock reading start.
func NewClock(start uint64) *Clock {
	return &Clock{now: start}
}

// Now returns the current time.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Set moves the clock to t. Moving backwards is an error.
func (c *Clock) Set(t uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.now {
		return fmt.Errorf("clock cannot move from %d back to %d", c.now, t)
	}
	c.now = t
	return nil
}
