package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the previous instant plus Step, starting at Start.
// This gives strictly increasing creation times without sleeping, so listing
// order can be asserted exactly.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// DefaultEpoch is the first instant returned by NewStepClock clocks.
var DefaultEpoch = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

// NewStepClock creates a clock starting at DefaultEpoch that advances by step.
//
// The first call to Now() returns DefaultEpoch.
func NewStepClock(step time.Duration) *StepClock {
	return NewStepClockAt(DefaultEpoch, step)
}

// NewStepClockAt creates a clock starting at start that advances by step.
func NewStepClockAt(start time.Time, step time.Duration) *StepClock {
	return &StepClock{start: start.UTC(), step: step}
}

// Now returns the next instant.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next Now() returns the start instant again.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
