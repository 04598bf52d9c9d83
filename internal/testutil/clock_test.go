package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_StartsAtEpoch(t *testing.T) {
	c := NewStepClock(time.Second)
	assert.Equal(t, DefaultEpoch, c.Now())
	assert.Equal(t, DefaultEpoch.Add(time.Second), c.Now())
	assert.Equal(t, int64(2), c.Calls())
}

func TestStepClock_StrictlyIncreasing(t *testing.T) {
	c := NewStepClock(time.Millisecond)
	prev := c.Now()
	for i := 0; i < 100; i++ {
		next := c.Now()
		assert.True(t, next.After(prev))
		prev = next
	}
}

func TestStepClock_Reset(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClockAt(start, time.Minute)
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, start, c.Now())
}

func TestStepClock_Concurrent(t *testing.T) {
	c := NewStepClock(time.Nanosecond)
	const goroutines = 50

	seen := make(chan time.Time, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines)
}
