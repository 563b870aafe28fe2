package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockStartsWhereAsked(t *testing.T) {
	assert.Equal(t, uint64(0), NewClock(0).Now())
	assert.Equal(t, uint64(42), NewClock(42).Now())
}

func TestClockAdvance(t *testing.T) {
	c := NewClock(10)
	assert.Equal(t, uint64(15), c.Advance(5))
	assert.Equal(t, uint64(15), c.Advance(0))
	assert.Equal(t, uint64(15), c.Now())
}

func TestClockSetIsMonotonic(t *testing.T) {
	c := NewClock(10)
	require.NoError(t, c.Set(10))
	require.NoError(t, c.Set(100))
	assert.Error(t, c.Set(99))
	assert.Equal(t, uint64(100), c.Now())
}

func TestClockConcurrentAdvance(t *testing.T) {
	c := NewClock(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(2)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(100), c.Now())
}
