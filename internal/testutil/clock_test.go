package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock(time.Millisecond)
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, int64(1), clock.Calls())
}

func TestDeterministicClock_AdvancesByTick(t *testing.T) {
	clock := NewDeterministicClock(time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()
	assert.Equal(t, time.Millisecond, second.Sub(first))
	assert.Equal(t, 2*time.Millisecond, third.Sub(first))
}

func TestDeterministicClock_ZeroTickFreezes(t *testing.T) {
	clock := NewDeterministicClock(0)
	clock.Now()
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(time.Second)
	clock.Now()
	clock.Now()
	clock.Reset()

	assert.Equal(t, int64(0), clock.Calls())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ConcurrentAccess(t *testing.T) {
	clock := NewDeterministicClock(time.Nanosecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), clock.Calls())
	assert.Equal(t, Epoch.Add(1000*time.Nanosecond), clock.Now())
}
