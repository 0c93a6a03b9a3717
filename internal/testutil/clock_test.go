package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStubClock_Stopped(t *testing.T) {
	c := FixedClock()
	first := c.Now()
	assert.Equal(t, first, c.Now(), "stopped clock must not move on its own")

	c.Advance(-time.Minute)
	assert.Equal(t, first.Add(-time.Minute), c.Now())

	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestStubClock_Stepping(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour+2*time.Second), c.Now())
}

func TestStubIDGenerator_Unique(t *testing.T) {
	g := NewStubIDGenerator()

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.New()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	assert.True(t, seen["inst-1"])
	assert.True(t, seen["inst-20"])
}
