package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCache_PutLast tests that the newest payload wins.
func TestCache_PutLast(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, ok := c.Last("live.pgn")
	assert.False(t, ok)

	c.Put("live.pgn", 11, "first")
	c.Put("live.pgn", 11, "second")

	e, ok := c.Last("live.pgn")
	require.True(t, ok)
	assert.Equal(t, 11, e.Code)
	assert.Equal(t, "second", e.Data)
	assert.False(t, e.PublishedAt.IsZero())
	assert.Equal(t, 1, c.Topics())
}

// TestCache_Expiry tests that quiet topics expire.
func TestCache_Expiry(t *testing.T) {
	c := New(20*time.Millisecond, 5*time.Millisecond)
	c.Put("banner.txt", 12, "x")

	assert.Eventually(t, func() bool {
		_, ok := c.Last("banner.txt")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

// TestCache_ForgetClear tests removal.
func TestCache_ForgetClear(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Put("a", 1, 1)
	c.Put("b", 1, 2)

	c.Forget("a")
	_, ok := c.Last("a")
	assert.False(t, ok)
	assert.Equal(t, Stats{Topics: 1}, c.GetStats())

	c.Clear()
	assert.Equal(t, 0, c.Topics())
}

// TestCache_Concurrent tests concurrent writers and readers.
func TestCache_Concurrent(t *testing.T) {
	c := New(time.Minute, time.Minute)
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Put("t", 12, i)
		}()
		go func() {
			defer wg.Done()
			c.Last("t")
		}()
	}
	wg.Wait()

	_, ok := c.Last("t")
	assert.True(t, ok)
}
