package pubsub

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(t *testing.T, defaults ...string) *Broadcaster {
	t.Helper()
	logger := zerolog.Nop()
	return New(Config{DefaultTopics: defaults, QueueSize: 4}, &logger)
}

func drain(c *Conn) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-c.Outbound():
			frames = append(frames, f.Data)
		default:
			return frames
		}
	}
}

// TestBroadcaster_OpenAppliesDefaults tests id assignment and default topics.
func TestBroadcaster_OpenAppliesDefaults(t *testing.T) {
	b := newTestBroadcaster(t, "live.pgn", "live.log", "live.pgn")

	c1 := b.Open("1.1.1.1")
	c2 := b.Open("2.2.2.2")

	assert.Less(t, c1.ID(), c2.ID())
	assert.Equal(t, "1.1.1.1", c1.Addr())
	assert.Equal(t, []string{"live.log", "live.pgn"}, c1.Topics())
	assert.Equal(t, []string{"live.log", "live.pgn"}, b.Defaults())
	assert.Equal(t, 2, b.ConnCount())
}

// TestBroadcaster_PublishSubscribedOnly tests that subscribers receive the
// same bytes and nobody else receives anything.
func TestBroadcaster_PublishSubscribedOnly(t *testing.T) {
	b := newTestBroadcaster(t)
	a := b.Open("a")
	c := b.Open("c")
	other := b.Open("o")
	a.Subscribe("x")
	c.Subscribe("x")
	other.Subscribe("y")

	n := b.Publish("x", 12, map[string]any{"file": "x", "text": "hi"})
	assert.Equal(t, 2, n)

	fa := drain(a)
	fc := drain(c)
	require.Len(t, fa, 1)
	require.Len(t, fc, 1)
	assert.Equal(t, fa[0], fc[0])
	assert.JSONEq(t, `[12,{"file":"x","text":"hi"}]`, string(fa[0]))
	assert.Empty(t, drain(other))
}

// TestBroadcaster_DeadConnectionsSkipped tests that closed connections get nothing.
func TestBroadcaster_DeadConnectionsSkipped(t *testing.T) {
	b := newTestBroadcaster(t, "t")
	c := b.Open("a")
	b.Close(c)
	b.Close(c)

	assert.True(t, c.Dead())
	assert.Equal(t, 0, b.ConnCount())
	assert.Equal(t, 0, b.Publish("t", 10, "x"))
	assert.False(t, c.Send([]byte("x")))
	select {
	case <-c.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

// TestBroadcaster_FullQueueDrops tests the bounded outbound queue.
func TestBroadcaster_FullQueueDrops(t *testing.T) {
	b := newTestBroadcaster(t, "t")
	c := b.Open("a")

	for range 6 {
		b.Publish("t", 10, "x")
	}
	assert.Len(t, drain(c), 4)
	assert.Equal(t, uint64(2), c.Dropped())
}

// TestBroadcaster_ResetToDefaults tests that unsubscribe restores exactly the
// defaults and is idempotent.
func TestBroadcaster_ResetToDefaults(t *testing.T) {
	b := newTestBroadcaster(t, "live.log", "live.pgn")
	c := b.Open("a")
	c.Subscribe("a")
	c.Subscribe("b")
	c.Unsubscribe("live.log")

	b.ResetToDefaults(c)
	assert.Equal(t, []string{"live.log", "live.pgn"}, c.Topics())

	b.ResetToDefaults(c)
	assert.Equal(t, []string{"live.log", "live.pgn"}, c.Topics())
}

// TestBroadcaster_Last tests the last-payload cache.
func TestBroadcaster_Last(t *testing.T) {
	b := newTestBroadcaster(t)

	_, ok := b.Last("live.pgn")
	assert.False(t, ok)

	b.Publish("live.pgn", 11, "one")
	b.Publish("live.pgn", 11, "two")

	v, ok := b.Last("live.pgn")
	require.True(t, ok)
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, b.CacheStats().Topics)
}

// TestBroadcaster_PublishUnencodable tests that bad payloads are not sent.
func TestBroadcaster_PublishUnencodable(t *testing.T) {
	b := newTestBroadcaster(t, "t")
	c := b.Open("a")

	assert.Equal(t, 0, b.Publish("t", 10, make(chan int)))
	assert.Empty(t, drain(c))
	_, ok := b.Last("t")
	assert.False(t, ok)
}

// TestBroadcaster_Concurrent tests concurrent subscription changes and publishes.
func TestBroadcaster_Concurrent(t *testing.T) {
	b := newTestBroadcaster(t, "t")
	conns := make([]*Conn, 8)
	for i := range conns {
		conns[i] = b.Open("x")
	}

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				c.Subscribe("u")
				b.ResetToDefaults(c)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				drain(c)
			}
		}()
	}
	for range 50 {
		b.Publish("t", 10, 1)
		b.Publish("u", 10, 2)
	}
	wg.Wait()

	b.CloseAll()
	assert.Equal(t, 0, b.ConnCount())
}
