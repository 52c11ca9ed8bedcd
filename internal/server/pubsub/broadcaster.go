package pubsub

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/cache"
	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Config configures a Broadcaster.
type Config struct {
	// DefaultTopics are subscribed on open and restored by ResetToDefaults.
	DefaultTopics []string
	// QueueSize bounds every connection's outbound queue.
	QueueSize int
	// CacheTTL is how long the last payload of a quiet topic is kept.
	CacheTTL time.Duration
}

// Broadcaster is the registry of live connections.
type Broadcaster struct {
	mu     sync.RWMutex
	conns  map[uint64]*Conn
	nextID atomic.Uint64

	defaults  []string
	queueSize int
	last      *cache.Cache
	logger    *zerolog.Logger
}

// New creates a Broadcaster.
func New(cfg Config, logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = constants.SendQueueSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = constants.CacheTTL
	}
	defaults := slices.Clone(cfg.DefaultTopics)
	slices.Sort(defaults)
	defaults = slices.Compact(defaults)

	return &Broadcaster{
		conns:     make(map[uint64]*Conn),
		defaults:  defaults,
		queueSize: queueSize,
		last:      cache.New(ttl, constants.CacheCleanupInterval),
		logger:    logger,
	}
}

// Open registers a new connection from addr and subscribes it to the
// default topics.
func (b *Broadcaster) Open(addr string) *Conn {
	c := newConn(b.nextID.Add(1), addr, b.queueSize)
	c.reset(b.defaults)

	b.mu.Lock()
	b.conns[c.id] = c
	total := len(b.conns)
	b.mu.Unlock()

	b.logger.Info().
		Uint64("conn_id", c.id).
		Str("addr", addr).
		Int("total_conns", total).
		Msg("Connection opened")
	return c
}

// Close marks c dead and unregisters it. Closing twice is a no-op.
func (b *Broadcaster) Close(c *Conn) {
	c.markDead()

	b.mu.Lock()
	_, ok := b.conns[c.id]
	delete(b.conns, c.id)
	total := len(b.conns)
	b.mu.Unlock()

	if ok {
		b.logger.Info().
			Uint64("conn_id", c.id).
			Uint64("dropped", c.Dropped()).
			Int("total_conns", total).
			Msg("Connection closed")
	}
}

// CloseAll closes every registered connection.
func (b *Broadcaster) CloseAll() {
	b.mu.RLock()
	conns := make([]*Conn, 0, len(b.conns))
	for _, c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, c := range conns {
		b.Close(c)
	}
}

// Publish encodes [code, data] once, queues it on every live connection
// subscribed to topic and remembers data as the topic's last payload.
// It returns the number of connections the frame was queued on.
func (b *Broadcaster) Publish(topic string, code int, data any) int {
	msg, err := protocol.EncodeReply(code, data, nil)
	if err != nil {
		b.logger.Error().Err(err).Str("topic", topic).Int("code", code).Msg("Failed to encode payload")
		return 0
	}
	b.last.Put(topic, code, data)
	return b.Multicast(topic, msg)
}

// Multicast queues msg on every live connection subscribed to topic.
func (b *Broadcaster) Multicast(topic string, msg []byte) int {
	delivered := 0
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.conns {
		if c.Dead() || !c.Subscribed(topic) {
			continue
		}
		if c.Send(msg) {
			delivered++
		} else if !c.Dead() {
			b.logger.Debug().Uint64("conn_id", c.id).Str("topic", topic).Msg("Send queue full, frame dropped")
		}
	}
	return delivered
}

// ResetToDefaults drops every non-default topic of c and re-adds the defaults.
func (b *Broadcaster) ResetToDefaults(c *Conn) {
	c.reset(b.defaults)
}

// Last returns the last payload published on topic.
func (b *Broadcaster) Last(topic string) (any, bool) {
	e, ok := b.last.Last(topic)
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// Defaults returns the default topics.
func (b *Broadcaster) Defaults() []string {
	return slices.Clone(b.defaults)
}

// ConnCount returns the number of registered connections.
func (b *Broadcaster) ConnCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

// CacheStats reports the last-payload cache.
func (b *Broadcaster) CacheStats() cache.Stats {
	return b.last.GetStats()
}
