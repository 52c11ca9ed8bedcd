// Package pubsub keeps the registry of live connections and fans published
// messages out to the ones subscribed to a topic.
package pubsub

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one outbound message waiting in a connection queue.
type Frame struct {
	Data   []byte
	Binary bool
}

// Conn is the server side of one client connection. The transport owns the
// actual socket and drains Outbound.
type Conn struct {
	id       uint64
	addr     string
	openedAt time.Time

	mu     sync.RWMutex
	topics map[string]struct{}

	dead     atomic.Bool
	dropped  atomic.Uint64
	send     chan Frame
	done     chan struct{}
	doneOnce sync.Once
}

func newConn(id uint64, addr string, queueSize int) *Conn {
	return &Conn{
		id:       id,
		addr:     addr,
		openedAt: time.Now(),
		topics:   make(map[string]struct{}),
		send:     make(chan Frame, queueSize),
		done:     make(chan struct{}),
	}
}

// ID returns the connection id assigned on open.
func (c *Conn) ID() uint64 { return c.id }

// Addr returns the caller address.
func (c *Conn) Addr() string { return c.addr }

// OpenedAt returns when the connection was registered.
func (c *Conn) OpenedAt() time.Time { return c.openedAt }

// Subscribe adds topic and reports whether it was new.
func (c *Conn) Subscribe(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.topics[topic]; ok {
		return false
	}
	c.topics[topic] = struct{}{}
	return true
}

// Unsubscribe removes topic and reports whether it was present.
func (c *Conn) Unsubscribe(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.topics[topic]; !ok {
		return false
	}
	delete(c.topics, topic)
	return true
}

// Subscribed reports whether the connection listens to topic.
func (c *Conn) Subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

// Topics returns the subscribed topics in sorted order.
func (c *Conn) Topics() []string {
	c.mu.RLock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	c.mu.RUnlock()
	slices.Sort(topics)
	return topics
}

// reset replaces the topic set with exactly defaults.
func (c *Conn) reset(defaults []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.topics)
	for _, t := range defaults {
		c.topics[t] = struct{}{}
	}
}

// Dead reports whether the transport has closed the connection.
func (c *Conn) Dead() bool { return c.dead.Load() }

// Done is closed when the connection dies.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Dropped returns how many frames were discarded because the queue was full.
func (c *Conn) Dropped() uint64 { return c.dropped.Load() }

// Outbound is drained by the transport write loop.
func (c *Conn) Outbound() <-chan Frame { return c.send }

// Send queues a text frame without blocking. It returns false when the
// connection is dead or its queue is full.
func (c *Conn) Send(data []byte) bool {
	return c.enqueue(Frame{Data: data})
}

// SendBinary queues a binary frame without blocking.
func (c *Conn) SendBinary(data []byte) bool {
	return c.enqueue(Frame{Data: data, Binary: true})
}

func (c *Conn) enqueue(f Frame) bool {
	if c.dead.Load() {
		return false
	}
	select {
	case c.send <- f:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// markDead flags the connection so nothing more is sent to it.
func (c *Conn) markDead() {
	c.dead.Store(true)
	c.doneOnce.Do(func() { close(c.done) })
}
