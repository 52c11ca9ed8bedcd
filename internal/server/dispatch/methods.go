package dispatch

import (
	"context"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/pubsub"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Method handles one catalog message. conn is nil on the request path.
type Method interface {
	Name() string
	// NoReply methods never answer, whatever they return.
	NoReply() bool
	Call(ctx context.Context, q protocol.Query, conn *pubsub.Conn) (any, error)
}

// Subscriptions restores a connection's default topics.
type Subscriptions interface {
	ResetToDefaults(c *pubsub.Conn)
}

// LastValues serves the last payload published on a topic.
type LastValues interface {
	Last(topic string) (any, bool)
}

// Builtins returns the methods served by every deployment.
func Builtins(subs Subscriptions, last LastValues) []Method {
	return []Method{
		ipGet{},
		userSubscribe{subs: subs},
		userUnsubscribe{subs: subs},
		feedGet{last: last},
	}
}

type ipGet struct{}

func (ipGet) Name() string  { return protocol.IPGet }
func (ipGet) NoReply() bool { return false }

func (ipGet) Call(_ context.Context, q protocol.Query, _ *pubsub.Conn) (any, error) {
	if ip := q.String(protocol.FieldIP); ip != "" {
		return ip, nil
	}
	return nil, nil
}

type userSubscribe struct {
	subs Subscriptions
}

func (userSubscribe) Name() string  { return protocol.UserSubscribe }
func (userSubscribe) NoReply() bool { return false }

func (m userSubscribe) Call(_ context.Context, q protocol.Query, conn *pubsub.Conn) (any, error) {
	if conn == nil {
		return nil, nil
	}
	if q.Bool(protocol.FieldClear) {
		m.subs.ResetToDefaults(conn)
	}
	channels := q.Strings(protocol.FieldChannels)
	for _, ch := range channels {
		conn.Subscribe(ch)
	}
	if channels == nil {
		return []string{}, nil
	}
	return channels, nil
}

type userUnsubscribe struct {
	subs Subscriptions
}

func (userUnsubscribe) Name() string  { return protocol.UserUnsubscribe }
func (userUnsubscribe) NoReply() bool { return true }

func (m userUnsubscribe) Call(_ context.Context, _ protocol.Query, conn *pubsub.Conn) (any, error) {
	if conn != nil {
		m.subs.ResetToDefaults(conn)
	}
	return nil, nil
}

type feedGet struct {
	last LastValues
}

func (feedGet) Name() string  { return protocol.FeedGet }
func (feedGet) NoReply() bool { return false }

func (m feedGet) Call(_ context.Context, q protocol.Query, _ *pubsub.Conn) (any, error) {
	topic := q.String(protocol.FieldTopic)
	if topic == "" {
		return nil, errors.NewValidationError(protocol.FieldTopic, nil, "topic is required")
	}
	data, ok := m.last.Last(topic)
	if !ok {
		return nil, nil
	}
	return data, nil
}
