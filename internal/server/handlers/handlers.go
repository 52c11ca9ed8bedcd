// Package handlers provides the HTTP and WebSocket entry points of the
// livefeed server.
package handlers

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/cache"
	ws "github.com/tcec-chess/livefeed/internal/server/websocket"
)

// Router answers decoded and raw requests.
type Router interface {
	HandleRequest(ctx context.Context, raw []byte, addr string) []byte
	HandleDecoded(ctx context.Context, req protocol.Request, addr string) []byte
	ws.Dispatcher
}

// Broadcaster is the connection registry used by sockets and health checks.
type Broadcaster interface {
	ws.Registry
	ConnCount() int
	CacheStats() cache.Stats
}

// Stats reports the watch engine state for health checks.
type Stats interface {
	Len() int
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	router      Router
	broadcaster Broadcaster
	watches     Stats
	upgrader    websocket.Upgrader
	logger      *zerolog.Logger
	maxBody     int64
	version     string
}

// New creates a new Handlers instance.
func New(
	router Router,
	broadcaster Broadcaster,
	watches Stats,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	maxBody int64,
	version string,
) *Handlers {
	return &Handlers{
		router:      router,
		broadcaster: broadcaster,
		watches:     watches,
		upgrader:    upgrader,
		logger:      logger,
		maxBody:     maxBody,
		version:     version,
	}
}
