// Package server wires the watch engine, the broadcaster and the dispatch
// router behind one HTTP and WebSocket endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/extract"
	"github.com/tcec-chess/livefeed/internal/poller"
	"github.com/tcec-chess/livefeed/internal/server/dispatch"
	"github.com/tcec-chess/livefeed/internal/server/pubsub"
	"github.com/tcec-chess/livefeed/internal/watch"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app         application.Application
	registry    *watch.Registry
	broadcaster *pubsub.Broadcaster
	router      *dispatch.Router
	poller      *poller.Poller
	upgrader    websocket.Upgrader
	logger      *zerolog.Logger
	config      Config
	ctx         context.Context
	cancel      context.CancelFunc
	startTime   time.Time
	stopOnce    sync.Once
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()
	logger.Debug().Msg("Creating new server instance")

	catalog, err := app.Catalog()
	if err != nil {
		return nil, err
	}
	specs, err := app.Watches()
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("watches", len(specs)).Msg("Creating watch registry")
	registry, err := watch.NewRegistry(specs)
	if err != nil {
		return nil, err
	}

	broadcaster := pubsub.New(pubsub.Config{
		DefaultTopics: app.Subscribes(),
		QueueSize:     cfg.QueueSize,
		CacheTTL:      cfg.CacheTTL,
	}, logger)

	logger.Debug().Int("messages", catalog.Len()).Msg("Binding methods to catalog")
	router, err := dispatch.NewRouter(catalog, dispatch.Builtins(broadcaster, broadcaster), logger)
	if err != nil {
		return nil, err
	}

	p := poller.New(
		registry,
		watch.NewTailer(cfg.Fs, logger),
		extract.NewSet(app.Sentinel()),
		broadcaster,
		poller.Config{Codes: poller.CodesFromCatalog(catalog), Notify: cfg.Notify},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		app:         app,
		registry:    registry,
		broadcaster: broadcaster,
		router:      router,
		poller:      p,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // browsers connect from the public site
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	logger.Debug().Msg("Server instance created successfully")
	return server, nil
}

// Start starts the poller.
func (s *Server) Start() error {
	s.logger.Debug().Msg("Starting background services")
	return s.poller.Start(s.ctx)
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the poller, closes every file handle and closes every
// connection. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("Shutting down server background services")
		s.cancel()

		done := make(chan error, 1)
		go func() { done <- s.poller.Stop() }()

		select {
		case err = <-done:
		case <-ctx.Done():
			err = errors.Join(ctx.Err(), errors.New("poller did not stop in time"))
		}
		s.broadcaster.CloseAll()
		s.logger.Info().Dur("uptime", time.Since(s.startTime)).Msg("Background services shut down")
	})
	return err
}

// Broadcaster returns the pub/sub registry.
func (s *Server) Broadcaster() *pubsub.Broadcaster {
	return s.broadcaster
}

// Poller returns the poller.
func (s *Server) Poller() *poller.Poller {
	return s.poller
}

// Registry returns the watch registry.
func (s *Server) Registry() *watch.Registry {
	return s.registry
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
