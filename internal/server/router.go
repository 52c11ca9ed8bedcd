package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tcec-chess/livefeed/internal/server/handlers"
	"github.com/tcec-chess/livefeed/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.router,
		s.broadcaster,
		s.registry,
		s.upgrader,
		s.logger,
		s.config.MaxBodySize,
		s.app.Version(),
	)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/health", h.HandleHealth)

	mux.HandleFunc("/api", h.HandleAPI)
	mux.HandleFunc("/api/", h.HandleAPI)
	mux.HandleFunc("/up", h.HandleUpload)
	mux.HandleFunc("/up/", h.HandleUpload)
	mux.HandleFunc("/ws", h.HandleWebSocket)

	if s.config.MetricsEnabled {
		mux.HandleFunc("/metrics", s.handleMetrics)
	}

	mux.HandleFunc("/", h.HandleRoot)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "# TYPE livefeed_info gauge\n")
	_, _ = fmt.Fprintf(w, "livefeed_info{version=%q} 1\n", s.app.Version())
	_, _ = fmt.Fprintf(w, "# TYPE livefeed_connections gauge\n")
	_, _ = fmt.Fprintf(w, "livefeed_connections %d\n", s.broadcaster.ConnCount())
	_, _ = fmt.Fprintf(w, "# TYPE livefeed_watches gauge\n")
	_, _ = fmt.Fprintf(w, "livefeed_watches %d\n", s.registry.Len())
	_, _ = fmt.Fprintf(w, "# TYPE livefeed_cached_topics gauge\n")
	_, _ = fmt.Fprintf(w, "livefeed_cached_topics %d\n", s.broadcaster.CacheStats().Topics)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if cfg.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute, s.logger)
		handler = middleware.RateLimit(rateLimiter)(handler)
	}

	if cfg.CORSEnabled {
		handler = middleware.CORS(cfg.CORSOrigins)(handler)
	}

	// Logging and recovery (always enabled)
	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
	)(handler)
}
