// Package serve implements the serve command.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/server"
	"github.com/tcec-chess/livefeed/pkg/constants"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Tail the live files and serve them to clients",
		Long: `Start the broadcast server.

Every configured file is polled on its own interval. Changes are extracted
and pushed to the WebSocket connections subscribed to the file's topic.

Endpoints:
  /api, /api/   request endpoint (GET ?0=<code>&1=<json>, POST body, or WebSocket)
  /up, /up/     upload endpoint, the raw body becomes the data argument
  /ws           WebSocket only
  /health       health check
  /metrics      plain text gauges`,
		Example: `  livefeed serve
  livefeed serve --port 8080 --live-prefix /var/tcec/live/
  livefeed serve --notify --rate-limit 600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromFlags(cmd, app)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), app, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntP("port", "p", defaults.Port, "Server port")
	flags.String("host", defaults.Host, "Bind address")
	flags.Bool("cors", defaults.CORSEnabled, "Enable CORS")
	flags.StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated, default all)")
	flags.Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	flags.Duration("cache-ttl", defaults.CacheTTL, "How long the last payload of a topic is kept")
	flags.Int("queue-size", defaults.QueueSize, "Outbound frames buffered per connection")
	flags.Int64("max-body", defaults.MaxBodySize, "Largest accepted request body in bytes")
	flags.Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	flags.Bool("metrics", defaults.MetricsEnabled, "Enable metrics endpoint")
	flags.Bool("notify", false, "Poll files as soon as the filesystem reports a write")

	return cmd
}

// configFromFlags builds the server configuration from the command flags.
// The flags are all defined by NewCommand, so lookups cannot fail.
func configFromFlags(cmd *cobra.Command, app application.Application) (server.Config, error) {
	cfg := server.DefaultConfig()
	flags := cmd.Flags()

	cfg.Port, _ = flags.GetInt("port")
	cfg.Host, _ = flags.GetString("host")
	cfg.CORSEnabled, _ = flags.GetBool("cors")
	cfg.CORSOrigins, _ = flags.GetStringSlice("cors-origins")
	cfg.RateLimit, _ = flags.GetInt("rate-limit")
	cfg.CacheTTL, _ = flags.GetDuration("cache-ttl")
	cfg.QueueSize, _ = flags.GetInt("queue-size")
	cfg.MaxBodySize, _ = flags.GetInt64("max-body")
	cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	cfg.WriteTimeout, _ = flags.GetDuration("write-timeout")
	cfg.IdleTimeout, _ = flags.GetDuration("idle-timeout")
	cfg.MetricsEnabled, _ = flags.GetBool("metrics")
	notify, _ := flags.GetBool("notify")
	cfg.Notify = notify || app.Notify()

	if cfg.Port < 0 || cfg.Port > 65535 {
		return cfg, errors.NewValidationError("port", cfg.Port, "port must be between 0 and 65535")
	}
	if cfg.QueueSize <= 0 {
		return cfg, errors.NewValidationError("queue-size", cfg.QueueSize, "queue size must be positive")
	}
	return cfg, nil
}

// Run serves until ctx is cancelled, then shuts the HTTP server and the
// broadcast services down.
func Run(ctx context.Context, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	if err := srv.Start(); err != nil {
		_ = listener.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", listener.Addr().String()).
			Int("rate_limit", cfg.RateLimit).
			Bool("cors", cfg.CORSEnabled).
			Bool("notify", cfg.Notify).
			Msg("Server starting")
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		httpErr := httpServer.Shutdown(shutdownCtx)
		srvErr := srv.Shutdown(shutdownCtx)
		if err := errors.Join(httpErr, srvErr); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info().Msg("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}
