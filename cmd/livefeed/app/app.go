// Package app provides the application context and dependency management
// for the livefeed CLI. It centralizes configuration, logging and the
// settings every command reads.
package app

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/config"
	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/watch"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

var _ application.Application = (*App)(nil)

// App represents the livefeed application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	fs     afero.Fs

	// Live settings and the catalog (lazy-initialized after flags are parsed)
	mu      sync.RWMutex
	live    *config.Live
	catalog *protocol.Catalog
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		fs:      afero.NewOsFs(),
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Live returns the live settings, reading them once.
func (a *App) Live() (*config.Live, error) {
	a.mu.RLock()
	if a.live != nil {
		live := a.live
		a.mu.RUnlock()
		return live, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live != nil {
		return a.live, nil
	}

	live, err := config.Load(a.config.Viper())
	if err != nil {
		return nil, err
	}
	a.live = live
	return live, nil
}

// Catalog returns the message catalog, loading catalog_file on first use.
func (a *App) Catalog() (*protocol.Catalog, error) {
	live, err := a.Live()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil {
		return a.catalog, nil
	}
	c, err := live.Catalog(a.fs)
	if err != nil {
		return nil, errors.NewConfigError("catalog", "failed to load message catalog", err)
	}
	a.catalog = c
	return c, nil
}

// Watches returns the configured watch list.
func (a *App) Watches() ([]watch.Spec, error) {
	live, err := a.Live()
	if err != nil {
		return nil, err
	}
	return live.Specs()
}

// Subscribes returns the default topics of new connections.
func (a *App) Subscribes() []string {
	live, err := a.Live()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Invalid configuration, no default topics")
		return nil
	}
	return live.Subscribes
}

// Sentinel returns the game-complete marker.
func (a *App) Sentinel() string {
	live, err := a.Live()
	if err != nil {
		return "*"
	}
	return live.Sentinel
}

// Notify reports whether fsnotify is enabled.
func (a *App) Notify() bool {
	live, err := a.Live()
	if err != nil {
		return false
	}
	return live.Notify
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithFs sets the filesystem the catalog file is read from.
func WithFs(fs afero.Fs) Option {
	return func(a *App) error {
		a.fs = fs
		return nil
	}
}
