// Package application provides the application interface for livefeed commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with a Mock:
//
//	mock := &application.Mock{
//	    WatchesFunc: func() ([]watch.Spec, error) {
//	        return []watch.Spec{{Filename: "live.pgn", Class: watch.ClassGameRecord}}, nil
//	    },
//	}
//	cmd := serve.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/watch"
)

// Application provides what commands need from the process-wide setup.
//
// All methods must be safe for concurrent access.
type Application interface {
	// Catalog returns the validated message catalog.
	Catalog() (*protocol.Catalog, error)

	// Watches returns the watched files derived from configuration.
	Watches() ([]watch.Spec, error)

	// Subscribes returns the topics every connection starts with.
	Subscribes() []string

	// Notify reports whether filesystem notifications should trigger polls
	// between ticks.
	Notify() bool

	// Sentinel returns the game-complete marker stripped from the game record.
	Sentinel() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, yaml, json).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
