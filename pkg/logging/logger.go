// Package logging provides structured logging for the livefeed server using zerolog.
// Console output is used when stderr is a terminal and JSON everywhere else,
// which keeps the server's logs machine-readable when it runs under a supervisor.
//
// Components take a *zerolog.Logger at construction and log with the fields
// file, topic, conn_id, code and method:
//
//	logger.Warn().
//	    Str("topic", "live.log").
//	    Uint64("conn_id", 7).
//	    Msg("Dropped message for saturated connection")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = NewLoggerFromConfig(envConfig())

// envConfig reads LOG_LEVEL and LOG_FORMAT for the logger used before the
// CLI has parsed its configuration.
func envConfig() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	} else if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return cfg
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, zerolog's global included.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
