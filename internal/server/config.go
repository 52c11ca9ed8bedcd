package server

import (
	"time"

	"github.com/spf13/afero"

	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	RateLimit   int // Requests per minute per IP (0 to disable)
	CacheTTL    time.Duration
	QueueSize   int
	MaxBodySize int64

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Watch engine
	Notify bool
	// Fs is the filesystem watched files are read from. Nil uses the OS.
	Fs afero.Fs

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           constants.DefaultHost,
		Port:           constants.DefaultPort,
		CORSEnabled:    true,
		RateLimit:      constants.DefaultRateLimit,
		CacheTTL:       constants.CacheTTL,
		QueueSize:      constants.SendQueueSize,
		MaxBodySize:    constants.MaxUploadSize,
		ReadTimeout:    constants.ReadTimeout,
		WriteTimeout:   constants.WriteTimeout,
		IdleTimeout:    constants.IdleTimeout,
		MetricsEnabled: true,
	}
}
