// Package constants provides shared constants used throughout the livefeed codebase.
// This includes timeouts, buffer sizes, file permissions and the default
// watch intervals that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server and the poller
	ShutdownTimeout = 30 * time.Second

	// BackgroundShutdownTimeout bounds shutdown of background services
	BackgroundShutdownTimeout = 5 * time.Second

	// ReadTimeout is the HTTP read timeout
	ReadTimeout = 10 * time.Second

	// WriteTimeout is the HTTP write timeout
	WriteTimeout = 10 * time.Second

	// IdleTimeout is the HTTP keep-alive idle timeout
	IdleTimeout = 120 * time.Second
)

// Watch constants
const (
	// AlignBlock is the number of trailing bytes re-read and compared to
	// detect a rewritten tail in the game-record file
	AlignBlock = 64

	// ReadBufferSize is the scratch buffer size used by each watch
	ReadBufferSize = 64 * 1024

	// MaxJitter is the upper bound of the random delay added to each poll interval
	MaxJitter = 10 * time.Millisecond

	// IntervalLog is the default poll interval of the transcript log
	IntervalLog = 1 * time.Second

	// IntervalPGN is the default poll interval of the game-record file
	IntervalPGN = 1 * time.Second

	// IntervalFast is the default poll interval of frequently rewritten snapshots
	IntervalFast = 1 * time.Second

	// IntervalSlow is the default poll interval of rarely rewritten snapshots
	IntervalSlow = 10 * time.Second

	// NotifyDebounce coalesces bursts of filesystem notifications
	NotifyDebounce = 50 * time.Millisecond
)

// Connection constants
const (
	// SendQueueSize is the outbound queue length of a single connection.
	// Messages beyond it are dropped.
	SendQueueSize = 256

	// MaxMessageSize is the largest inbound socket message accepted
	MaxMessageSize = 4096

	// MaxUploadSize is the largest accepted /up request body
	MaxUploadSize = 1 << 20

	// WriteWait is the time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong message from the peer
	PongWait = 60 * time.Second

	// PingPeriod sends pings to the peer with this period. Must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10
)

// Cache constants
const (
	// CacheTTL is how long the last payload of a topic is remembered
	CacheTTL = 24 * time.Hour

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 1 * time.Hour
)

// Logging constants
const (
	// LogRotationSizeMB is the maximum size in megabytes of a log file before rotation
	LogRotationSizeMB = 10

	// LogRotationAgeDays is the maximum age of log files before deletion
	LogRotationAgeDays = 7

	// LogRotationBackups is the maximum number of old log files to retain
	LogRotationBackups = 5
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Server defaults
const (
	// DefaultHost is the default bind address
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default listening port
	DefaultPort = 3000

	// DefaultRateLimit is the default requests per minute per IP (0 disables)
	DefaultRateLimit = 0
)
