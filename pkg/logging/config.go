package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error or off.
	Level string

	// Format is json, console or auto. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard, or a file path rotated by size.
	Output string

	// TimeFormat is kitchen, rfc3339, rfc3339nano, unix or a Go layout.
	TimeFormat string

	NoColor   bool
	AddCaller bool

	// Fields are attached to every event, e.g. the listening port.
	Fields map[string]any

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		MaxSizeMB:  constants.LogRotationSizeMB,
		MaxBackups: constants.LogRotationBackups,
		MaxAgeDays: constants.LogRotationAgeDays,
	}
}

// NewLoggerFromConfig builds a logger. It also sets the zerolog global level
// so library loggers created later agree with it.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	if len(cfg.Fields) > 0 {
		ctx = ctx.Fields(cfg.Fields)
	}
	return ctx.Logger()
}

func writerFor(cfg *Config) io.Writer {
	var out io.Writer
	terminal := false
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out, terminal = os.Stdout, isTerminal(os.Stdout)
	case "", "stderr":
		out, terminal = os.Stderr, isTerminal(os.Stderr)
	case "discard", "none":
		out = io.Discard
	default:
		out = &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    positiveOr(cfg.MaxSizeMB, constants.LogRotationSizeMB),
			MaxBackups: positiveOr(cfg.MaxBackups, constants.LogRotationBackups),
			MaxAge:     positiveOr(cfg.MaxAgeDays, constants.LogRotationAgeDays),
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
	case "json":
		return out
	default:
		if !terminal {
			return out
		}
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeLayout(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

func timeLayout(format string) string {
	switch strings.ToLower(format) {
	case "", "kitchen":
		return time.Kitchen
	case "rfc3339":
		return time.RFC3339
	case "rfc3339nano":
		return time.RFC3339Nano
	case "unix":
		return ""
	}
	if strings.Contains(format, "2006") || strings.Contains(format, "15:04") {
		return format
	}
	return time.Kitchen
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
