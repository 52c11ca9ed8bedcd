package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{name: "default level when no flags set", config: &Config{}, expected: "info"},
		{name: "verbose flag sets debug", config: &Config{Verbose: true}, expected: "debug"},
		{name: "quiet flag sets warn", config: &Config{Quiet: true}, expected: "warn"},
		{name: "explicit log-level overrides verbose", config: &Config{LogLevel: "error", Verbose: true}, expected: "error"},
		{name: "explicit log-level overrides quiet", config: &Config{LogLevel: "trace", Quiet: true}, expected: "trace"},
		{name: "quiet wins over verbose", config: &Config{Verbose: true, Quiet: true}, expected: "warn"},
		{name: "invalid log-level falls back to info", config: &Config{LogLevel: "loud"}, expected: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineLogLevel(tt.config))
		})
	}
}

// TestConfig_UpdateFromFlags verifies that empty flag values keep loaded ones.
func TestConfig_UpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", LogLevel: "debug"}
	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "debug", c.LogLevel)

	c.UpdateFromFlags(false, true, false, "json", "warn")
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "warn", c.LogLevel)
}
