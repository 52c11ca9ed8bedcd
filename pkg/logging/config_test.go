package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/pkg/logging"
)

func TestConfigFunctions(t *testing.T) {
	originalLogger := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(originalLogger)
		zerolog.SetGlobalLevel(originalLevel)
	})

	t.Run("DefaultConfig returns sensible defaults", func(t *testing.T) {
		cfg := logging.DefaultConfig()
		require.NotNil(t, cfg)
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "auto", cfg.Format)
		assert.Equal(t, "stderr", cfg.Output)
		assert.False(t, cfg.AddCaller)
		assert.Positive(t, cfg.MaxSizeMB)
	})

	t.Run("file output goes through the rotating writer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "livefeed.log")

		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "info",
			Format: "json",
			Output: path,
		})
		logger.Info().Str("file", "live.pgn").Msg("test message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
		assert.Contains(t, string(content), `"file":"live.pgn"`)
	})

	t.Run("default fields are attached", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "info",
			Format: "json",
			Output: "discard",
			Fields: map[string]any{"service": "livefeed", "port": 3000},
		}).Output(buf)

		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), `"service":"livefeed"`)
		assert.Contains(t, buf.String(), `"port":3000`)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_ = logging.NewLoggerFromConfig(nil)
		})
	})
}

func TestLevels(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "error", wantDebug: false, wantInfo: false},
		{level: "bogus", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  tt.level,
				Format: "json",
				Output: "discard",
			}).Output(buf)

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte(`"level":"debug"`)))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte(`"level":"info"`)))
		})
	}
}
