package tail

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/cmd/application"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&application.Mock{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// TestTail_Once tests a single poll of each class.
func TestTail_Once(t *testing.T) {
	dir := t.TempDir()
	pgn := filepath.Join(dir, "live.pgn")
	banner := filepath.Join(dir, "banner.txt")
	require.NoError(t, os.WriteFile(pgn, []byte("1. e4 *\n"), 0o644))
	require.NoError(t, os.WriteFile(banner, []byte("Welcome"), 0o644))

	out, err := execute(t, context.Background(), pgn, "--class", "pgn", "--once")
	require.NoError(t, err)
	assert.JSONEq(t, `[11,{"file":"live.pgn","text":"1. e4 ","full":false}]`, out)

	out, err = execute(t, context.Background(), banner, "--once")
	require.NoError(t, err)
	assert.JSONEq(t, `[12,{"file":"banner.txt","text":"Welcome","full":true}]`, out)
}

// TestTail_Errors tests argument validation.
func TestTail_Errors(t *testing.T) {
	_, err := execute(t, context.Background())
	assert.Error(t, err)

	_, err = execute(t, context.Background(), "x", "--class", "movie")
	assert.Error(t, err)
}

// TestTail_Follow tests that appended text is printed until cancellation.
func TestTail_Follow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	out, err := execute(t, ctx, path, "--class", "changelog", "--interval", "20ms")
	require.NoError(t, err)
	assert.Contains(t, out, `"text":"first\n"`)
}

// TestPrinter tests line output.
func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.Equal(t, 1, p.Publish("t", 4, map[string]int{"a": 1}))
	assert.Equal(t, 0, p.Publish("t", 4, func() {}))
	assert.Equal(t, 1, p.Count())
	assert.Equal(t, "[4,{\"a\":1}]\n", buf.String())
}
