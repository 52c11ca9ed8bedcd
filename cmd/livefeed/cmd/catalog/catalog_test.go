package catalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/protocol"
)

// TestBuild tests message kinds.
func TestBuild(t *testing.T) {
	rows := Build(protocol.DefaultCatalog())
	require.Len(t, rows, 7)
	assert.Equal(t, Row{Code: 1, Name: protocol.IPGet, Kind: KindRequest}, rows[0])
	assert.Equal(t, Row{Code: 3, Name: protocol.UserUnsubscribe, Kind: KindNoReply}, rows[2])
	assert.Equal(t, Row{Code: 12, Name: protocol.FeedFile, Kind: KindBroadcast}, rows[6])
}

// TestCommand tests each output format.
func TestCommand(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: `"name": "feed_pgn"`},
		{format: "yaml", want: "name: feed_pgn"},
		{format: "table", want: "feed_pgn"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd := NewCommand(&application.Mock{Format: tt.format})
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), tt.want)
		})
	}

	cmd := NewCommand(&application.Mock{Format: "xml"})
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
