package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcec-chess/livefeed/internal/watch"
)

func TestTranscript_SurfacesEachCategory(t *testing.T) {
	text := strings.Join([]string{
		"x startpos y",
		"x go y",
		"engine <info pv e4 e5",
		"engine <bestmove e4",
	}, "\n")

	lines := NewTranscript().Classify(text)

	assert.Equal(t, []Line{
		{Tag: "start", Text: "x startpos y"},
		{Tag: "go", Text: "x go y"},
		{Tag: "pv", Text: "engine info pv e4 e5"},
		{Tag: "bestmove", Text: "engine bestmove e4"},
	}, lines)
}

func TestTranscript_NoPVKeepsOriginalOrder(t *testing.T) {
	text := "engine -> position startpos moves e2e4\nengine -> go wtime 1000\nnoise\nengine <bestmove e7e5\n"

	lines := NewTranscript().Classify(text)

	require.Len(t, lines, 3)
	assert.Equal(t, "start", lines[0].Tag)
	assert.Equal(t, "engine position startpos moves e2e4", lines[0].Text)
	assert.Equal(t, "go", lines[1].Tag)
	assert.Equal(t, "bestmove", lines[2].Tag)
}

func TestTranscript_StopsOnceAllCategoriesSeen(t *testing.T) {
	rows := []string{
		"old <- position startpos",
		"old <- go infinite",
		"new <- position startpos moves d2d4",
		"new <- go depth 30",
		"e <info depth 1 pv d7d5",
		"e <info depth 2 pv g8f6",
		"e <info depth 3 pv e7e6",
		"e <bestmove e7e6",
	}

	lines := NewTranscript().Classify(strings.Join(rows, "\n"))

	// The older start and go lines are never reached.
	var texts []string
	for _, l := range lines {
		texts = append(texts, l.Tag+"|"+l.Text)
	}
	assert.Equal(t, []string{
		"start|new position startpos moves d2d4",
		"go|new go depth 30",
		"|e info depth 1 pv d7d5",
		"|e info depth 2 pv g8f6",
		"pv|e info depth 3 pv e7e6",
		"bestmove|e bestmove e7e6",
	}, texts)
}

func TestTranscript_DuplicateVariationsAreSuppressed(t *testing.T) {
	rows := []string{
		"e <info depth 20 pv e2e4 e7e5",
		"e <info depth 21 pv e2e4 e7e5",
		"e <info depth 22 pv d2d4 d7d5",
		"e <info depth 23 pv e2e4 e7e5",
	}

	lines := NewTranscript().Classify(strings.Join(rows, "\n"))

	// Only two distinct variations: the newest is tagged, the other stays queued.
	require.Len(t, lines, 1)
	assert.Equal(t, Line{Tag: "pv", Text: "e info depth 23 pv e2e4 e7e5"}, lines[0])
}

func TestTranscript_CapsTaggedLines(t *testing.T) {
	var rows []string
	for i := 0; i < 20; i++ {
		rows = append(rows, fmt.Sprintf("gui -> setoption name Hash value %d", i))
	}

	lines := NewTranscript().Classify(strings.Join(rows, "\n"))

	require.Len(t, lines, maxTagged)
	assert.Equal(t, "gui setoption name Hash value 12", lines[0].Text)
	assert.Equal(t, "gui setoption name Hash value 19", lines[maxTagged-1].Text)
	for _, l := range lines {
		assert.Equal(t, "config", l.Tag)
	}
}

func TestTranscript_EngineMarkerBeyondOffsetIsNotPV(t *testing.T) {
	lines := NewTranscript().Classify("a very long engine name <info pv e2e4")
	assert.Empty(t, lines)
}

func TestTranscript_EmptyDeltaPublishesNothing(t *testing.T) {
	w := watch.New(watch.Spec{Filename: "/srv/live.log", Class: watch.ClassTranscript})
	_, ok := NewTranscript().Extract(w, watch.Delta{Text: []byte("\n\nnothing interesting\n")})
	assert.False(t, ok)
}

func TestTranscript_PayloadEncoding(t *testing.T) {
	w := watch.New(watch.Spec{Filename: "/srv/live.log", Class: watch.ClassTranscript})
	payload, ok := NewTranscript().Extract(w, watch.Delta{Text: []byte("e <bestmove e2e4\r\n")})
	require.True(t, ok)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"file":"live.log","lines":[["bestmove","e bestmove e2e4"]]}`, string(data))
}
