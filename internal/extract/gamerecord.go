package extract

import (
	"bytes"

	"github.com/tcec-chess/livefeed/internal/watch"
)

// DefaultSentinel is the PGN result token of a game still in progress.
const DefaultSentinel = "*"

// GameRecord trims the trailing game-complete sentinel from game-record
// deltas. The stripped bytes are handed back to the watch so they are read
// again once the writer replaces the sentinel with more moves.
type GameRecord struct {
	Sentinel []byte
}

// NewGameRecord returns a trimmer for the given sentinel.
func NewGameRecord(sentinel string) *GameRecord {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return &GameRecord{Sentinel: []byte(sentinel)}
}

// Trim strips the sentinel and at most one line break after it. It returns
// the remaining text and the number of bytes removed.
func (g *GameRecord) Trim(text []byte) ([]byte, int) {
	end := len(text)
	if end > 0 && text[end-1] == '\n' {
		end--
		if end > 0 && text[end-1] == '\r' {
			end--
		}
	}
	if len(g.Sentinel) == 0 || !bytes.HasSuffix(text[:end], g.Sentinel) {
		return text, 0
	}
	cut := end - len(g.Sentinel)
	return text[:cut], len(text) - cut
}

// Extract implements Extractor. A resync is always published, even when
// nothing but the sentinel remains, so clients drop the replaced game.
func (g *GameRecord) Extract(w *watch.Watch, d watch.Delta) (any, bool) {
	text, stripped := g.Trim(d.Text)
	if stripped > 0 {
		w.Unread(stripped)
	}
	if len(text) == 0 && !d.Resync {
		return nil, false
	}
	return TextPayload{File: fileName(w), Text: string(text), Full: d.Resync}, true
}
