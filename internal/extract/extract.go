// Package extract turns raw deltas read from watched files into publishable
// payloads. Each file class has one extractor; an extractor that returns
// ok=false means there is nothing to publish this cycle.
package extract

import (
	"encoding/json"
	"path/filepath"

	"github.com/tcec-chess/livefeed/internal/watch"
)

// Extractor converts the delta of one poll into a payload.
type Extractor interface {
	Extract(w *watch.Watch, d watch.Delta) (payload any, ok bool)
}

// Line is one classified transcript line. It encodes as a [tag, text] pair.
type Line struct {
	Tag  string
	Text string
}

// MarshalJSON encodes the line as a two-element array.
func (l Line) MarshalJSON() ([]byte, error) {
	return marshalPair(l.Tag, l.Text)
}

// LogPayload is published for transcript deltas.
type LogPayload struct {
	File  string `json:"file"`
	Lines []Line `json:"lines"`
}

// TextPayload is published for game-record, change-log and snapshot deltas.
type TextPayload struct {
	File string `json:"file"`
	Text string `json:"text"`
	// Full is set when Text replaces the client's copy instead of extending it.
	Full bool `json:"full"`
}

// Set holds the extractor for every watch class.
type Set struct {
	Transcript  *Transcript
	GameRecord  *GameRecord
	Passthrough Passthrough
}

// NewSet builds the default extractors. sentinel is the game-complete marker
// stripped from the game record.
func NewSet(sentinel string) *Set {
	return &Set{
		Transcript: NewTranscript(),
		GameRecord: NewGameRecord(sentinel),
	}
}

// For returns the extractor handling a class.
func (s *Set) For(class watch.Class) Extractor {
	switch class {
	case watch.ClassTranscript:
		return s.Transcript
	case watch.ClassGameRecord:
		return s.GameRecord
	default:
		return s.Passthrough
	}
}

func marshalPair(a, b string) ([]byte, error) {
	return json.Marshal([2]string{a, b})
}

func fileName(w *watch.Watch) string {
	return filepath.Base(w.Filename())
}
