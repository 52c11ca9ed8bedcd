// Package watch holds the per-file tailing state and the engine that reads
// incremental deltas from it.
//
// A Watch is created once at startup for every tracked file and lives for the
// whole process. All of its mutable state is owned by the poll task driving it;
// nothing in this package locks.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Class selects how a file is read and which extractor handles its text.
type Class int

const (
	// ClassTranscript is the incrementally appended engine transcript.
	ClassTranscript Class = iota
	// ClassGameRecord is the incrementally appended game record whose tail
	// may be rewritten in place.
	ClassGameRecord
	// ClassChangeLog is an append-only log republished verbatim.
	ClassChangeLog
	// ClassSnapshot is a file rewritten as a whole and re-read in full every poll.
	ClassSnapshot
)

var classNames = map[Class]string{
	ClassTranscript: "transcript",
	ClassGameRecord: "game-record",
	ClassChangeLog:  "change-log",
	ClassSnapshot:   "snapshot",
}

// String returns the configuration name of the class.
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Incremental reports whether reads continue from the last position.
func (c Class) Incremental() bool {
	return c != ClassSnapshot
}

// Realigns reports whether the class verifies the bytes preceding its position.
func (c Class) Realigns() bool {
	return c == ClassGameRecord
}

// ParseClass converts a configuration name into a Class.
func ParseClass(name string) (Class, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "pgn", "game", "gamerecord":
		return ClassGameRecord, nil
	case "log":
		return ClassTranscript, nil
	case "changelog":
		return ClassChangeLog, nil
	case "json", "full":
		return ClassSnapshot, nil
	}
	for c, n := range classNames {
		if n == normalized {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown watch class %q", name)
}

// Spec is the static configuration of one watched file.
type Spec struct {
	Filename string
	Class    Class
	Interval time.Duration
	// Topic defaults to the base name of Filename.
	Topic string
}

// Watch is the tailing state of a single file.
type Watch struct {
	filename string
	class    Class
	interval time.Duration
	topic    string

	position int64
	size     int64
	prevSize int64
	modTime  time.Time
	// truncated is set when a stat shows the file shorter than position.
	truncated bool

	buffer          []byte
	lastText        []byte
	lastPublishedAt time.Time

	file afero.File
}

// New creates a Watch from its spec.
func New(spec Spec) *Watch {
	topic := spec.Topic
	if topic == "" {
		topic = filepath.Base(spec.Filename)
	}
	interval := spec.Interval
	if interval <= 0 {
		interval = constants.IntervalSlow
	}
	return &Watch{
		filename: spec.Filename,
		class:    spec.Class,
		interval: interval,
		topic:    topic,
		buffer:   make([]byte, constants.ReadBufferSize),
	}
}

// Filename returns the watched path.
func (w *Watch) Filename() string { return w.filename }

// Class returns the file class.
func (w *Watch) Class() Class { return w.class }

// Interval returns the poll interval.
func (w *Watch) Interval() time.Duration { return w.interval }

// Topic returns the broadcast topic.
func (w *Watch) Topic() string { return w.topic }

// Position returns the offset of the last consumed byte.
func (w *Watch) Position() int64 { return w.position }

// Size returns the last observed length.
func (w *Watch) Size() int64 { return w.size }

// PrevSize returns the length observed before the last change.
func (w *Watch) PrevSize() int64 { return w.prevSize }

// LastText returns the bytes of the most recent read, including any
// realignment window. It always ends at Position.
func (w *Watch) LastText() []byte { return w.lastText }

// LastPublishedAt returns when the watch last produced a published payload.
func (w *Watch) LastPublishedAt() time.Time { return w.lastPublishedAt }

// IsOpen reports whether the watch holds a file handle.
func (w *Watch) IsOpen() bool { return w.file != nil }

// Changed records a stat result and reports whether the file should be read.
// Empty files never are. Snapshot files also count a new modification time
// as a change since they can be rewritten at the same length. An incremental
// file that shrank below the read position is re-read from the start.
func (w *Watch) Changed(size int64, modTime time.Time) bool {
	if size == 0 {
		return false
	}
	if w.class.Incremental() && size < w.position {
		w.truncated = true
	}
	changed := size != w.size
	if !changed && !w.class.Incremental() && !modTime.Equal(w.modTime) {
		changed = true
	}
	w.modTime = modTime
	if changed {
		w.prevSize = w.size
	}
	return changed
}

// MarkPublished stamps the publish time.
func (w *Watch) MarkPublished(at time.Time) {
	w.lastPublishedAt = at
}

// Unread gives n bytes back so the next read sees them again.
func (w *Watch) Unread(n int) {
	if n <= 0 {
		return
	}
	if int64(n) > w.position {
		n = int(w.position)
	}
	w.position -= int64(n)
	w.size = w.position
	if n >= len(w.lastText) {
		w.lastText = w.lastText[:0]
	} else {
		w.lastText = w.lastText[:len(w.lastText)-n]
	}
}

// Close releases the file handle. The next read reopens it.
func (w *Watch) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
