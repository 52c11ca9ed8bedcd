package watch

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/tcec-chess/livefeed/pkg/constants"
	pkgerrors "github.com/tcec-chess/livefeed/pkg/errors"
)

// Delta is the new text produced by one read of a Watch.
type Delta struct {
	Text []byte
	// Resync is set when the file was re-read from offset zero because its
	// tail no longer matched what was read before. Text then holds the whole
	// file and replaces earlier content instead of extending it.
	Resync bool
}

// Empty reports whether the delta carries no text.
func (d Delta) Empty() bool {
	return len(d.Text) == 0
}

// Tailer reads incremental deltas from watched files.
type Tailer struct {
	fs     afero.Fs
	logger *zerolog.Logger
}

// NewTailer creates a Tailer over the given filesystem.
func NewTailer(fs afero.Fs, logger *zerolog.Logger) *Tailer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Tailer{fs: fs, logger: logger}
}

// Stat returns the current length and modification time of the watched file.
func (t *Tailer) Stat(w *Watch) (int64, time.Time, error) {
	info, err := t.fs.Stat(w.filename)
	if err != nil {
		return 0, time.Time{}, pkgerrors.WrapIO("stat", w.filename, err)
	}
	return info.Size(), info.ModTime(), nil
}

// ReadDelta returns the bytes appended to the file since the previous call.
// Snapshot files are returned whole. It fails with an IOError when the file
// cannot be opened, or cannot be read after one reopen.
func (t *Tailer) ReadDelta(w *Watch) (Delta, error) {
	resync := false
	if w.truncated {
		w.truncated = false
		resync = w.position > 0
		w.position = 0
	}
	return t.read(w, resync)
}

// read performs one pass. resync suppresses the realignment window, which
// bounds the recursion below to a single level.
func (t *Tailer) read(w *Watch, resync bool) (Delta, error) {
	if w.file == nil {
		if err := t.open(w); err != nil {
			return Delta{}, err
		}
	}
	if !w.class.Incremental() {
		w.position = 0
	}

	start := w.position
	window := 0
	if w.class.Realigns() && !resync && w.position > 0 {
		window = int(min(int64(constants.AlignBlock), w.position, int64(len(w.lastText))))
		w.position -= int64(window)
	}

	text, err := t.readAll(w)
	if err != nil {
		w.position = start
		return Delta{}, err
	}

	if window > 0 {
		seen := w.lastText[len(w.lastText)-window:]
		if len(text) < window || !bytes.Equal(text[:window], seen) {
			t.logger.Debug().
				Err(pkgerrors.ErrMisalignment).
				Str("file", w.filename).
				Int64("position", start).
				Int("window", window).
				Msg("Tail rewritten, re-reading whole file")
			w.position = 0
			return t.read(w, true)
		}
	}

	w.size = w.position
	if len(text) > window {
		w.lastText = text
	}
	return Delta{Text: text[window:], Resync: resync}, nil
}

// readAll reads from the current position until the end of the file.
func (t *Tailer) readAll(w *Watch) ([]byte, error) {
	var text []byte
	for {
		n, err := t.readAt(w)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n > 0 {
			text = append(text, w.buffer[:n]...)
			w.position += int64(n)
		}
		if n == 0 || err != nil {
			return text, nil
		}
	}
}

// readAt reads one buffer at the current position. A failed read closes and
// reopens the handle and is retried once.
func (t *Tailer) readAt(w *Watch) (int, error) {
	n, err := w.file.ReadAt(w.buffer, w.position)
	if err == nil || errors.Is(err, io.EOF) {
		return n, err
	}

	t.logger.Warn().
		Err(err).
		Str("file", w.filename).
		Int64("position", w.position).
		Msg("Read failed, reopening file")

	_ = w.Close()
	if openErr := t.open(w); openErr != nil {
		return 0, openErr
	}

	n, err = w.file.ReadAt(w.buffer, w.position)
	if err == nil || errors.Is(err, io.EOF) {
		return n, err
	}
	_ = w.Close()
	return 0, pkgerrors.WrapIO("read", w.filename, err)
}

// open acquires a fresh handle for the watch.
func (t *Tailer) open(w *Watch) error {
	f, err := t.fs.Open(w.filename)
	if err != nil {
		return pkgerrors.WrapIO("open", w.filename, err)
	}
	w.file = f
	if !w.class.Incremental() {
		w.position = 0
	}
	return nil
}
