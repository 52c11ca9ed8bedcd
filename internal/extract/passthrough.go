package extract

import "github.com/tcec-chess/livefeed/internal/watch"

// Passthrough publishes the delta verbatim. Snapshot classes always publish
// full content.
type Passthrough struct{}

// Extract implements Extractor.
func (Passthrough) Extract(w *watch.Watch, d watch.Delta) (any, bool) {
	if d.Empty() {
		return nil, false
	}
	return TextPayload{
		File: fileName(w),
		Text: string(d.Text),
		Full: d.Resync || !w.Class().Incremental(),
	}, true
}
