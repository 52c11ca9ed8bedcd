package watch

import (
	"errors"
	"fmt"

	pkgerrors "github.com/tcec-chess/livefeed/pkg/errors"
)

// Registry owns one Watch per tracked file. The set is fixed at construction.
type Registry struct {
	watches []*Watch
	byName  map[string]*Watch
}

// NewRegistry builds the registry, rejecting empty or duplicate filenames.
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		watches: make([]*Watch, 0, len(specs)),
		byName:  make(map[string]*Watch, len(specs)),
	}
	for i, spec := range specs {
		if spec.Filename == "" {
			return nil, pkgerrors.NewValidationError("filename", i, "watch has no filename")
		}
		if _, dup := r.byName[spec.Filename]; dup {
			return nil, pkgerrors.NewValidationError("filename", spec.Filename, "file is watched twice")
		}
		w := New(spec)
		r.watches = append(r.watches, w)
		r.byName[spec.Filename] = w
	}
	return r, nil
}

// All returns the watches in configuration order.
func (r *Registry) All() []*Watch {
	return r.watches
}

// Get returns the watch for a filename.
func (r *Registry) Get(filename string) (*Watch, bool) {
	w, ok := r.byName[filename]
	return w, ok
}

// Len returns the number of watches.
func (r *Registry) Len() int {
	return len(r.watches)
}

// Topics returns the distinct topics in configuration order.
func (r *Registry) Topics() []string {
	seen := make(map[string]bool, len(r.watches))
	topics := make([]string, 0, len(r.watches))
	for _, w := range r.watches {
		if !seen[w.topic] {
			seen[w.topic] = true
			topics = append(topics, w.topic)
		}
	}
	return topics
}

// CloseAll releases every open handle. Callers must make sure no poll task
// is still running.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, w := range r.watches {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", w.filename, err))
		}
	}
	return errors.Join(errs...)
}
