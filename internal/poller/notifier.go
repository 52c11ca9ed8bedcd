package poller

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Notifier turns file system write events into early poll nudges.
// Directories are watched rather than files so that replaced files keep
// producing events.
type Notifier struct {
	watcher *fsnotify.Watcher
	targets map[string]func()
	logger  *zerolog.Logger
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// NewNotifier watches the directories holding the target files and calls a
// file's function whenever that file is written or created.
func NewNotifier(targets map[string]func(), logger *zerolog.Logger) (*Notifier, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	n := &Notifier{
		watcher: watcher,
		targets: make(map[string]func(), len(targets)),
		logger:  logger,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for path, fn := range targets {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		n.targets[abs] = fn
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			// polling still covers files in this directory
			logger.Warn().Err(err).Str("dir", dir).Msg("Cannot watch directory")
		}
	}

	n.wg.Add(1)
	go n.processEvents()
	return n, nil
}

// Close stops watching and waits for the event loop to exit.
func (n *Notifier) Close() error {
	var err error
	n.stop.Do(func() {
		close(n.done)
		err = n.watcher.Close()
		n.wg.Wait()
	})
	return err
}

func (n *Notifier) processEvents() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if fn, ok := n.targets[filepath.Clean(event.Name)]; ok {
				fn()
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}
