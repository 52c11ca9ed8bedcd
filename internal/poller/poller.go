// Package poller drives every watched file on its own timer: stat, read the
// delta, extract and publish.
package poller

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/extract"
	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/watch"
	"github.com/tcec-chess/livefeed/pkg/constants"
)

// Publisher receives extracted payloads.
type Publisher interface {
	Publish(topic string, code int, data any) int
}

// Config configures a Poller.
type Config struct {
	// Codes maps each class to the push message code it publishes with.
	Codes map[watch.Class]int
	// MaxJitter is added at random to every interval. Zero uses the default;
	// a negative value disables jitter.
	MaxJitter time.Duration
	// Notify enables fsnotify nudges.
	Notify bool
}

// CodesFromCatalog resolves the push codes of every class.
func CodesFromCatalog(c *protocol.Catalog) map[watch.Class]int {
	codes := make(map[watch.Class]int, 4)
	if code, ok := c.Code(protocol.FeedLog); ok {
		codes[watch.ClassTranscript] = code
	}
	if code, ok := c.Code(protocol.FeedPGN); ok {
		codes[watch.ClassGameRecord] = code
	}
	if code, ok := c.Code(protocol.FeedFile); ok {
		codes[watch.ClassChangeLog] = code
		codes[watch.ClassSnapshot] = code
	}
	return codes
}

type task struct {
	w *watch.Watch
	// busy serializes polls of one watch; overlapping triggers are skipped.
	busy  sync.Mutex
	nudge chan struct{}
}

// Poller schedules one task per watch.
type Poller struct {
	registry   *watch.Registry
	tailer     *watch.Tailer
	extractors *extract.Set
	publisher  Publisher
	codes      map[watch.Class]int
	jitter     time.Duration
	notify     bool
	logger     *zerolog.Logger

	tasks  []*task
	byName map[string]*task

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	notifier *Notifier
}

// New creates a Poller over every watch in registry.
func New(registry *watch.Registry, tailer *watch.Tailer, extractors *extract.Set, publisher Publisher, cfg Config, logger *zerolog.Logger) *Poller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	jitter := cfg.MaxJitter
	if jitter == 0 {
		jitter = constants.MaxJitter
	}
	p := &Poller{
		registry:   registry,
		tailer:     tailer,
		extractors: extractors,
		publisher:  publisher,
		codes:      cfg.Codes,
		jitter:     max(jitter, 0),
		notify:     cfg.Notify,
		logger:     logger,
		byName:     make(map[string]*task, registry.Len()),
	}
	for _, w := range registry.All() {
		t := &task{w: w, nudge: make(chan struct{}, 1)}
		p.tasks = append(p.tasks, t)
		p.byName[w.Filename()] = t
	}
	return p
}

// Start launches the poll tasks. They run until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("poller already started")
	}
	ctx, p.cancel = context.WithCancel(ctx)

	if p.notify {
		targets := make(map[string]func(), len(p.tasks))
		for _, t := range p.tasks {
			targets[t.w.Filename()] = t.poke
		}
		n, err := NewNotifier(targets, p.logger)
		if err != nil {
			p.logger.Warn().Err(err).Msg("File notifications unavailable, polling only")
		} else {
			p.notifier = n
		}
	}

	for _, t := range p.tasks {
		p.wg.Add(1)
		go p.run(ctx, t)
	}
	p.logger.Info().Int("watches", len(p.tasks)).Bool("notify", p.notifier != nil).Msg("Poller started")
	return nil
}

// Stop cancels every task, waits for them and closes all file handles.
func (p *Poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	notifier := p.notifier
	p.notifier = nil
	p.mu.Unlock()

	var errs []error
	if notifier != nil {
		errs = append(errs, notifier.Close())
	}
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	errs = append(errs, p.registry.CloseAll())
	p.logger.Debug().Msg("Poller stopped")
	return errors.Join(errs...)
}

// PollNow polls the watch for filename immediately. It returns false when the
// file is unknown or a poll of it is already running.
func (p *Poller) PollNow(filename string) bool {
	t, ok := p.byName[filename]
	if !ok {
		return false
	}
	return p.tick(t)
}

// PollAll polls every watch once, skipping the busy ones.
func (p *Poller) PollAll() {
	for _, t := range p.tasks {
		p.tick(t)
	}
}

func (t *task) poke() {
	select {
	case t.nudge <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context, t *task) {
	defer p.wg.Done()
	timer := time.NewTimer(p.next(t.w))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.tick(t)
			timer.Reset(p.next(t.w))
		case <-t.nudge:
			p.tick(t)
		}
	}
}

func (p *Poller) next(w *watch.Watch) time.Duration {
	if p.jitter <= 0 {
		return w.Interval()
	}
	return w.Interval() + rand.N(p.jitter+1)
}

func (p *Poller) tick(t *task) bool {
	if !t.busy.TryLock() {
		p.logger.Debug().Str("file", t.w.Filename()).Msg("Poll in flight, skipping")
		return false
	}
	defer t.busy.Unlock()
	p.poll(t.w)
	return true
}

func (p *Poller) poll(w *watch.Watch) {
	log := p.logger.With().Str("file", w.Filename()).Logger()

	size, modTime, err := p.tailer.Stat(w)
	if err != nil {
		if w.IsOpen() {
			log.Warn().Err(err).Msg("File disappeared, closing handle")
		}
		_ = w.Close()
		return
	}
	if !w.Changed(size, modTime) {
		return
	}

	delta, err := p.tailer.ReadDelta(w)
	if err != nil {
		log.Warn().Err(err).Msg("Read failed, retrying next tick")
		return
	}
	if delta.Empty() {
		return
	}

	payload, ok := p.extractors.For(w.Class()).Extract(w, delta)
	if !ok {
		return
	}
	code, ok := p.codes[w.Class()]
	if !ok {
		log.Debug().Str("class", w.Class().String()).Msg("No push code for class")
		return
	}
	n := p.publisher.Publish(w.Topic(), code, payload)
	w.MarkPublished(time.Now())
	log.Debug().
		Str("topic", w.Topic()).
		Int("code", code).
		Int("bytes", len(delta.Text)).
		Bool("resync", delta.Resync).
		Int("delivered", n).
		Msg("Published delta")
}
