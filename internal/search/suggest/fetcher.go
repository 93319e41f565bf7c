package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/fsm"
)

const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultMinLength = 3
	DefaultTimeout   = 8 * time.Second
)

// Geocoder returns autocomplete suggestions for partial location text.
type Geocoder interface {
	Suggest(ctx context.Context, text string) ([]models.Suggestion, error)
}

type Config struct {
	Debounce  time.Duration
	MinLength int
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinLength <= 0 {
		c.MinLength = DefaultMinLength
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Update is the visible state of the fetcher after a change.
type Update struct {
	Seq         uint64              `json:"seq"`
	Input       string              `json:"input"`
	State       fsm.State           `json:"state"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// Fetcher debounces location keystrokes into geocoding requests. Every
// keystroke bumps a sequence number; only the response to the latest
// sequence may change the visible suggestions.
type Fetcher struct {
	geocoder Geocoder
	cfg      Config
	onUpdate func(Update)
	onStale  func()

	root       context.Context
	rootCancel context.CancelFunc

	mu          sync.Mutex
	seq         uint64
	state       fsm.State
	input       string
	suggestions []models.Suggestion
	timer       *time.Timer
	cancel      context.CancelFunc
	closed      bool
}

// New builds a fetcher. onUpdate is called with the fetcher lock held, in
// state order, and must not call back into the fetcher. onStale is called
// for every discarded response. Both may be nil.
func New(geocoder Geocoder, cfg Config, onUpdate func(Update), onStale func()) *Fetcher {
	root, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		geocoder:   geocoder,
		cfg:        cfg.withDefaults(),
		onUpdate:   onUpdate,
		onStale:    onStale,
		root:       root,
		rootCancel: cancel,
		state:      fsm.StateIdle,
	}
}

// Input handles one keystroke worth of location text.
func (f *Fetcher) Input(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.seq++
	seq := f.seq
	f.stopLocked()
	f.input = text

	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) < f.cfg.MinLength {
		f.suggestions = nil
		f.transitionLocked(fsm.StateIdle)
		f.emitLocked()
		return
	}

	f.transitionLocked(fsm.StateDebouncing)
	f.emitLocked()
	f.timer = time.AfterFunc(f.cfg.Debounce, func() { f.dispatch(seq, query) })
}

// Clear drops the suggestions without a request, e.g. once one was picked.
func (f *Fetcher) Clear() { f.Input("") }

func (f *Fetcher) dispatch(seq uint64, query string) {
	f.mu.Lock()
	if f.closed || seq != f.seq {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(f.root, f.cfg.Timeout)
	f.cancel = cancel
	f.timer = nil
	f.transitionLocked(fsm.StateFetching)
	f.emitLocked()
	f.mu.Unlock()

	results, err := f.geocoder.Suggest(ctx, query)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || seq != f.seq {
		if f.onStale != nil {
			f.onStale()
		}
		return
	}
	f.cancel = nil
	if err != nil {
		f.suggestions = nil
		f.transitionLocked(fsm.StateFailed)
	} else {
		f.suggestions = results
		f.transitionLocked(fsm.StateSuggested)
	}
	f.emitLocked()
}

// Snapshot returns the current visible state.
func (f *Fetcher) Snapshot() Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateLocked()
}

// Close stops the debounce timer and cancels any request in flight. Late
// responses are discarded.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopLocked()
	f.rootCancel()
}

func (f *Fetcher) stopLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) transitionLocked(to fsm.State) {
	if fsm.CanTransition(f.state, to) {
		f.state = to
	}
}

func (f *Fetcher) updateLocked() Update {
	out := make([]models.Suggestion, len(f.suggestions))
	copy(out, f.suggestions)
	return Update{Seq: f.seq, Input: f.input, State: f.state, Suggestions: out}
}

func (f *Fetcher) emitLocked() {
	if f.onUpdate != nil {
		f.onUpdate(f.updateLocked())
	}
}
