package session

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/ambient"
	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/search/suggest"
	"jinnarSearch/internal/services"
)

// Stale discard kinds reported through Deps.OnStale.
const (
	StaleSuggestions = "suggestions"
	StaleResults     = "results"
)

type Searcher interface {
	Search(ctx context.Context, q filters.Query, meta services.SearchMeta) ([]models.Gig, error)
}

type Geocoder interface {
	suggest.Geocoder
	ambient.ReverseGeocoder
}

// Logger provides minimal logging required by the controller.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type Deps struct {
	Searcher Searcher
	Geocoder Geocoder
	Logger   Logger
	OnStale  func(kind string)
}

type Config struct {
	Derive  filters.Options
	Suggest suggest.Config
	Ambient ambient.Config
}

type EventType string

const (
	EventState       EventType = "state"
	EventSuggestions EventType = "suggestions"
	EventResults     EventType = "results"
	EventLocation    EventType = "location"
)

// State is the filter side of the page: what the user is editing, what the
// URL says, and the request derived from it.
type State struct {
	Draft     filters.Draft     `json:"draft"`
	Committed filters.Committed `json:"committed"`
	URLQuery  string            `json:"url_query"`
	Query     filters.Query     `json:"query"`
}

// Event is one update pushed to the page.
type Event struct {
	Type        EventType           `json:"type"`
	Seq         uint64              `json:"seq,omitempty"`
	State       *State              `json:"state,omitempty"`
	Suggestions *suggest.Update     `json:"suggestions,omitempty"`
	Results     *models.ResultsView `json:"results,omitempty"`
	Location    *ambient.Snapshot   `json:"location,omitempty"`
}

// Controller runs one page visit. The URL query it holds is the only source
// of committed filters; the draft store follows it after every commit or
// navigation. Results fetches are sequenced and only the newest one may
// update the view.
type Controller struct {
	id   string
	deps Deps
	cfg  Config
	emit func(Event)
	meta services.SearchMeta

	store    *filters.Store
	resolver *ambient.Resolver
	prompt   *ambient.PromptSource
	fetcher  *suggest.Fetcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	started       bool
	closed        bool
	url           url.Values
	committed     filters.Committed
	lastQuery     filters.Query
	fetched       bool
	results       models.ResultsView
	resultsSeq    uint64
	resultsCancel context.CancelFunc
}

// New creates a controller for a page opened with rawQuery. emit receives
// every update; it may be called with internal locks held and from several
// goroutines, so it must be non-blocking and must not call back into the
// controller.
func New(id, viewerID, rawQuery string, deps Deps, cfg Config, emit func(Event)) *Controller {
	if emit == nil {
		emit = func(Event) {}
	}
	current, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if current == nil {
		current = url.Values{}
	}
	committed := filters.Parse(current)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:        id,
		deps:      deps,
		cfg:       cfg,
		emit:      emit,
		meta:      services.SearchMeta{ViewerID: viewerID, SessionID: id},
		store:     filters.NewStore(committed.Draft()),
		resolver:  ambient.NewResolver(deps.Geocoder, cfg.Ambient, deps.Logger),
		prompt:    ambient.NewPromptSource(),
		ctx:       ctx,
		cancel:    cancel,
		url:       current,
		committed: committed,
		results:   models.ResultsView{State: models.ResultsLoading, Gigs: []models.Gig{}},
	}
	c.fetcher = suggest.New(deps.Geocoder, cfg.Suggest, func(u suggest.Update) {
		emit(Event{Type: EventSuggestions, Seq: u.Seq, Suggestions: &u})
	}, func() { c.stale(StaleSuggestions) })
	return c
}

func (c *Controller) ID() string { return c.id }

// Start publishes the initial state, asks for the ambient location and runs
// the first search. Only the first call has any effect.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true

	c.emitStateLocked()
	loc := c.resolver.Snapshot()
	c.emit(Event{Type: EventLocation, Location: &loc})

	c.resolver.Start(c.ctx, c.prompt, c.ambientSettled)
	c.fetchLocked(c.deriveLocked())
}

// SetField edits the draft. Typing into the location field also drives the
// suggestion fetcher.
func (c *Controller) SetField(name filters.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if _, err := c.store.SetField(name, value); err != nil {
		return err
	}
	if name == filters.FieldLocationText {
		c.fetcher.Input(value)
	}
	c.emitStateLocked()
	return nil
}

func (c *Controller) LocationInput(text string) error {
	return c.SetField(filters.FieldLocationText, text)
}

// SelectSuggestion puts a picked suggestion into the location field and
// closes the suggestion list.
func (c *Controller) SelectSuggestion(displayName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if _, err := c.store.SetField(filters.FieldLocationText, displayName); err != nil {
		return err
	}
	c.fetcher.Clear()
	c.emitStateLocked()
	return nil
}

// Submit commits the draft to the URL and searches with it.
func (c *Controller) Submit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	d := c.store.Draft()
	c.url = filters.CommitInto(c.url, d)
	c.applyURLLocked()
	c.fetcher.Clear()
	c.emitStateLocked()
	c.fetchLocked(c.deriveLocked())
}

// ClearAll drops every filter from the URL, resets the draft and searches
// with no filters.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.url = filters.ClearAll(c.url)
	c.applyURLLocked()
	c.fetcher.Clear()
	c.emitStateLocked()
	c.fetchLocked(c.deriveLocked())
}

// Navigate handles a URL change the page did not make itself, such as
// back/forward. Results are refetched only when the derived query changed.
func (c *Controller) Navigate(rawQuery string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	next, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if next == nil {
		next = url.Values{}
	}
	c.url = next
	c.applyURLLocked()
	c.fetcher.Clear()
	c.emitStateLocked()

	q := c.deriveLocked()
	if !c.fetched || !q.Equal(c.lastQuery) {
		c.fetchLocked(q)
	}
}

func (c *Controller) ProvidePosition(lat, lng float64) { c.prompt.Provide(lat, lng) }

func (c *Controller) DenyPosition() { c.prompt.Deny() }

// Snapshot returns the current filter state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) Results() models.ResultsView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

func (c *Controller) Location() ambient.Snapshot { return c.resolver.Snapshot() }

func (c *Controller) Suggestions() suggest.Update { return c.fetcher.Snapshot() }

// Close ends the page visit: pending timers stop, in-flight requests are
// cancelled and anything that arrives later is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.resultsCancel != nil {
		c.resultsCancel()
		c.resultsCancel = nil
	}
	c.mu.Unlock()

	c.fetcher.Close()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) applyURLLocked() {
	c.committed = filters.Parse(c.url)
	c.store.ResetFromCommitted(c.committed)
}

func (c *Controller) deriveLocked() filters.Query {
	return filters.DeriveQuery(c.committed, c.resolver.Snapshot().Address(), c.cfg.Derive)
}

func (c *Controller) stateLocked() State {
	return State{
		Draft:     c.store.Draft(),
		Committed: c.committed,
		URLQuery:  c.url.Encode(),
		Query:     c.deriveLocked(),
	}
}

func (c *Controller) emitStateLocked() {
	st := c.stateLocked()
	c.emit(Event{Type: EventState, State: &st})
}

// ambientSettled re-derives the query once the location lookup finishes. A
// typed location always wins, so the query only changes when none was set.
func (c *Controller) ambientSettled(snap ambient.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.emit(Event{Type: EventLocation, Location: &snap})

	q := c.deriveLocked()
	if c.fetched && q.Equal(c.lastQuery) {
		return
	}
	c.emitStateLocked()
	c.fetchLocked(q)
}

func (c *Controller) fetchLocked(q filters.Query) {
	if c.resultsCancel != nil {
		c.resultsCancel()
	}
	c.resultsSeq++
	seq := c.resultsSeq
	ctx, cancel := context.WithCancel(c.ctx)
	c.resultsCancel = cancel
	c.lastQuery = q
	c.fetched = true

	c.results = models.ResultsView{State: models.ResultsLoading, Gigs: []models.Gig{}}
	loading := c.results
	c.emit(Event{Type: EventResults, Seq: seq, Results: &loading})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		gigs, err := c.deps.Searcher.Search(ctx, q, c.meta)
		view := models.NewResultsView(gigs, err)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || seq != c.resultsSeq {
			c.stale(StaleResults)
			return
		}
		c.resultsCancel = nil
		if err != nil && c.deps.Logger != nil {
			c.deps.Logger.Errorf("session %s: search %s: %v", c.id, q.Encode(), err)
		}
		c.results = view
		c.emit(Event{Type: EventResults, Seq: seq, Results: &view})
	}()
}

func (c *Controller) stale(kind string) {
	if c.deps.OnStale != nil {
		c.deps.OnStale(kind)
	}
}
