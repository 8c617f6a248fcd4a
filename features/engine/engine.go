// Package engine scans a page for entries, works out which lists each entry
// belongs to and lets the site adapter render the result.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"entrylist/features/lists"
	"entrylist/features/site"
	"entrylist/internal/collector"
	"entrylist/internal/runner"
	"entrylist/internal/timers"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = time.Second
	MinInterval     = 100 * time.Millisecond

	// DefaultList is the list a toggle uses when none is named.
	DefaultList = "_DEF_"
)

type Engine struct {
	id    string
	store *lists.Store

	interval         time.Duration
	intervalOverride time.Duration
	minInterval      time.Duration
	skipUnidentified bool
	useFilter        bool
	once             bool

	metrics *collector.MetricsCollector
	timers  *timers.Set

	// mu serializes passes and toggles.
	mu      sync.Mutex
	target  *site.Context
	sources []*site.Context

	pollMu    sync.Mutex
	runner    *runner.Runner
	ownRunner bool
	jobName   string
	polling   bool
	cancel    context.CancelFunc
}

type Option func(*Engine)

// WithInterval sets the poll interval used when the adapter names none.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithIntervalOverride wins over the adapter's own poll interval.
func WithIntervalOverride(d time.Duration) Option {
	return func(e *Engine) {
		e.intervalOverride = d
	}
}

func WithMinInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.minInterval = d
	}
}

// WithSkipUnidentified marks entries without an id invalid instead of
// retrying them on every pass.
func WithSkipUnidentified(state bool) Option {
	return func(e *Engine) {
		e.skipUnidentified = state
	}
}

// WithPolling(false) makes Startup stop after the first pass.
func WithPolling(state bool) Option {
	return func(e *Engine) {
		e.once = !state
	}
}

// WithFilter enables the bloom pre-filter on loaded lists.
func WithFilter(state bool) Option {
	return func(e *Engine) {
		e.useFilter = state
	}
}

func WithMetrics(mc *collector.MetricsCollector) Option {
	return func(e *Engine) {
		e.metrics = mc
	}
}

func WithTimers(t *timers.Set) Option {
	return func(e *Engine) {
		e.timers = t
	}
}

// WithRunner polls through a shared scheduler. Without it the engine starts
// its own on first use and stops it on Close.
func WithRunner(r *runner.Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

func New(store *lists.Store, opts ...Option) *Engine {
	e := &Engine{
		id:          xid.New().String(),
		store:       store,
		interval:    DefaultInterval,
		minInterval: MinInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.timers == nil {
		e.timers = timers.New()
	}
	return e
}

// Target returns the target context, or nil before a successful Init.
func (e *Engine) Target() *site.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *Engine) Sources() []*site.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*site.Context(nil), e.sources...)
}

func (e *Engine) Store() *lists.Store {
	return e.store
}

func (e *Engine) Timers() *timers.Set {
	return e.timers
}

// Init validates the target adapter, inspects the page and resolves the
// logged user. A failed Init leaves the engine unusable for this page.
func (e *Engine) Init(ctx context.Context, a site.Adapter) (*site.Context, error) {
	t, ok := a.(site.Target)
	if !ok || t.Name() == "" {
		log.Error().Msg("Site adapter is missing a name, an entry enumerator or a renderer")
		return nil, ErrInvalidAdapter
	}

	c := site.NewContext(t)
	if p, ok := a.(site.ScannablePager); ok {
		c.IsEntryPage = p.IsEntryPage(ctx)
	}
	if p, ok := a.(site.PageTyper); ok {
		c.PageType = p.PageType(ctx)
	}

	if c.IsEntryPage || c.PageType != "" {
		if err := e.GetLoggedUser(ctx, c); err != nil {
			return nil, err
		}
	}

	if c.PageType != "" {
		if h, ok := a.(site.PageHandler); ok {
			h.HandlePage(ctx, c.PageType, c.IsEntryPage)
		}
	}

	e.mu.Lock()
	e.target = c
	e.sources = nil
	e.mu.Unlock()

	log.Info().
		Str("site", c.Name()).
		Str("user", c.User).
		Bool("entry_page", c.IsEntryPage).
		Str("page_type", c.PageType).
		Msg("Engine initialized")

	return c, nil
}

// AddSource attaches a site whose lists contribute memberships. A source on
// one of its own management pages resolves its user and sets the page up.
// Sources are only attached on entry pages; one whose remote user cannot be
// found is skipped and the engine keeps working without it.
func (e *Engine) AddSource(ctx context.Context, a site.Adapter) (*site.Context, error) {
	e.mu.Lock()
	target := e.target
	e.mu.Unlock()

	if target == nil {
		log.Error().Msg("Target not initialized, cannot add source")
		return nil, ErrNotInitialized
	}
	if a == nil || a.Name() == "" {
		log.Error().Msg("Invalid source adapter")
		return nil, ErrInvalidAdapter
	}

	c := site.NewContext(a)
	c.IsEntryPage = target.IsEntryPage
	if p, ok := a.(site.PageTyper); ok {
		c.PageType = p.PageType(ctx)
	}

	if c.PageType != "" {
		if err := e.GetLoggedUser(ctx, c); err != nil {
			return nil, err
		}
		if h, ok := a.(site.PageHandler); ok {
			h.HandlePage(ctx, c.PageType, target.IsEntryPage)
		}
	}

	if !target.IsEntryPage {
		return c, nil
	}

	if err := e.GetRemoteUser(ctx, c); err != nil {
		log.Warn().Err(err).Str("source", c.Name()).Msg("Skipping source")
		return nil, err
	}

	e.mu.Lock()
	e.sources = append(e.sources, c)
	e.mu.Unlock()

	log.Info().Str("source", c.Name()).Str("user", c.User).Msg("Source attached")
	return c, nil
}

// Startup loads the lists, runs a first pass and starts polling. Pages that
// are not entry pages are left alone.
func (e *Engine) Startup(ctx context.Context, loadLists bool) error {
	e.mu.Lock()
	target := e.target
	if target == nil {
		e.mu.Unlock()
		return ErrNotInitialized
	}

	if !target.IsEntryPage {
		e.mu.Unlock()
		log.Debug().Str("site", target.Name()).Msg("Not an entry page, nothing to process")
		return nil
	}

	for _, c := range e.contexts() {
		if loadLists {
			c.SetLists(e.store.LoadAll(ctx, c.Owner()), e.useFilter)
		} else {
			c.SetLists(nil, e.useFilter)
		}
		log.Debug().Str("site", c.Name()).Str("user", c.User).Int("lists", len(c.Lists)).Msg("Lists ready")
	}

	err := e.processAll(ctx)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	interval := e.pollInterval(target)
	if e.once || interval < e.minInterval {
		log.Info().Str("site", target.Name()).Dur("interval", interval).Msg("Polling disabled, page processed once")
		return nil
	}

	return e.StartProcessing(ctx, interval)
}

// ProcessAll runs one pass over the current entries of the page.
func (e *Engine) ProcessAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target == nil {
		return ErrNotInitialized
	}
	return e.processAll(ctx)
}

// Close stops polling and releases the engine's own scheduler.
func (e *Engine) Close(ctx context.Context) error {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()

	e.stopLocked(false)
	if e.ownRunner && e.runner != nil {
		err := e.runner.Stop(ctx)
		e.runner = nil
		e.ownRunner = false
		return err
	}
	return nil
}

func (e *Engine) contexts() []*site.Context {
	out := make([]*site.Context, 0, len(e.sources)+1)
	out = append(out, e.target)
	return append(out, e.sources...)
}

func (e *Engine) pollInterval(c *site.Context) time.Duration {
	if e.intervalOverride != 0 {
		return e.intervalOverride
	}
	if p, ok := c.Adapter.(site.PollIntervaler); ok {
		return p.PollInterval()
	}
	return e.interval
}

func (e *Engine) newJobName(siteName string) string {
	return fmt.Sprintf("process:%s:%s", siteName, e.id)
}

// Exclusive runs fn between passes and toggles. Lists changed by fn are picked
// up by the next pass.
func (e *Engine) Exclusive(fn func(target *site.Context, sources []*site.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.target == nil {
		return ErrNotInitialized
	}
	err := fn(e.target, e.sources)
	for _, c := range e.contexts() {
		c.SetLists(c.Lists, e.useFilter)
	}
	return err
}
