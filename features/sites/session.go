package sites

import (
	"context"
	"errors"
	"io"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/lists"
	"entrylist/features/refresh"
	"entrylist/features/site"
	"entrylist/internal/collector"
	"entrylist/internal/colly"
	"entrylist/internal/config"
	"entrylist/internal/runner"
	"entrylist/internal/utils"

	"github.com/rs/zerolog/log"
)

// Env holds what every page session shares.
type Env struct {
	Config    *config.Config
	Store     *lists.Store
	Metrics   *collector.MetricsCollector
	Runner    *runner.Runner
	Pages     *refresh.PageFetcher
	Exports   *refresh.ExportFetcher
	Refresher *refresh.Refresher
}

// NewEnv builds the fetchers and the refresher from cfg. progress receives
// refresh progress lines and may be nil.
func NewEnv(cfg *config.Config, store *lists.Store, mc *collector.MetricsCollector, progress io.Writer) *Env {
	pages := refresh.NewPageFetcher(colly.NewCollector(cfg.Colly), nil)
	exports := refresh.NewExportFetcher(cfg.Refresh, cfg.Colly.UserAgent, nil, utils.NewResponseStore(cfg.Refresh))

	return &Env{
		Config:  cfg,
		Store:   store,
		Metrics: mc,
		Pages:   pages,
		Exports: exports,
		Refresher: refresh.New(store, cfg.Refresh.Concurrency,
			refresh.WithMetrics(mc),
			refresh.WithProgressWriter(progress),
			refresh.WithExecTrace(cfg.Telemetry),
		),
	}
}

func (env *Env) Close() {
	if env.Refresher != nil {
		env.Refresher.Close()
	}
}

func (env *Env) deps(page *dom.Page, e *engine.Engine) Deps {
	return Deps{
		Page:      page,
		Engine:    e,
		Store:     env.Store,
		Pages:     env.Pages,
		Exports:   env.Exports,
		Refresher: env.Refresher,
	}
}

// Adapter builds the adapter of name with no page and no engine.
func (r *Registry) Adapter(env *Env, name string) (site.Adapter, error) {
	d, ok := r.Get(name)
	if !ok {
		return nil, ErrUnknownSite
	}
	return d.New(env.deps(nil, nil)), nil
}

// Session is one page processed by one engine.
type Session struct {
	Def     Definition
	Page    *dom.Page
	Engine  *engine.Engine
	Target  *site.Context
	Sources []*site.Context
}

type sessionOptions struct {
	site   string
	follow bool
}

type SessionOption func(*sessionOptions)

// AsSite skips the URL lookup.
func AsSite(name string) SessionOption {
	return func(o *sessionOptions) {
		o.site = name
	}
}

// Follow keeps the engine polling after the first pass.
func Follow(state bool) SessionOption {
	return func(o *sessionOptions) {
		o.follow = state
	}
}

// Open initializes an engine on page, attaches the sources of its site and
// runs the first pass.
func (r *Registry) Open(ctx context.Context, env *Env, page *dom.Page, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		def Definition
		err error
	)
	if o.site != "" {
		var ok bool
		if def, ok = r.Get(o.site); !ok {
			return nil, ErrUnknownSite
		}
	} else if def, err = r.ForURL(page.URL.String()); err != nil {
		return nil, err
	}
	if !def.Target {
		return nil, ErrNotTarget
	}

	e := engine.New(env.Store, r.engineOptions(env, def.Name, o.follow)...)
	deps := env.deps(page, e)

	s := &Session{Def: def, Page: page, Engine: e}
	if s.Target, err = e.Init(ctx, def.New(deps)); err != nil {
		return nil, err
	}

	for _, name := range def.Sources {
		src, ok := r.Get(name)
		if !ok {
			log.Debug().Str("site", def.Name).Str("source", name).Msg("Source not registered, skipping it")
			continue
		}
		// A source that cannot be attached is logged by the engine.
		_, _ = e.AddSource(ctx, src.New(deps))
	}
	s.Sources = e.Sources()

	if err := e.Startup(ctx, env.Config.Engine.LoadListsAtStartup || def.LoadLists); err != nil {
		return nil, errors.Join(err, e.Close(ctx))
	}
	return s, nil
}

func (r *Registry) engineOptions(env *Env, name string, follow bool) []engine.Option {
	cfg := env.Config
	opts := []engine.Option{
		engine.WithInterval(cfg.Engine.PollInterval),
		engine.WithMinInterval(cfg.Engine.MinInterval),
		engine.WithSkipUnidentified(cfg.Engine.SkipUnidentified),
		engine.WithFilter(cfg.Storage.UseBloom),
		engine.WithMetrics(env.Metrics),
		engine.WithPolling(follow),
	}
	if d, ok := cfg.Sites.PollInterval(name); ok {
		opts = append(opts, engine.WithIntervalOverride(d))
	}
	if env.Runner != nil {
		opts = append(opts, engine.WithRunner(env.Runner))
	}
	return opts
}

// Click simulates a click on the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.Page.Click(ctx, s.Page.Find(selector))
}

// Close stops the engine and logs the time spent per processing step.
func (s *Session) Close(ctx context.Context) error {
	d := log.Debug().Str("site", s.Def.Name)
	for step, spent := range s.Engine.Timers().Snapshot() {
		d = d.Dur(step, spent)
	}
	d.Msg("Session closed")
	return s.Engine.Close(ctx)
}
