// Package sites knows which adapters exist, which pages they handle and how to
// wire a page to an engine.
package sites

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/lists"
	"entrylist/features/refresh"
	"entrylist/features/site"
	"entrylist/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrUnknownSite  = errors.New("unknown site")
	ErrNoSiteForURL = errors.New("no site handles this url")
	ErrNotTarget    = errors.New("site has no pages to process")
)

// Deps is what an adapter may need. Page is nil when there is no document,
// e.g. for a refresh started from the command line.
type Deps struct {
	Page      *dom.Page
	Engine    *engine.Engine
	Store     *lists.Store
	Pages     *refresh.PageFetcher
	Exports   *refresh.ExportFetcher
	Refresher *refresh.Refresher
}

type Definition struct {
	Name string
	// Domains are registrable domains (eTLD+1) whose pages the site processes.
	Domains []string
	Target  bool
	// Sources are attached, in order, whenever the site is the target.
	Sources []string
	// LoadLists forces loading stored lists at startup.
	LoadLists bool
	New       func(d Deps) site.Adapter
}

type Registry struct {
	mu      sync.RWMutex
	cfg     config.SitesConfig
	defs    map[string]Definition
	domains map[string]string
}

func NewRegistry(cfg config.SitesConfig) *Registry {
	return &Registry{
		cfg:     cfg,
		defs:    make(map[string]Definition),
		domains: make(map[string]string),
	}
}

// Register adds d unless the configuration disables it.
func (r *Registry) Register(d Definition) {
	log.Trace().Str("site", d.Name).Msg("Registering site")

	if !r.cfg.IsSiteEnabled(d.Name) {
		log.Info().Str("site", d.Name).Msg("Site is disabled")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs[strings.ToLower(d.Name)] = d
	if d.Target {
		for _, domain := range d.Domains {
			r.domains[strings.ToLower(domain)] = d.Name
		}
	}

	log.Debug().
		Str("site", d.Name).
		Strs("domains", d.Domains).
		Bool("target", d.Target).
		Strs("sources", d.Sources).
		Msg("Site registered")
}

// Get looks name up ignoring case.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[strings.ToLower(name)]
	return d, ok
}

// Names returns the registered site names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	slices.Sort(names)
	return names
}

// ForURL returns the target site handling pages at rawURL.
func (r *Registry) ForURL(rawURL string) (Definition, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Definition{}, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s", ErrNoSiteForURL, host)
	}

	r.mu.RLock()
	name, ok := r.domains[domain]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNoSiteForURL, domain)
	}

	d, _ := r.Get(name)
	return d, nil
}
