// Package imdb reads the lists of an IMDb user. IMDb is only used as a source:
// its lists feed the classification of other sites.
package imdb

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/refresh"
	"entrylist/features/site"

	"github.com/rs/zerolog/log"
)

const (
	Name = "IMDb"

	DefaultBaseURL = "https://www.imdb.com"
	PageLists      = "lists"
)

var (
	ErrNoPayload   = errors.New("IMDb user id not known")
	ErrNoListID    = errors.New("Cannot get list id")
	ErrNoRefresher = errors.New("IMDb refresh is not configured")
)

var (
	listsPageRe = regexp.MustCompile(`\.imdb\..{2,3}/user/[^/]+/lists`)
	userIDRe    = regexp.MustCompile(`\.imdb\..{2,3}/.*/(ur[0-9]+)`)
)

type Adapter struct {
	page      *dom.Page
	engine    *engine.Engine
	pages     *refresh.PageFetcher
	exports   *refresh.ExportFetcher
	refresher *refresh.Refresher
	store     *lists.Store
	baseURL   string
}

type Option func(*Adapter)

// WithPage sets the document the adapter looks at for the user and the
// lists page.
func WithPage(p *dom.Page) Option {
	return func(a *Adapter) {
		a.page = p
	}
}

// WithEngine lets refreshes update the lists the engine has in memory.
func WithEngine(e *engine.Engine) Option {
	return func(a *Adapter) {
		a.engine = e
	}
}

func WithFetchers(pages *refresh.PageFetcher, exports *refresh.ExportFetcher) Option {
	return func(a *Adapter) {
		a.pages = pages
		a.exports = exports
	}
}

// WithRefresher enables list downloads into s.
func WithRefresher(r *refresh.Refresher, s *lists.Store) Option {
	return func(a *Adapter) {
		a.refresher = r
		a.store = s
	}
}

func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimSuffix(u, "/")
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) onListsPage() bool {
	return a.page != nil && listsPageRe.MatchString(a.page.URL.String())
}

func (a *Adapter) PageType(context.Context) string {
	if a.onListsPage() {
		return PageLists
	}
	return ""
}

// ResolveUser reads the account link of the navigation bar. The payload is
// the ur id used in every IMDb list URL.
func (a *Adapter) ResolveUser(context.Context) (site.User, bool) {
	if a.page == nil {
		return site.User{}, false
	}
	account := a.page.Find("#nbusername").First()
	if account.Length() == 0 {
		return site.User{}, false
	}

	u := site.User{Name: strings.TrimSpace(account.Text())}
	if u.Name == "" {
		return site.User{}, false
	}

	href := account.AttrOr("href", "")
	if ref, err := a.page.URL.Parse(href); err == nil {
		href = ref.String()
	}
	if m := userIDRe.FindStringSubmatch(href); m != nil {
		u.Payload = m[1]
	} else {
		log.Error().Str("user", u.Name).Msg("Cannot retrieve the ur id for user")
	}
	return u, true
}

// InList looks titles up by name: IMDb exports carry no id the other sites
// know about.
func (a *Adapter) InList(d entry.Data, l lists.List) bool {
	return l.Has(d.Name)
}

// Refresh downloads every title list of u and replaces the stored ones.
func (a *Adapter) Refresh(ctx context.Context, u site.User) (*refresh.Report, error) {
	if a.refresher == nil || a.pages == nil || a.exports == nil {
		return nil, ErrNoRefresher
	}
	if u.Payload == "" {
		return nil, ErrNoPayload
	}

	o := lists.Owner{Site: Name, User: u.Name}
	rep := a.refresher.Run(ctx, o, a.Source(u))
	a.reload(ctx, o)
	return rep, rep.Err
}

// Clear removes every stored list of u.
func (a *Adapter) Clear(ctx context.Context, u site.User) error {
	s := a.listStore()
	if s == nil {
		return ErrNoRefresher
	}
	o := lists.Owner{Site: Name, User: u.Name}
	err := s.DeleteAll(ctx, o)
	a.reload(ctx, o)
	return err
}

func (a *Adapter) listStore() *lists.Store {
	if a.engine != nil {
		return a.engine.Store()
	}
	return a.store
}

// reload refreshes the in-memory lists of an attached IMDb source.
func (a *Adapter) reload(ctx context.Context, o lists.Owner) {
	if a.engine == nil {
		return
	}
	err := a.engine.Exclusive(func(_ *site.Context, sources []*site.Context) error {
		for _, c := range sources {
			if c.Owner() == o {
				c.Lists = a.engine.Store().LoadAll(ctx, o)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, engine.ErrNotInitialized) {
		log.Warn().Err(err).Msg("Could not reload IMDb lists")
	}
}
