package sites

import (
	"context"
	"strings"
	"testing"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/lists"
	"entrylist/features/site"
	"entrylist/features/sites/imdb"
	"entrylist/features/sites/netflix"
	"entrylist/features/sites/youtube"
	"entrylist/internal/config"
	"entrylist/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netflixPage = `<html><body>
<div class="account-menu-item"><div class="account-dropdown-button"><a aria-label="Ann - Account &amp; Settings">Ann</a></div></div>
<div class="mainView"><div class="lolomoRow" data-list-context="popularTitles">
 <div class="slider-item"><div class="title-card" id="c1"><a href="/watch/1?trackId=1"><div class="fallback-text">Later</div></a></div></div>
</div></div></body></html>`

const imdbListsPage = `<html><body>
<a id="nbusername" href="/user/ur42/"> Bob </a>
<div id="main"><h1>Your lists</h1></div></body></html>`

func TestForURL(t *testing.T) {
	reg := Default(config.SitesConfig{})

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.netflix.com/browse", netflix.Name},
		{"https://www.imdb.com/user/ur42/lists", netflix.Name},
		{"https://m.youtube.com/watch?v=1", youtube.Name},
		{"https://www.timvision.it/", "TIMVision"},
	}
	for _, tt := range tests {
		d, err := reg.ForURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, d.Name, tt.url)
	}

	_, err := reg.ForURL("https://example.org/")
	assert.ErrorIs(t, err, ErrNoSiteForURL)
	_, err = reg.ForURL("http://localhost:8080/")
	assert.ErrorIs(t, err, ErrNoSiteForURL)
}

func TestRegistryHonoursEnabledSites(t *testing.T) {
	reg := Default(config.SitesConfig{EnabledSites: []string{"Netflix"}})
	assert.Equal(t, []string{netflix.Name}, reg.Names())

	_, err := reg.ForURL("https://www.youtube.com/")
	assert.ErrorIs(t, err, ErrNoSiteForURL)

	_, ok := reg.Get("imdb")
	assert.False(t, ok)
	_, ok = reg.Get("NETFLIX")
	assert.True(t, ok)
}

func newEnv(t *testing.T) (context.Context, *Env) {
	t.Helper()
	ctx, store := utils.Initialize(t)
	return ctx, &Env{Config: config.Default(), Store: store}
}

func load(t *testing.T, html, url string) *dom.Page {
	t.Helper()
	p, err := dom.Load(strings.NewReader(html), url)
	require.NoError(t, err)
	return p
}

func TestOpenAttachesSources(t *testing.T) {
	ctx, env := newEnv(t)
	require.NoError(t, env.Store.SetLastUser(ctx, imdb.Name, "Bob", "ur42"))
	require.NoError(t, env.Store.Save(ctx, lists.Owner{Site: imdb.Name, User: "Bob"}, netflix.ListTBD, lists.List{"Later": "Later"}))

	p := load(t, netflixPage, "https://www.netflix.com/browse")
	s, err := Default(config.SitesConfig{}).Open(ctx, env, p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.Equal(t, netflix.Name, s.Def.Name)
	assert.Equal(t, "Ann", s.Target.User)
	require.Len(t, s.Sources, 1)
	assert.Equal(t, "Bob", s.Sources[0].User)

	assert.Equal(t, netflix.TBD, dom.Wrap(p.Find("#c1")).ProcessingType())
	assert.False(t, s.Engine.Polling())
}

func TestOpenSkipsUnknownRemoteUser(t *testing.T) {
	ctx, env := newEnv(t)
	p := load(t, netflixPage, "https://www.netflix.com/browse")

	s, err := Default(config.SitesConfig{}).Open(ctx, env, p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.Empty(t, s.Sources, "IMDb was never visited")
	assert.True(t, dom.Wrap(p.Find("#c1")).Processed())
}

func TestOpenOnIMDbListsPage(t *testing.T) {
	ctx, env := newEnv(t)
	p := load(t, imdbListsPage, "https://www.imdb.com/user/ur42/lists")

	s, err := Default(config.SitesConfig{}).Open(ctx, env, p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.False(t, s.Target.IsEntryPage)
	assert.Empty(t, s.Sources)
	assert.Equal(t, 2, p.Find("#main h1 button").Length())

	name, payload, ok := env.Store.LastUser(ctx, imdb.Name)
	require.True(t, ok)
	assert.Equal(t, "Bob", name)
	assert.Equal(t, "ur42", payload)
}

func TestOpenRejects(t *testing.T) {
	ctx, env := newEnv(t)
	reg := Default(config.SitesConfig{})
	p := load(t, netflixPage, "https://www.netflix.com/browse")

	_, err := reg.Open(ctx, env, p, AsSite(imdb.Name))
	assert.ErrorIs(t, err, ErrNotTarget)

	_, err = reg.Open(ctx, env, p, AsSite("Hulu"))
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestAdapter(t *testing.T) {
	_, env := newEnv(t)
	reg := Default(config.SitesConfig{})

	a, err := reg.Adapter(env, "imdb")
	require.NoError(t, err)
	assert.IsType(t, &imdb.Adapter{}, a)

	_, err = reg.Adapter(env, "Hulu")
	assert.ErrorIs(t, err, ErrUnknownSite)
}

func TestRefreshListsNeedsUser(t *testing.T) {
	ctx, env := newEnv(t)
	reg := Default(config.SitesConfig{})

	_, err := reg.RefreshLists(ctx, env, netflix.Name, site.User{})
	assert.ErrorIs(t, err, ErrNotRefreshable)

	_, err = reg.RefreshLists(ctx, env, imdb.Name, site.User{})
	assert.ErrorIs(t, err, engine.ErrNoUser)

	assert.True(t, reg.IsRefreshable(env, imdb.Name))
	assert.False(t, reg.IsRefreshable(env, youtube.Name))
}

func TestClearListsUsesLastUser(t *testing.T) {
	ctx, env := newEnv(t)
	reg := Default(config.SitesConfig{})

	owner := lists.Owner{Site: imdb.Name, User: "Bob"}
	require.NoError(t, env.Store.SetLastUser(ctx, imdb.Name, "Bob", "ur42"))
	require.NoError(t, env.Store.Save(ctx, owner, "tbd", lists.List{"x": "x"}))

	require.NoError(t, reg.ClearLists(ctx, env, imdb.Name, site.User{}))
	assert.Empty(t, env.Store.LoadIndex(ctx, owner))
}
