package netflix

import (
	"context"
	"strings"
	"testing"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/site"
	"entrylist/features/sites/imdb"
	"entrylist/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountMenu = `<div class="account-menu-item"><div class="account-dropdown-button">` +
	`<a aria-label="Ann - Account &amp; Settings" href="/YourAccount">Ann</a></div></div>`

const browsePage = `<html><body>` + accountMenu + `
<div class="mainView">
 <div class="lolomoRow" data-list-context="popularTitles">
  <div class="slider-item" id="s1"><div class="title-card" id="c1"><a href="/watch/80100172?trackId=1"><div class="fallback-text">Dark’s Edge</div></a></div></div>
  <div class="slider-item" id="s2"><div class="title-card is-disliked" id="c2"><a href="/watch/200?trackId=1"><div class="fallback-text">Bad</div></a></div></div>
  <div class="slider-item" id="s3"><div class="title-card" id="c3"><a href="/watch/300?trackId=1"><div class="fallback-text">Seen</div></a></div></div>
  <div class="slider-item" id="s4"><div class="title-card" id="c4"><span>loading</span></div></div>
 </div>
 <div class="lolomoRow" data-list-context="queue">
  <div class="slider-item" id="s5"><div class="title-card" id="c5"><a href="/watch/500?trackId=1"><div class="fallback-text">Queued</div></a></div></div>
 </div>
</div></body></html>`

const myListPage = `<html><body>` + accountMenu + `
<div class="mainView"><div class="gallery">
 <div class="slider-item"><div class="title-card"><a href="/watch/1?trackId=9"><div class="fallback-text">One</div></a></div></div>
 <div class="slider-item"><div class="title-card"><a href="/watch/2?trackId=9"><div class="fallback-text">Two</div></a></div></div>
</div></div></body></html>`

func loadPage(t *testing.T, html, url string) *dom.Page {
	t.Helper()
	p, err := dom.Load(strings.NewReader(html), url)
	require.NoError(t, err)
	return p
}

func typeOf(p *dom.Page, sel string) entry.ProcessingType {
	return dom.Wrap(p.Find(sel)).ProcessingType()
}

func startEngine(t *testing.T, ctx context.Context, store *lists.Store, p *dom.Page) *engine.Engine {
	t.Helper()
	e := engine.New(store, engine.WithPolling(false))
	t.Cleanup(func() { _ = e.Close(ctx) })

	_, err := e.Init(ctx, New(p, e))
	require.NoError(t, err)
	_, err = e.AddSource(ctx, imdb.New(imdb.WithPage(p)))
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, true))
	return e
}

func TestResolveUser(t *testing.T) {
	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	u, ok := New(p, nil).ResolveUser(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Ann", u.Name)

	p = loadPage(t, `<html><body><div class="mainView"></div></body></html>`, "https://www.netflix.com/browse")
	_, ok = New(p, nil).ResolveUser(context.Background())
	assert.False(t, ok)
}

func TestExtractIdentity(t *testing.T) {
	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	a := New(p, nil)

	d, ok := a.ExtractIdentity(context.Background(), dom.Wrap(p.Find("#c1")))
	require.True(t, ok)
	assert.Equal(t, entry.Data{ID: "80100172", Name: "Dark's Edge"}, d)

	_, ok = a.ExtractIdentity(context.Background(), dom.Wrap(p.Find("#c4")))
	assert.False(t, ok)
}

func TestPageType(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, PageMyList, New(loadPage(t, myListPage, MyListURL), nil).PageType(ctx))
	assert.Empty(t, New(loadPage(t, browsePage, "https://www.netflix.com/browse"), nil).PageType(ctx))

	assert.True(t, New(loadPage(t, browsePage, "https://www.netflix.com/browse"), nil).IsEntryPage(ctx))
	assert.False(t, New(loadPage(t, browsePage, "https://www.imdb.com/user/ur1/lists"), nil).IsEntryPage(ctx))
}

func TestClassifyOrder(t *testing.T) {
	ctx := context.Background()
	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	a := New(p, nil)

	member := func(refs ...site.ListRef) site.Membership {
		m := site.Membership{}
		for _, r := range refs {
			m.Add(r)
		}
		return m
	}
	plain := dom.Wrap(p.Find("#c1"))
	queued := dom.Wrap(p.Find("#c5"))

	tests := []struct {
		name string
		m    site.Membership
		h    entry.Handle
		want entry.ProcessingType
	}{
		{"disliked wins", member(site.Ref(SourceIMDb, ListWatchlist)), dom.Wrap(p.Find("#c2")), Disliked},
		{"watchlist before tbd", member(site.Ref(SourceIMDb, ListTBD), site.Ref(SourceIMDb, ListWatchlist)), plain, Watchlist},
		{"seen before hidden", member(site.Ref(Name, ListHide), site.Ref(SourceIMDb, ListSeen)), plain, Watched},
		{"no", member(site.Ref(SourceIMDb, ListNo)), plain, No},
		{"hidden", member(site.Ref(Name, ListHide)), plain, Hidden},
		{"my list over watchlist", member(site.Ref(SourceIMDb, ListWatchlist), site.Ref(Name, ListMy)), plain, MyList},
		{"my list keeps watched", member(site.Ref(SourceIMDb, ListSeen), site.Ref(Name, ListMy)), plain, Watched},
		{"my list in queue row", member(site.Ref(Name, ListMy)), queued, entry.None},
		{"nothing", member(), plain, entry.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Classify(ctx, tt.m, entry.Data{}, tt.h))
		})
	}
}

func TestProcessPage(t *testing.T) {
	ctx, store := utils.Initialize(t)

	require.NoError(t, store.SetLastUser(ctx, imdb.Name, "imdbuser", "ur1"))
	require.NoError(t, store.Save(ctx, lists.Owner{Site: imdb.Name, User: "imdbuser"}, ListSeen, lists.List{"Seen": "Seen"}))
	require.NoError(t, store.Save(ctx, lists.Owner{Site: Name, User: "Ann"}, ListMy, lists.List{"500": "Queued", "80100172": "Dark's Edge"}))

	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	startEngine(t, ctx, store, p)

	assert.Equal(t, MyList, typeOf(p, "#c1"))
	assert.Equal(t, Disliked, typeOf(p, "#c2"))
	assert.Equal(t, Watched, typeOf(p, "#c3"))
	assert.Equal(t, entry.None, typeOf(p, "#c5"))

	assert.False(t, dom.Wrap(p.Find("#c4")).Processed(), "cards without id are retried")
	assert.True(t, dom.Wrap(p.Find("#c5")).Processed())

	tri := p.Find("#s1 .NHT-triangle")
	require.Equal(t, 1, tri.Length())
	assert.Equal(t, "My list", tri.AttrOr("title", ""))
	assert.Equal(t, "yellow", dom.Style(tri, "border-right-color"))
	assert.Equal(t, ".1", dom.Style(p.Find("#s1"), "opacity"))

	assert.Equal(t, 1, p.Find("#c5 ."+classHideButton+" a").Length(), "hide button added once")
}

func TestHideButtonToggles(t *testing.T) {
	ctx, store := utils.Initialize(t)
	require.NoError(t, store.SetLastUser(ctx, imdb.Name, "imdbuser", "ur1"))

	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	startEngine(t, ctx, store, p)

	btn := p.Find("#c5 ." + classHideButton + " a")
	owner := lists.Owner{Site: Name, User: "Ann"}

	require.NoError(t, p.Click(ctx, btn))
	assert.Equal(t, Hidden, typeOf(p, "#c5"))
	assert.Equal(t, ".1", dom.Style(p.Find("#s5"), "opacity"))
	assert.Equal(t, "Hidden", p.Find("#s5 .NHT-triangle").AttrOr("title", ""))

	l, ok := store.Load(ctx, owner, ListHide)
	require.True(t, ok)
	assert.True(t, l.Has("500"))

	require.NoError(t, p.Click(ctx, btn))
	assert.Equal(t, Hidden.Removed(), typeOf(p, "#c5"))
	assert.Equal(t, "1", dom.Style(p.Find("#s5"), "opacity"))
	assert.Zero(t, p.Find("#s5 .NHT-triangle").Length())

	l, ok = store.Load(ctx, owner, ListHide)
	require.True(t, ok)
	assert.False(t, l.Has("500"))
}

func TestMyListButtons(t *testing.T) {
	ctx, store := utils.Initialize(t)
	require.NoError(t, store.SetLastUser(ctx, imdb.Name, "imdbuser", "ur1"))

	p := loadPage(t, myListPage, MyListURL)
	e := startEngine(t, ctx, store, p)

	buttons := p.Find("div.mainView div.entrylist-buttons button")
	require.Equal(t, 2, buttons.Length())
	assert.Equal(t, BtnLoadMyList, buttons.Eq(0).Text())

	owner := lists.Owner{Site: Name, User: "Ann"}
	require.NoError(t, p.Click(ctx, buttons.Eq(0)))

	l, ok := store.Load(ctx, owner, ListMy)
	require.True(t, ok)
	assert.Equal(t, lists.List{"1": "One", "2": "Two"}, l)
	assert.True(t, e.Target().Lists[ListMy].Has("2"))

	require.NoError(t, p.Click(ctx, buttons.Eq(1)))
	_, ok = store.Load(ctx, owner, ListMy)
	assert.False(t, ok)
	assert.NotContains(t, e.Target().Lists, ListMy)
}

func TestRefreshMyListWithoutGallery(t *testing.T) {
	ctx, store := utils.Initialize(t)
	require.NoError(t, store.SetLastUser(ctx, imdb.Name, "imdbuser", "ur1"))

	p := loadPage(t, browsePage, "https://www.netflix.com/browse")
	e := engine.New(store, engine.WithPolling(false))
	t.Cleanup(func() { _ = e.Close(ctx) })
	a := New(p, e)
	_, err := e.Init(ctx, a)
	require.NoError(t, err)

	assert.ErrorIs(t, a.RefreshMyList(ctx), ErrNoGallery)
}
