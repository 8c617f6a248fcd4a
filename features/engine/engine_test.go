package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/site"
	"entrylist/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEntry struct {
	entry.Markers
	id    string
	name  string
	valid bool
}

func newEntry(id string) *mockEntry {
	return &mockEntry{id: id, name: "Title " + id, valid: true}
}

// bareTarget implements only the required methods.
type bareTarget struct {
	name string

	mu      sync.Mutex
	entries []*mockEntry
	calls   []string
}

func (b *bareTarget) Name() string { return b.name }

func (b *bareTarget) Entries(ctx context.Context) ([]entry.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entry.Handle, len(b.entries))
	for i, e := range b.entries {
		out[i] = e
	}
	return out, nil
}

func (b *bareTarget) Render(ctx context.Context, e entry.Handle, d entry.Data, t entry.ProcessingType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fmt.Sprintf("render:%s:%s", d.ID, t))
}

func (b *bareTarget) add(e *mockEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
}

func (b *bareTarget) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// fullTarget adds the optional capabilities used by most tests.
type fullTarget struct {
	*bareTarget
	user     site.User
	interval time.Duration

	classified []site.Membership
	classify   func(m site.Membership) entry.ProcessingType
	firstSeen  map[string]int
}

func newTarget(name, user string) *fullTarget {
	return &fullTarget{
		bareTarget: &bareTarget{name: name},
		user:       site.User{Name: user},
		firstSeen:  map[string]int{},
	}
}

func (f *fullTarget) PollInterval() time.Duration { return f.interval }

func (f *fullTarget) ResolveUser(ctx context.Context) (site.User, bool) {
	return f.user, f.user.Name != ""
}

func (f *fullTarget) IsValidEntry(ctx context.Context, e entry.Handle) bool {
	return e.(*mockEntry).valid
}

func (f *fullTarget) ExtractIdentity(ctx context.Context, e entry.Handle) (entry.Data, bool) {
	me := e.(*mockEntry)
	if me.id == "" {
		return entry.Data{}, false
	}
	return entry.Data{ID: me.id, Name: me.name}, true
}

func (f *fullTarget) OnFirstSeen(ctx context.Context, e entry.Handle) {
	f.firstSeen[e.(*mockEntry).id]++
}

func (f *fullTarget) Classify(ctx context.Context, m site.Membership, d entry.Data, e entry.Handle) entry.ProcessingType {
	f.classified = append(f.classified, m)
	if f.classify != nil {
		return f.classify(m)
	}
	if m.Len() > 0 {
		return "X"
	}
	return entry.None
}

func (f *fullTarget) Unrender(ctx context.Context, e entry.Handle, d entry.Data, t entry.ProcessingType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("unrender:%s:%s", d.ID, t))
}

type sourceAdapter struct {
	name   string
	mapped *site.User
}

func (s sourceAdapter) Name() string { return s.name }

type mappedSource struct{ sourceAdapter }

func (m mappedSource) SourceUser(ctx context.Context, targetSite string, u site.User) (site.User, bool) {
	if m.mapped == nil {
		return site.User{}, false
	}
	return *m.mapped, true
}

func TestInitRejectsInvalidAdapter(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store)

	_, err := e.Init(ctx, sourceAdapter{name: "IMDb"})
	assert.ErrorIs(t, err, ErrInvalidAdapter)

	_, err = e.Init(ctx, &bareTarget{})
	assert.ErrorIs(t, err, ErrInvalidAdapter, "a target needs a name")

	assert.ErrorIs(t, e.Startup(ctx, true), ErrNotInitialized)
}

func TestInitWithoutResolverUsesAnonymousUser(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store)

	c, err := e.Init(ctx, &bareTarget{name: "YouTube"})
	require.NoError(t, err)
	assert.Equal(t, site.AnonymousUser, c.User)
	assert.True(t, c.IsEntryPage)
	assert.Empty(t, c.PageType)

	_, _, ok := store.LastUser(ctx, "YouTube")
	assert.False(t, ok, "the anonymous user is never recorded")
}

func TestFreshPageLoad(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	target.add(newEntry("1"))

	e := New(store)
	c, err := e.Init(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.User)

	last, _, ok := store.LastUser(ctx, "Netflix")
	require.True(t, ok)
	assert.Equal(t, "alice", last)

	target.interval = 100 * time.Millisecond
	require.NoError(t, e.Startup(ctx, true))
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	assert.Empty(t, c.Lists)
	assert.True(t, target.entries[0].Processed(), "first pass runs immediately")
	assert.True(t, e.Polling())

	late := newEntry("2")
	target.add(late)
	assert.Eventually(t, processed(e, late), 2*time.Second, 20*time.Millisecond, "later passes pick up new entries")

	assert.True(t, e.StopProcessing())
	assert.False(t, e.StopProcessing(), "stopping twice is harmless")
}

// processed reads the marker the way a pass writes it, under the engine lock.
func processed(e *Engine, h entry.Handle) func() bool {
	return func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return h.Processed()
	}
}

func TestDisabledPolling(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	target.add(newEntry("1"))

	e := New(store)
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	assert.True(t, target.entries[0].Processed())
	assert.False(t, e.Polling(), "no timer for an interval of zero")
	assert.False(t, e.StopProcessing())

	assert.ErrorIs(t, e.StartProcessing(ctx, 10*time.Millisecond), ErrIntervalTooShort)
	assert.False(t, e.Polling())
}

func TestNotAnEntryPage(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := &pagedTarget{fullTarget: newTarget("IMDb", "bob"), pageType: "lists"}
	target.add(newEntry("1"))

	e := New(store)
	c, err := e.Init(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.User, "management pages still resolve the user")
	assert.Equal(t, []string{"lists:false"}, target.handled)

	require.NoError(t, e.Startup(ctx, true))
	assert.False(t, target.entries[0].Processed())
}

type pagedTarget struct {
	*fullTarget
	pageType string
	handled  []string
}

func (p *pagedTarget) IsEntryPage(ctx context.Context) bool { return false }
func (p *pagedTarget) PageType(ctx context.Context) string  { return p.pageType }
func (p *pagedTarget) HandlePage(ctx context.Context, pt string, entryPage bool) {
	p.handled = append(p.handled, fmt.Sprintf("%s:%t", pt, entryPage))
}

func TestProcessingIsIdempotent(t *testing.T) {
	ctx, store := utils.Initialize(t)
	owner := lists.Owner{Site: "Netflix", User: "alice"}
	require.NoError(t, store.Save(ctx, owner, "A", lists.List{"1": "One"}))

	target := newTarget("Netflix", "alice")
	target.add(newEntry("1"))
	target.add(newEntry("2"))

	e := New(store)
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, true))
	require.NoError(t, e.ProcessAll(ctx))
	require.NoError(t, e.ProcessAll(ctx))

	assert.Equal(t, []string{"render:1:X"}, target.Calls())
	assert.Equal(t, entry.ProcessingType("X"), target.entries[0].ProcessingType())
	assert.Equal(t, entry.None, target.entries[1].ProcessingType())
	assert.True(t, target.entries[1].Processed(), "entries without a type are processed too")
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, target.firstSeen)
}

func TestMembershipDrivenClassification(t *testing.T) {
	ctx, store := utils.Initialize(t)
	owner := lists.Owner{Site: "Netflix", User: "alice"}
	require.NoError(t, store.Save(ctx, owner, "A", lists.List{"1": "One"}))
	require.NoError(t, store.Save(ctx, owner, "B", lists.List{"1": "One", "2": "Two"}))
	require.NoError(t, store.Save(ctx, owner, "C", lists.List{"3": "Three"}))

	require.NoError(t, store.SetLastUser(ctx, "IMDb", "ali", "ur1"))
	require.NoError(t, store.Save(ctx, lists.Owner{Site: "IMDb", User: "ali"}, "tbd", lists.List{"1": "One"}))

	target := newTarget("Netflix", "alice")
	target.add(newEntry("1"))

	e := New(store, WithFilter(true))
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	src, err := e.AddSource(ctx, sourceAdapter{name: "IMDb"})
	require.NoError(t, err)
	assert.Equal(t, "ali", src.User)
	assert.Equal(t, "ur1", src.Payload)

	require.NoError(t, e.Startup(ctx, true))

	require.Len(t, target.classified, 1)
	assert.Equal(t, []site.ListRef{
		site.Ref("IMDb", "tbd"),
		site.Ref("Netflix", "A"),
		site.Ref("Netflix", "B"),
	}, target.classified[0].Refs())
}

func TestDefaultClassification(t *testing.T) {
	ctx, store := utils.Initialize(t)
	require.NoError(t, store.Save(ctx, lists.Owner{Site: "Plain", User: site.AnonymousUser}, "seen", lists.List{"1": "One"}))

	target := &idTarget{bareTarget: &bareTarget{name: "Plain"}}
	target.add(newEntry("1"))
	target.add(newEntry("2"))

	e := New(store)
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, true))

	assert.Equal(t, []string{"render:1:_DEF_"}, target.Calls())
	assert.Equal(t, entry.DefaultType, target.entries[0].ProcessingType())
}

type idTarget struct{ *bareTarget }

func (i *idTarget) ExtractIdentity(ctx context.Context, e entry.Handle) (entry.Data, bool) {
	me := e.(*mockEntry)
	return entry.Data{ID: me.id, Name: me.name}, me.id != ""
}

func TestUnidentifiedEntriesAreRetried(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	anon := newEntry("")
	target.add(anon)

	e := New(store)
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	assert.False(t, anon.Processed())
	assert.False(t, anon.Invalid(), "missing ids are not marked invalid")
	assert.Empty(t, target.firstSeen)

	anon.id = "7"
	require.NoError(t, e.ProcessAll(ctx))
	assert.True(t, anon.Processed())
}

func TestSkipUnidentified(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	anon := newEntry("")
	target.add(anon)

	e := New(store, WithSkipUnidentified(true))
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	assert.True(t, anon.Invalid())
	anon.id = "7"
	require.NoError(t, e.ProcessAll(ctx))
	assert.False(t, anon.Processed())
}

func TestInvalidEntries(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	notYet := newEntry("1")
	notYet.valid = false
	marked := newEntry("2")
	assert.False(t, MarkInvalid(marked))
	target.add(notYet)
	target.add(marked)

	e := New(store)
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	assert.False(t, notYet.Processed())
	assert.False(t, notYet.Invalid())
	assert.False(t, marked.Processed())

	notYet.valid = true
	require.NoError(t, e.ProcessAll(ctx))
	assert.True(t, notYet.Processed())
	assert.False(t, marked.Processed(), "invalid entries are skipped for good")
}

func TestToggleSymmetry(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	h := newEntry("9")
	target.add(h)

	e := New(store)
	c, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, true))

	added, err := e.Toggle(ctx, h, InList("localHide"), AsType("H"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, entry.ProcessingType("H"), h.ProcessingType())

	stored, ok := store.Load(ctx, c.Owner(), "localHide")
	require.True(t, ok)
	assert.Equal(t, lists.List{"9": map[string]any{"id": "9", "name": "Title 9"}}, stored)

	added, err = e.Toggle(ctx, h, InList("localHide"), AsType("H"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, entry.ProcessingType("-H"), h.ProcessingType())

	assert.Equal(t, []string{"render:9:H", "unrender:9:H"}, target.Calls())
	assert.Empty(t, c.Lists["localHide"])

	stored, ok = store.Load(ctx, c.Owner(), "localHide")
	require.True(t, ok)
	assert.Empty(t, stored)
	assert.Contains(t, store.LoadIndex(ctx, c.Owner()), "localHide")
}

func TestToggleDefaults(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	h := newEntry("9")

	e := New(store)
	c, err := e.Init(ctx, target)
	require.NoError(t, err)

	toggle := Toggler(e, func(m *mockEntry) (entry.Handle, bool) { return m, m != nil })
	added, err := toggle(ctx, h)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, entry.DefaultType, h.ProcessingType())
	assert.True(t, c.Lists[DefaultList].Has("9"))

	_, err = toggle(ctx, nil)
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = e.Toggle(ctx, newEntry(""))
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestToggleData(t *testing.T) {
	ctx, store := utils.Initialize(t)
	owner := lists.Owner{Site: "Netflix", User: "alice"}
	d := entry.Data{ID: "5", Name: "Five"}

	added, err := ToggleData(ctx, store, owner, d, "")
	require.NoError(t, err)
	assert.True(t, added)

	l, ok := store.Load(ctx, owner, DefaultList)
	require.True(t, ok)
	assert.True(t, l.Has("5"))

	added, err = ToggleData(ctx, store, owner, d, "")
	require.NoError(t, err)
	assert.False(t, added)

	l, _ = store.Load(ctx, owner, DefaultList)
	assert.False(t, l.Has("5"))

	_, err = ToggleData(ctx, store, owner, entry.Data{}, "x")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestLoggedUserFallback(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store)

	_, err := e.Init(ctx, newTarget("Netflix", ""))
	assert.ErrorIs(t, err, ErrNoUser, "nobody resolved and nobody stored")

	require.NoError(t, store.SetLastUser(ctx, "Netflix", "carol", "p1"))
	c, err := e.Init(ctx, newTarget("Netflix", ""))
	require.NoError(t, err)
	assert.Equal(t, "carol", c.User)
	assert.Equal(t, "p1", c.Payload)

	_, err = e.Init(ctx, newTarget("Netflix", "dave"))
	require.NoError(t, err)
	_, payload, _ := store.LastUser(ctx, "Netflix")
	assert.Empty(t, payload, "a user without payload clears the stored one")
}

func TestAddSource(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store)

	_, err := e.AddSource(ctx, sourceAdapter{name: "IMDb"})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = e.Init(ctx, newTarget("Netflix", "alice"))
	require.NoError(t, err)

	_, err = e.AddSource(ctx, sourceAdapter{name: "IMDb"})
	assert.ErrorIs(t, err, ErrNoRemoteUser, "no last user on the source")

	_, err = e.AddSource(ctx, mappedSource{sourceAdapter{name: "Mapped"}})
	assert.ErrorIs(t, err, ErrNoRemoteUser)

	c, err := e.AddSource(ctx, mappedSource{sourceAdapter{name: "Mapped", mapped: &site.User{Name: "m"}}})
	require.NoError(t, err)
	assert.Equal(t, "m", c.User)

	assert.Len(t, e.Sources(), 1, "skipped sources are not attached")
}

// pagedSource is a source sitting on one of its own management pages.
type pagedSource struct {
	sourceAdapter
	user    site.User
	handled []string
}

func (p *pagedSource) PageType(ctx context.Context) string { return "lists" }
func (p *pagedSource) ResolveUser(ctx context.Context) (site.User, bool) {
	return p.user, p.user.Name != ""
}
func (p *pagedSource) HandlePage(ctx context.Context, pt string, entryPage bool) {
	p.handled = append(p.handled, fmt.Sprintf("%s:%t", pt, entryPage))
}

func TestAddSourceOnManagementPage(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store)

	target := &pagedTarget{fullTarget: newTarget("Netflix", "alice")}
	_, err := e.Init(ctx, target)
	require.NoError(t, err)

	src := &pagedSource{sourceAdapter: sourceAdapter{name: "IMDb"}, user: site.User{Name: "bob", Payload: "ur1"}}
	c, err := e.AddSource(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "bob", c.User)
	assert.Equal(t, []string{"lists:false"}, src.handled)
	assert.Empty(t, e.Sources(), "sources are only attached on entry pages")

	name, payload, ok := store.LastUser(ctx, "IMDb")
	require.True(t, ok)
	assert.Equal(t, "bob", name)
	assert.Equal(t, "ur1", payload)
}

func TestWithPollingDisabled(t *testing.T) {
	ctx, store := utils.Initialize(t)
	target := newTarget("Netflix", "alice")
	target.interval = time.Second
	target.add(newEntry("1"))

	e := New(store, WithPolling(false))
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	assert.True(t, target.entries[0].Processed())
	assert.False(t, e.Polling())
}

func TestExclusive(t *testing.T) {
	ctx, store := utils.Initialize(t)
	e := New(store, WithFilter(true))

	assert.ErrorIs(t, e.Exclusive(func(*site.Context, []*site.Context) error { return nil }), ErrNotInitialized)

	target := newTarget("Netflix", "alice")
	_, err := e.Init(ctx, target)
	require.NoError(t, err)
	require.NoError(t, e.Startup(ctx, false))

	require.NoError(t, e.Exclusive(func(c *site.Context, _ []*site.Context) error {
		c.Lists["late"] = lists.List{"9": "Nine"}
		return nil
	}))

	late := newEntry("9")
	target.add(late)
	require.NoError(t, e.ProcessAll(ctx))
	assert.Equal(t, entry.ProcessingType("X"), late.ProcessingType(), "lists set in Exclusive are seen by the filter")
}
