// Package netflix dims the title cards of Netflix that are hidden, disliked,
// already in My List or present in one of the IMDb lists of the user.
package netflix

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	Name = "Netflix"

	MyListURL  = "https://www.netflix.com/browse/my-list"
	PageMyList = "my-list"

	ListHide = "localHide"
	ListMy   = "nfMyList"
)

// Lists of the IMDb source that drive classification.
const (
	SourceIMDb = "IMDb"

	ListNo        = "no"
	ListSeen      = "Visti"
	ListTBD       = "tbd"
	ListWatchlist = "Your Watchlist"
)

const (
	Hidden    entry.ProcessingType = "H"
	Disliked  entry.ProcessingType = "D"
	Watchlist entry.ProcessingType = "W"
	TBD       entry.ProcessingType = "T"
	Watched   entry.ProcessingType = "S"
	No        entry.ProcessingType = "N"
	MyList    entry.ProcessingType = "M"
	Missing   entry.ProcessingType = "MISSING"
)

type HideType struct {
	Name    string
	Colour  string
	Visible bool
}

var HideTypes = map[entry.ProcessingType]HideType{
	Hidden:    {Name: "Hidden", Colour: "white"},
	Disliked:  {Name: "Disliked", Colour: "black"},
	Watchlist: {Name: "Watchlist", Colour: "darkgoldenrod", Visible: true},
	TBD:       {Name: "TBD", Colour: "Maroon", Visible: true},
	Watched:   {Name: "Watched", Colour: "seagreen"},
	No:        {Name: "NO", Colour: "darkgrey"},
	MyList:    {Name: "My list", Colour: "yellow"},
	Missing:   {Name: "Hide type not known", Colour: "red"},
}

const (
	classHideButton = "entrylist-nf-hide-button"
	classTriangle   = "entrylist-netflix-triangle"

	hideButtonHTML = `<div class="nf-svg-button-wrapper ` + classHideButton + `">` +
		`<a class="nf-svg-button simpleround" title="Hide/show this title">H</a></div>`
	triangleHTML = `<div class="NHT-triangle ` + classTriangle + `"></div>`
)

var (
	userLabelRe = regexp.MustCompile(`^(.+) - Account & Settings$`)
	watchIDRe   = regexp.MustCompile(`/watch/([^/?&]+)[/?&]`)

	// Rows where My List titles are expected and left alone.
	myListRows = []string{"queue", "continueWatching"}
)

type Adapter struct {
	page   *dom.Page
	engine *engine.Engine
	hide   func(context.Context, *goquery.Selection) (bool, error)
}

func New(page *dom.Page, e *engine.Engine) *Adapter {
	return &Adapter{
		page:   page,
		engine: e,
		hide:   engine.Toggler(e, dom.Hops(2), engine.InList(ListHide), engine.AsType(Hidden)),
	}
}

func (a *Adapter) Name() string {
	return Name
}

// IsEntryPage is false only when the page is actually an IMDb page.
func (a *Adapter) IsEntryPage(context.Context) bool {
	return !strings.Contains(a.page.URL.String(), "www.imdb.com/")
}

func (a *Adapter) PageType(context.Context) string {
	if a.page.URL.String() == MyListURL {
		return PageMyList
	}
	return ""
}

func (a *Adapter) ResolveUser(context.Context) (site.User, bool) {
	label, ok := a.page.Find("div.account-menu-item div.account-dropdown-button > a").First().Attr("aria-label")
	if !ok {
		return site.User{}, false
	}
	m := userLabelRe.FindStringSubmatch(label)
	if m == nil {
		return site.User{}, false
	}
	return site.User{Name: m[1]}, true
}

func (a *Adapter) Entries(context.Context) ([]entry.Handle, error) {
	return a.page.Entries("div.title-card"), nil
}

// OnFirstSeen adds the hide button to the card.
func (a *Adapter) OnFirstSeen(_ context.Context, h entry.Handle) {
	card := dom.Selection(h)
	if card == nil {
		return
	}
	card.AppendHtml(hideButtonHTML)
	btn := card.ChildrenFiltered("div." + classHideButton).Last().Find("a")
	a.page.OnClick(btn, func(ctx context.Context, control *goquery.Selection) error {
		_, err := a.hide(ctx, control)
		return err
	})
}

func (a *Adapter) ExtractIdentity(_ context.Context, h entry.Handle) (entry.Data, bool) {
	card := dom.Selection(h)
	if card == nil {
		return entry.Data{}, false
	}
	return identity(card, a.page.URL.String())
}

func identity(card *goquery.Selection, pageURL string) (entry.Data, bool) {
	href := card.Find(`a[href^="/watch/"]`).First().AttrOr("href", "")
	m := watchIDRe.FindStringSubmatch(href)
	if m == nil {
		return entry.Data{}, false
	}
	id := m[1]

	name := strings.TrimSpace(card.Find(".fallback-text").First().Text())
	if name == "" {
		log.Warn().Str("id", id).Str("url", pageURL).Msg("Cannot find title for entry")
		name = id
	}
	return entry.Data{ID: id, Name: strings.ReplaceAll(name, "’", "'")}, true
}

func (a *Adapter) Classify(ctx context.Context, m site.Membership, _ entry.Data, h entry.Handle) entry.ProcessingType {
	card := dom.Selection(h)

	var t entry.ProcessingType
	switch {
	case card != nil && card.HasClass("is-disliked"):
		t = Disliked
	case m.HasList(SourceIMDb, ListWatchlist):
		t = Watchlist
	case m.HasList(SourceIMDb, ListTBD):
		t = TBD
	case m.HasList(SourceIMDb, ListSeen):
		t = Watched
	case m.HasList(SourceIMDb, ListNo):
		t = No
	case m.HasList(Name, ListHide):
		t = Hidden
	}

	if m.HasList(Name, ListMy) && (t == entry.None || t == Watchlist || t == TBD) && a.PageType(ctx) != PageMyList {
		var row *goquery.Selection
		if card != nil {
			row = card.Closest("div.lolomoRow")
		}
		if row == nil || row.Length() == 0 || !slices.Contains(myListRows, row.AttrOr("data-list-context", "")) {
			t = MyList
		}
	}
	return t
}

// Render puts a coloured corner on the card container and dims it unless the
// type is meant to stay visible.
func (a *Adapter) Render(_ context.Context, h entry.Handle, _ entry.Data, t entry.ProcessingType) {
	card := dom.Selection(h)
	if card == nil {
		return
	}
	ht, ok := HideTypes[t]
	if !ok {
		ht = HideTypes[Missing]
	}

	parent := card.Parent()
	parent.AppendHtml(triangleHTML)
	tri := parent.ChildrenFiltered("div." + classTriangle).Last()
	dom.SetStyle(tri, "border-right-color", ht.Colour)
	tri.SetAttr("title", ht.Name)

	if !ht.Visible {
		dom.SetOpacity(parent, ".1")
	}
}

func (a *Adapter) Unrender(_ context.Context, h entry.Handle, _ entry.Data, _ entry.ProcessingType) {
	card := dom.Selection(h)
	if card == nil {
		return
	}
	parent := card.Parent()
	dom.SetOpacity(parent, "1")
	parent.Find(".NHT-triangle").First().Remove()
}
