// Package timvision shrinks and dims the TIMVision titles the user chose to
// hide.
package timvision

import (
	"context"
	"regexp"
	"strings"

	"entrylist/features/dom"
	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/site"

	"github.com/PuerkitoBio/goquery"
)

const (
	Name = "TIMVision"

	ClassEntry   = "content-item-tile-small"
	ClassButton  = "EL-TIMVision-HButton"
	ClassProcess = "EL-TIMVision-Process"

	buttonHTML = `<div class="` + ClassButton + `" title="Hide/show this title">H</div>`
)

var idRes = []*regexp.Regexp{
	regexp.MustCompile(`/detail/([0-9]+)-`),
	regexp.MustCompile(`/series/([0-9]+)-`),
}

type Adapter struct {
	page   *dom.Page
	toggle func(context.Context, *goquery.Selection) (bool, error)
}

func New(page *dom.Page, e *engine.Engine) *Adapter {
	return &Adapter{
		page:   page,
		toggle: engine.Toggler(e, dom.Closest("."+ClassEntry)),
	}
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) ResolveUser(context.Context) (site.User, bool) {
	name := strings.TrimSpace(a.page.Find(".username").First().Text())
	return site.User{Name: name}, name != ""
}

func (a *Adapter) Entries(context.Context) ([]entry.Handle, error) {
	return a.page.Entries("." + ClassEntry), nil
}

// IsValidEntry accepts title and series tiles. Anything else, once its link
// is there, is never looked at again.
func (a *Adapter) IsValidEntry(_ context.Context, h entry.Handle) bool {
	s := dom.Selection(h)
	if s == nil {
		return false
	}
	href := s.Find("a").First().AttrOr("href", "")
	if href == "" {
		return false
	}
	return strings.Contains(href, "/detail/") || strings.Contains(href, "/series/") || engine.MarkInvalid(h)
}

// OnFirstSeen adds the hide button to the tile picture.
func (a *Adapter) OnFirstSeen(_ context.Context, h entry.Handle) {
	s := dom.Selection(h)
	if s == nil {
		return
	}
	figure := s.Find("figure").First()
	if figure.Length() == 0 {
		return
	}
	figure.AppendHtml(buttonHTML)
	a.page.OnClick(figure.ChildrenFiltered("."+ClassButton).Last(), func(ctx context.Context, control *goquery.Selection) error {
		_, err := a.toggle(ctx, control)
		return err
	})
}

func (a *Adapter) ExtractIdentity(_ context.Context, h entry.Handle) (entry.Data, bool) {
	s := dom.Selection(h)
	if s == nil {
		return entry.Data{}, false
	}
	link := s.Find("a").First()
	href := link.AttrOr("href", "")
	for _, re := range idRes {
		if m := re.FindStringSubmatch(href); m != nil {
			return entry.Data{ID: m[1], Name: link.AttrOr("title", "")}, true
		}
	}
	return entry.Data{}, false
}

func (a *Adapter) Render(_ context.Context, h entry.Handle, _ entry.Data, _ entry.ProcessingType) {
	if s := dom.Selection(h); s != nil {
		s.AddClass(ClassProcess)
	}
}

func (a *Adapter) Unrender(_ context.Context, h entry.Handle, _ entry.Data, _ entry.ProcessingType) {
	if s := dom.Selection(h); s != nil {
		s.RemoveClass(ClassProcess)
	}
}
