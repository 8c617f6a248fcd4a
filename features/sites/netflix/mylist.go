package netflix

import (
	"context"
	"errors"

	"entrylist/features/lists"
	"entrylist/features/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

var ErrNoGallery = errors.New("my list gallery not found on page")

const (
	BtnLoadMyList  = "Load My List data"
	BtnClearMyList = "Clear My List data"

	pageButtonsHTML = `<div class="entrylist-buttons">` +
		`<button class="btn" title="Reload information from 'My List'">` + BtnLoadMyList + `</button>` +
		`<button class="btn" title="Empty the data from 'My List'">` + BtnClearMyList + `</button>` +
		`</div>`
)

// HandlePage adds the My List buttons. There is only one page type.
func (a *Adapter) HandlePage(_ context.Context, pageType string, _ bool) {
	main := a.page.Find("div.mainView").First()
	if main.Length() == 0 {
		log.Error().Str("page_type", pageType).Msg(`Could not find "main <div>" to insert buttons`)
		return
	}

	main.AppendHtml(pageButtonsHTML)
	buttons := main.ChildrenFiltered("div.entrylist-buttons").Last().Find("button")

	a.page.OnClick(buttons.Eq(0), func(ctx context.Context, _ *goquery.Selection) error {
		if err := a.RefreshMyList(ctx); err != nil {
			log.Error().Err(err).Msg("An error occurred. It was not possible to load 'My List' data.")
			return err
		}
		log.Info().Msg("'My List' loaded.")
		return nil
	})
	a.page.OnClick(buttons.Eq(1), func(ctx context.Context, _ *goquery.Selection) error {
		if err := a.ClearMyList(ctx); err != nil {
			return err
		}
		log.Info().Msg("Information from 'My List' cleared.")
		return nil
	})
}

// ClearMyList forgets the stored My List, on disk and in memory.
func (a *Adapter) ClearMyList(ctx context.Context) error {
	return a.engine.Exclusive(func(t *site.Context, _ []*site.Context) error {
		return a.clearMyList(ctx, t)
	})
}

func (a *Adapter) clearMyList(ctx context.Context, t *site.Context) error {
	delete(t.Lists, ListMy)
	return a.engine.Store().Delete(ctx, t.Owner(), ListMy)
}

// RefreshMyList replaces the stored My List with the titles in the gallery of
// the current page.
func (a *Adapter) RefreshMyList(ctx context.Context) error {
	return a.engine.Exclusive(func(t *site.Context, _ []*site.Context) error {
		if err := a.clearMyList(ctx, t); err != nil {
			return err
		}

		gallery := a.page.Find("div.mainView div.gallery")
		if gallery.Length() == 0 {
			return ErrNoGallery
		}

		l := lists.List{}
		gallery.Find("div.title-card").Each(func(_ int, card *goquery.Selection) {
			if d, ok := identity(card, a.page.URL.String()); ok {
				l[d.ID] = d.Name
			}
		})

		t.Lists[ListMy] = l
		log.Debug().Int("titles", len(l)).Msg("My List read from gallery")
		return a.engine.Store().Save(ctx, t.Owner(), ListMy, l)
	})
}
