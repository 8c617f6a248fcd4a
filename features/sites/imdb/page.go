package imdb

import (
	"context"

	"entrylist/features/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	BtnRefresh = "NF - Refresh highlight data"
	BtnClear   = "NF - Clear highlight data"

	pageButtonsHTML = `<div class="aux-content-widget-2" style="margin-top: 10px;">` +
		`<button class="btn" title="Reload information from lists - might take a few seconds">` + BtnRefresh + `</button>` +
		`<button class="btn" title="Remove list data">` + BtnClear + `</button>` +
		`</div>`
)

// HandlePage adds the refresh and clear buttons under the page title. Both
// act on the last user seen on IMDb, which is the one logged in on this page.
func (a *Adapter) HandlePage(_ context.Context, pageType string, _ bool) {
	h1 := a.page.Find("#main h1").First()
	if h1.Length() == 0 {
		log.Error().Str("page_type", pageType).Msg("Could not find element to insert buttons")
		return
	}

	h1.AppendHtml(pageButtonsHTML)
	buttons := h1.ChildrenFiltered("div.aux-content-widget-2").Last().Find("button")

	a.page.OnClick(buttons.Eq(0), func(ctx context.Context, _ *goquery.Selection) error {
		u, err := a.lastUser(ctx)
		if err != nil {
			return err
		}
		rep, err := a.Refresh(ctx, u)
		if err != nil {
			log.Error().Err(err).Msg("Could not load IMDb lists")
			return err
		}
		log.Info().Str("run_id", rep.RunID).Msg(rep.Summary)
		return nil
	})
	a.page.OnClick(buttons.Eq(1), func(ctx context.Context, _ *goquery.Selection) error {
		u, err := a.lastUser(ctx)
		if err != nil {
			return err
		}
		if err := a.Clear(ctx, u); err != nil {
			return err
		}
		log.Info().Msg("Information from IMDb cleared.")
		return nil
	})
}

func (a *Adapter) lastUser(ctx context.Context) (site.User, error) {
	s := a.listStore()
	if s == nil {
		return site.User{}, ErrNoRefresher
	}
	name, payload, ok := s.LastUser(ctx, Name)
	if !ok {
		return site.User{}, ErrNoPayload
	}
	return site.User{Name: name, Payload: payload}, nil
}
