package imdb

import (
	"context"
	"strings"

	"entrylist/features/refresh"
	"entrylist/features/site"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Built-in lists every user has, next to the ones found on the lists page.
const (
	ListWatchlist = "Your Watchlist"
	ListRatings   = "Your ratings"
	ListCheckins  = "Your check-ins"

	idWatchlist = "watchlist"
	idRatings   = "ratings"
	idCheckins  = "checkins"
)

// ListInfo describes one list of the user as shown on the lists page.
type ListInfo struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Source returns the downloads of every title list of u.
func (a *Adapter) Source(u site.User) refresh.Source {
	return refresh.SourceFunc(func(ctx context.Context, runID string) ([]refresh.Download, error) {
		found, err := a.Lists(ctx, u.Payload)
		if err != nil {
			return nil, err
		}

		downloads := make([]refresh.Download, 0, len(found))
		for _, l := range found {
			downloads = append(downloads, refresh.CSVDownload(l.Name, l.Kind, func(ctx context.Context) ([]byte, error) {
				url, err := a.exportURL(ctx, u.Payload, l.ID)
				if err != nil {
					return nil, err
				}
				return a.exports.Get(ctx, url, "download", Name, runID)
			}))
		}
		return downloads, nil
	})
}

// Lists returns the title lists of the user with the given ur id.
func (a *Adapter) Lists(ctx context.Context, payload string) ([]ListInfo, error) {
	doc, err := a.listsDocument(ctx, payload)
	if err != nil {
		return nil, err
	}

	var all []ListInfo
	doc.Find(".user-list").Each(func(_ int, el *goquery.Selection) {
		id := el.AttrOr("id", "")
		name := el.Find(".list-name").First()
		l := ListInfo{Name: name.Text(), ID: id, Kind: el.AttrOr("data-list-type", "")}
		if name.Length() == 0 {
			log.Error().Str("id", id).Msg("Error reading name of list")
			l.Name = id
		}
		all = append(all, l)
	})
	all = append(all,
		ListInfo{Name: ListWatchlist, ID: idWatchlist, Kind: refresh.KindTitles},
		ListInfo{Name: ListRatings, ID: idRatings, Kind: refresh.KindTitles},
		ListInfo{Name: ListCheckins, ID: idCheckins, Kind: refresh.KindTitles},
	)

	titles := all[:0]
	for _, l := range all {
		if l.Kind == refresh.KindTitles {
			titles = append(titles, l)
		}
	}
	return titles, nil
}

func (a *Adapter) listsDocument(ctx context.Context, payload string) (*goquery.Document, error) {
	if a.onListsPage() {
		return a.page.Doc, nil
	}
	if payload == "" {
		return nil, ErrNoPayload
	}
	return a.pages.Document(ctx, a.baseURL+"/user/"+payload+"/lists", "Get IMDb list page")
}

// exportURL returns where the CSV export of list id is found. Watchlist and
// check-ins only expose it on their own page.
func (a *Adapter) exportURL(ctx context.Context, payload, id string) (string, error) {
	switch id {
	case idWatchlist, idCheckins:
		doc, err := a.pages.Document(ctx, a.baseURL+"/user/"+payload+"/"+id, "Get list page")
		if err != nil {
			return "", err
		}

		if ls := strings.TrimSpace(doc.Find(`meta[property="pageId"]`).First().AttrOr("content", "")); ls != "" {
			return a.baseURL + "/list/" + ls + "/export", nil
		}
		href, ok := doc.Find(".export a").First().Attr("href")
		if !ok || href == "" {
			return "", ErrNoListID
		}
		if doc.Url != nil {
			if u, err := doc.Url.Parse(href); err == nil {
				return u.String(), nil
			}
		}
		return href, nil

	case idRatings:
		return a.baseURL + "/user/" + payload + "/ratings/export", nil
	}
	return a.baseURL + "/list/" + id + "/export", nil
}
