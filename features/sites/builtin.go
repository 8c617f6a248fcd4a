package sites

import (
	"entrylist/features/sites/imdb"
	"entrylist/features/sites/netflix"
	"entrylist/features/sites/timvision"
	"entrylist/features/sites/youtube"
	"entrylist/features/site"
	"entrylist/internal/config"
)

// Builtin returns the definitions of every site shipped with entrylist.
func Builtin() []Definition {
	return []Definition{
		{
			Name: netflix.Name,
			// The IMDb lists pages get the refresh buttons through Netflix.
			Domains: []string{"netflix.com", "imdb.com"},
			Target:  true,
			Sources: []string{imdb.Name},
			New: func(d Deps) site.Adapter {
				return netflix.New(d.Page, d.Engine)
			},
		},
		{
			Name:    imdb.Name,
			Domains: []string{"imdb.com"},
			New: func(d Deps) site.Adapter {
				return imdb.New(
					imdb.WithPage(d.Page),
					imdb.WithEngine(d.Engine),
					imdb.WithFetchers(d.Pages, d.Exports),
					imdb.WithRefresher(d.Refresher, d.Store),
				)
			},
		},
		{
			Name:    youtube.Name,
			Domains: []string{"youtube.com"},
			Target:  true,
			New: func(d Deps) site.Adapter {
				return youtube.New(d.Page)
			},
		},
		{
			Name:      timvision.Name,
			Domains:   []string{"timvision.it"},
			Target:    true,
			LoadLists: true,
			New: func(d Deps) site.Adapter {
				return timvision.New(d.Page, d.Engine)
			},
		},
	}
}

// Default returns a registry holding the enabled built-in sites.
func Default(cfg config.SitesConfig) *Registry {
	r := NewRegistry(cfg)
	for _, d := range Builtin() {
		r.Register(d)
	}
	return r
}
