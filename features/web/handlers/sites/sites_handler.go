package sites

import (
	"net/http"

	"entrylist/features/dom"
	"entrylist/features/sites"
	"entrylist/features/web/handlers/response"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type SiteInfo struct {
	Name        string   `json:"name"`
	Domains     []string `json:"domains"`
	Target      bool     `json:"target"`
	Sources     []string `json:"sources,omitempty"`
	Refreshable bool     `json:"refreshable"`
}

type ProcessInput struct {
	Site string `param:"site" validate:"required"`
	URL  string `query:"url" validate:"required,url"`
}

type SitesHandler struct {
	Registry *sites.Registry
	Env      *sites.Env
}

func NewSitesHandler(reg *sites.Registry, env *sites.Env) *SitesHandler {
	return &SitesHandler{Registry: reg, Env: env}
}

// Index lists the registered sites.
func (h *SitesHandler) Index(c echo.Context) error {
	var out []SiteInfo
	for _, name := range h.Registry.Names() {
		def, _ := h.Registry.Get(name)
		out = append(out, SiteInfo{
			Name:        def.Name,
			Domains:     def.Domains,
			Target:      def.Target,
			Sources:     def.Sources,
			Refreshable: h.Registry.IsRefreshable(h.Env, def.Name),
		})
	}
	return response.Success(c, out)
}

// Process runs a single pass over the HTML document in the body and answers
// with the annotated document.
func (h *SitesHandler) Process(c echo.Context) error {
	in := &ProcessInput{
		Site: c.Param("site"),
		URL:  c.QueryParam("url"),
	}
	if err := c.Validate(in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	page, err := dom.Load(c.Request().Body, in.URL)
	if err != nil {
		return response.BadRequest(c, "Body is not a readable HTML document: "+err.Error())
	}

	ctx := c.Request().Context()
	s, err := h.Registry.Open(ctx, h.Env, page, sites.AsSite(in.Site))
	if err != nil {
		return response.FromError(c, "Could not process page", err)
	}
	defer func() {
		if err := s.Close(ctx); err != nil {
			log.Warn().Err(err).Str("site", s.Def.Name).Msg("Could not close session")
		}
	}()

	html, err := page.HTML()
	if err != nil {
		return response.FromError(c, "Could not render page", err)
	}

	log.Debug().Str("site", s.Def.Name).Str("url", in.URL).Int("sources", len(s.Sources)).Msg("Page processed")
	return c.HTML(http.StatusOK, html)
}
