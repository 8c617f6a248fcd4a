package sites

import (
	"entrylist/features/sites"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapSitesRoutes(e *echo.Echo, reg *sites.Registry, env *sites.Env) {
	h := NewSitesHandler(reg, env)

	e.GET("/sites", h.Index)
	e.POST("/sites/:site/process", h.Process)

	log.Info().
		Str("sites", "/sites").
		Str("process page", "/sites/:site/process").
		Msg("Site routes mapped successfully.")
}
