package refresh

import (
	"entrylist/features/sites"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapRefreshRoutes(e *echo.Echo, reg *sites.Registry, env *sites.Env) *RefreshHandler {
	h := NewRefreshHandler(reg, env)

	e.POST("/sites/:site/refresh", h.Start)
	e.GET("/refresh", h.Index)
	e.GET("/refresh/:id", h.Status)

	log.Info().
		Str("new refresh", "/sites/:site/refresh").
		Str("get refresh status", "/refresh/:id").
		Str("list refreshes", "/refresh").
		Msg("Refresh routes mapped successfully.")

	return h
}
