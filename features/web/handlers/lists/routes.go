package lists

import (
	"entrylist/features/lists"
	"entrylist/features/sites"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapListsRoutes(e *echo.Echo, store *lists.Store, reg *sites.Registry) {
	h := NewListsHandler(store, reg)

	g := e.Group("/sites/:site/users/:user/lists")
	g.GET("", h.Index)
	g.DELETE("", h.DeleteAll)
	g.GET("/:list", h.Get)
	g.PUT("/:list", h.Put)
	g.DELETE("/:list", h.Delete)
	g.POST("/:list/toggle", h.Toggle)

	log.Info().Str("lists", "/sites/:site/users/:user/lists").Msg("List routes mapped successfully.")
}
