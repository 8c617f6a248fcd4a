package web

import (
	"entrylist/features/web/handlers/health"
	"entrylist/features/web/handlers/lists"
	"entrylist/features/web/handlers/problem"
	"entrylist/features/web/handlers/refresh"
	"entrylist/features/web/handlers/sites"

	"github.com/labstack/echo/v4"
)

func (app *Application) ConfigureRoutes() error {
	e := app.Echo
	svcs := app.services

	app.MapHome()

	sites.MapSitesRoutes(e, svcs.Registry, svcs.Env)
	lists.MapListsRoutes(e, svcs.Store(), svcs.Registry)
	app.refresh = refresh.MapRefreshRoutes(e, svcs.Registry, svcs.Env)

	problem.MapRoutes(e)
	health.MapHealth(e, *app.config, svcs.Registry.Names(), svcs.Metrics())

	return nil
}

func (app *Application) MapHome() {
	e := app.Echo

	e.GET("/", func(c echo.Context) error {
		return c.String(200, "Welcome to ENTRYLIST Service")
	})
}
