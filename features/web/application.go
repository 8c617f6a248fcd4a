package web

import (
	"errors"
	"net/http"
	"net/http/pprof"
	rpprof "runtime/pprof"
	"strconv"
	"sync"

	"entrylist/features/web/handlers/refresh"
	"entrylist/features/web/middlewares"
	"entrylist/internal/config"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/secure"
	"github.com/ziflex/lecho/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Application errors
var (
	ErrApplicationNotInitialized = errors.New("application not initialized")
	ErrServiceInitFailed         = errors.New("services initialization failed")
	ErrRoutesMapFailed           = errors.New("routes configuration failed")
)

// Global variables (singleton pattern)
var (
	onceApplication sync.Once
	application     *Application
)

// Application holds our Echo instance, Config, Logger, and Services.
type Application struct {
	Echo     *echo.Echo
	config   *config.ServerConfig
	logger   *lecho.Logger
	services *Services
	refresh  *refresh.RefreshHandler
}

// GetApplication retrieves the singleton instance of Application.
func GetApplication() (*Application, error) {
	if application == nil {
		return nil, ErrApplicationNotInitialized
	}
	return application, nil
}

// NewApplication builds the process-wide Application once.
func NewApplication(cfg *config.ServerConfig, svcs *Services) (*Application, error) {
	var initErr error
	onceApplication.Do(func() {
		application, initErr = New(cfg, svcs)
	})
	return application, initErr
}

// New initializes the Echo server, configures middlewares, and sets up routes.
func New(cfg *config.ServerConfig, svcs *Services) (*Application, error) {
	if svcs == nil {
		return nil, ErrServiceInitFailed
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.Addr = ":" + strconv.Itoa(cfg.Port)
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	log.Info().Str("address", e.Server.Addr).Msg("Server address")

	app := &Application{
		Echo:     e,
		config:   cfg,
		services: svcs,
	}

	app.configureLogger()
	app.configureMiddleware()

	if mapErr := app.ConfigureRoutes(); mapErr != nil {
		log.Err(mapErr).Msg("Routes configuration error")
		return nil, ErrRoutesMapFailed
	}

	app.ConfigurePprof()
	app.configureMetrics()

	return app, nil
}

// Wait blocks until every background refresh started over HTTP is done.
func (app *Application) Wait() {
	if app.refresh != nil {
		app.refresh.Wait()
	}
}

func (app *Application) configureMetrics() {
	app.services.Metrics().ExposeWebMetrics(app.Echo)

	// The OpenTelemetry meter provider exports through the default registry.
	app.Echo.GET("/otel-metrics", echo.WrapHandler(promhttp.Handler()))
	log.Info().Msg("OpenTelemetry metrics endpoint configured at /otel-metrics")
}

func (app *Application) configureMiddleware() {
	e := app.Echo

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	e.Use(otelecho.Middleware("entrylist"))

	e.Use(echoprometheus.NewMiddleware("echo"))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:        true,
		BrowserXssFilter: true,
	})
	e.Use(echo.WrapMiddleware(secureMiddleware.Handler))

	e.Use(lecho.Middleware(lecho.Config{Logger: app.logger}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     app.config.AllowOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestedWith,
			echo.HeaderAuthorization,
		},
	}))

	e.Use(middlewares.RequestLogger())
	e.Pre(middleware.RemoveTrailingSlash())

	middlewares.ConfigureValidator(e)
}

func (app *Application) configureLogger() {
	lechoLogger := lecho.From(log.Logger, lecho.WithTimestamp())
	app.Echo.Logger = lechoLogger
	app.logger = lechoLogger
}

func (app *Application) ConfigurePprof() {
	pprofGroup := app.Echo.Group("/debug/pprof")

	pprofGroup.GET("", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	pprofGroup.GET("/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))

	pprofGroup.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	pprofGroup.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	pprofGroup.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	pprofGroup.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))

	for _, profile := range rpprof.Profiles() {
		name := profile.Name()
		pprofGroup.GET("/"+name, echo.WrapHandler(pprof.Handler(name)))
	}
}
