package collector

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExposeMetricsHTTPHandler serves the Prometheus text exposition format.
func (mc *MetricsCollector) ExposeMetricsHTTPHandler() http.Handler {
	return promhttp.Handler()
}

// ExposeStatusHandler reports the last refresh status per site as JSON.
func (mc *MetricsCollector) ExposeStatusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, mc.RefreshStatuses())
}

func (mc *MetricsCollector) ExposeWebMetrics(e *echo.Echo) {
	e.GET("/metrics", mc.ExposeStatusHandler)
	e.GET("/metrics/prometheus", echo.WrapHandler(mc.ExposeMetricsHTTPHandler()))
}
