package health

import (
	"net/http"

	"entrylist/internal/collector"
	"entrylist/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type HealthHandler struct {
	sites   []string
	metrics *collector.MetricsCollector
}

// MapHealth sets up a simple healthcheck endpoint if enabled in config.
func MapHealth(e *echo.Echo, cfg config.ServerConfig, sites []string, mc *collector.MetricsCollector) {
	if !cfg.HealthCheck {
		log.Info().Msg("Health check disabled")
		return
	}
	h := &HealthHandler{sites: sites, metrics: mc}

	g := e.Group("/health")
	g.GET("/status", h.StatusCheck)
	log.Info().Msg("Health check enabled at /health/status")
}

// StatusCheck returns “ok” with the enabled sites and the last refresh of each.
func (h *HealthHandler) StatusCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"sites":   h.sites,
		"refresh": h.metrics.RefreshStatuses(),
	})
}
