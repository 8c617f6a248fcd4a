package middlewares

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequestLogger middleware logs each request with the id set by the RequestID
// middleware.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			c.Set("request_id", requestID)

			req := c.Request()
			start := time.Now()

			logCtx := log.With().
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP())

			err := next(c)

			status := c.Response().Status
			respLogger := logCtx.
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("bytes_out", formatByteCount(c.Response().Size)).
				Logger()

			if err != nil {
				respLogger.Error().Err(err).Msg("Request failed")
				return err
			}

			switch {
			case status >= 500:
				respLogger.Error().Msg("Server error")
			case status >= 400:
				respLogger.Warn().Msg("Client error")
			case status >= 300:
				respLogger.Debug().Msg("Redirection")
			default:
				respLogger.Debug().Msg("Request completed")
			}
			return nil
		}
	}
}

func formatByteCount(bytes int64) string {
	if bytes == 0 {
		return "-"
	}
	return humanizeBytes(bytes)
}

func humanizeBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatInt(bytes/div, 10) + " " + string("KMGTPE"[exp]) + "B"
}
