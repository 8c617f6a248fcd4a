package problem

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// errorHandler turns errors escaping the handlers into JSON problems. Unknown
// routes get the 404 document.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var message any = err.Error()
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		message = httpErr.Message
	}

	if code == http.StatusNotFound {
		if handleErr := handle404(c); handleErr != nil {
			log.Error().Err(handleErr).Msg("Could not write 404 response")
		}
		return
	}

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Unhandled error")
	}
	_ = c.JSON(code, map[string]any{
		"success": false,
		"error":   http.StatusText(code),
		"message": fmt.Sprintf("%v", message),
	})
}

func MapRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = errorHandler
	e.GET("/404", handle404)
}

func handle404(c echo.Context) error {
	referer := c.QueryParam("referer")
	var referStr *string
	if referer != "" {
		referStr = &referer
	}

	return c.JSON(http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Not Found",
		"message": "The requested resource was not found",
		"referer": referStr,
	})
}
