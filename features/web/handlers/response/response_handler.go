package response

import (
	"errors"
	"net/http"

	"entrylist/features/engine"
	"entrylist/features/lists"
	"entrylist/features/sites"
	"entrylist/features/storage/storage_errors"

	"github.com/labstack/echo/v4"
)

// Success returns a standardized success response
func Success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Accepted(c echo.Context, data any) error {
	return c.JSON(http.StatusAccepted, map[string]any{
		"success": true,
		"data":    data,
	})
}

// Error returns a standardized error response
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]any{
		"success": false,
		"error":   message,
	})
}

func ErrorWithDetails(c echo.Context, code int, message string, details any) error {
	return c.JSON(code, map[string]any{
		"success": false,
		"error":   message,
		"details": details,
	})
}

func NotFound(c echo.Context, message string, input string) error {
	return c.JSON(http.StatusNotFound, map[string]any{
		"success": false,
		"error":   message,
		"input":   input,
	})
}

func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// FromError picks the status matching a domain error.
func FromError(c echo.Context, message string, err error) error {
	return ErrorWithDetails(c, StatusOf(err), message, err.Error())
}

func StatusOf(err error) int {
	switch {
	case errors.Is(err, sites.ErrUnknownSite),
		errors.Is(err, sites.ErrNoSiteForURL),
		errors.Is(err, storage_errors.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, sites.ErrNotTarget),
		errors.Is(err, sites.ErrNotRefreshable),
		errors.Is(err, engine.ErrNoIdentity),
		errors.Is(err, engine.ErrInvalidAdapter):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoUser),
		errors.Is(err, engine.ErrNoRemoteUser):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ListNotFound answers a lookup of a list that is not stored.
func ListNotFound(c echo.Context, o lists.Owner, name string) error {
	return NotFound(c, "List not found", o.ListKey(name))
}
