package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/walk"
)

// fail translates service sentinel errors into HTTP responses.  Unknown
// errors become a generic 500 so internals never leak to clients.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, walk.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, walk.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, walk.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, walk.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
