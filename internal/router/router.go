package router

import (
	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
