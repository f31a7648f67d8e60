package router

import (
	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/handler"
	"github.com/petmily/walk-service/internal/middleware"
)

// RegisterWalk registers the live-walk endpoints under /v1.  Every route
// requires a valid JWT; finer-grained rules (walker-only writes,
// participant-only reads) are enforced in the service layer.
func RegisterWalk(e *echo.Echo, w *handler.WalkHandler, l *handler.LiveHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/walks/:id/start", w.Start)
	g.POST("/walks/:id/track", w.Track)
	g.POST("/walks/:id/complete", w.Complete)
	g.POST("/walks/:id/terminate", w.Terminate)
	g.POST("/walks/:id/emergency", w.Emergency)
	g.POST("/walks/:id/photos", w.Photo)
	g.GET("/walks/:id/status", w.Status)
	g.GET("/walks/:id/path", w.Path)
	g.GET("/walks/:id/realtime", w.Realtime)

	// Live monitoring: WebSocket stream plus the Redis-backed history of
	// notifications sent while the walk ran.
	g.GET("/walks/:id/live", l.Watch)
	g.GET("/walks/:id/notifications", n.History)
}
