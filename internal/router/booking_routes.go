package router

import (
	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/handler"
	"github.com/petmily/walk-service/internal/middleware"
)

// RegisterBooking registers booking lifecycle endpoints under /v1.  This
// covers direct bookings, the open-request application flow and booking
// change requests.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/bookings", b.Create)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/accept", b.Accept)
	g.POST("/bookings/:id/reject", b.Reject)
	g.POST("/bookings/:id/cancel", b.Cancel)

	g.POST("/open-requests/:id/apply", b.Apply)
	g.GET("/open-requests/:id/applications", b.Applications)
	g.POST("/applications/:id/accept", b.AcceptApplication)
	g.POST("/applications/:id/reject", b.RejectApplication)

	g.POST("/bookings/:id/changes", b.RequestChange)
	g.GET("/bookings/:id/changes", b.ListChanges)
	g.POST("/changes/:id/respond", b.RespondToChange)
}
