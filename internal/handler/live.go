package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/live"
	"github.com/petmily/walk-service/internal/middleware"
	"github.com/petmily/walk-service/internal/walk"
)

// LiveHandler upgrades clients to WebSocket and attaches them to the live
// hub for a booking.  Only the booking's participants may subscribe.
type LiveHandler struct {
	Hub      *live.Hub
	Bookings walk.BookingStore
	upgrader websocket.Upgrader
}

// NewLiveHandler constructs a LiveHandler.  Both dependencies must be
// non-nil.
func NewLiveHandler(hub *live.Hub, bookings walk.BookingStore) *LiveHandler {
	if hub == nil || bookings == nil {
		panic("nil dependency passed to NewLiveHandler")
	}
	return &LiveHandler{
		Hub:      hub,
		Bookings: bookings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth already gates the route; cross-origin browser
			// clients are expected (owner web app).
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Watch handles GET /v1/walks/:id/live.  On success the connection stays
// open and receives location and status envelopes until either side closes.
func (h *LiveHandler) Watch(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	booking, err := h.Bookings.Find(c.Request().Context(), bookingID)
	if err != nil {
		return fail(c, err)
	}
	if !booking.IsParticipant(userID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant of this booking"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		return nil
	}
	h.Hub.Subscribe(bookingID, conn)
	return nil
}
