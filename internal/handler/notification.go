package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/middleware"
	"github.com/petmily/walk-service/internal/notify"
	"github.com/petmily/walk-service/internal/walk"
)

// NotificationHandler serves the per-booking notification history kept in
// Redis.  History entries are the JSON payloads recorded by the gateway.
type NotificationHandler struct {
	Gateway  *notify.Gateway
	Bookings walk.BookingStore
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(gw *notify.Gateway, bookings walk.BookingStore) *NotificationHandler {
	if gw == nil || bookings == nil {
		panic("nil dependency passed to NewNotificationHandler")
	}
	return &NotificationHandler{Gateway: gw, Bookings: bookings}
}

// History handles GET /v1/walks/:id/notifications.  Entries expire with
// the configured history TTL, so completed walks eventually return empty.
func (h *NotificationHandler) History(c echo.Context) error {
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

	entries, err := h.Gateway.History(c.Request().Context(), bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load history"})
	}
	// Entries are "<kind>:<timestamp>" markers; split them so clients get
	// structured records.
	type record struct {
		Kind   string `json:"kind"`
		SentAt string `json:"sent_at,omitempty"`
	}
	out := make([]record, 0, len(entries))
	for _, e := range entries {
		kind, sentAt, _ := strings.Cut(e, ":")
		out = append(out, record{Kind: kind, SentAt: sentAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": out})
}
