package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/booking"
	"github.com/petmily/walk-service/internal/middleware"
	"github.com/petmily/walk-service/internal/model"
)

// BookingHandler exposes booking creation, the open-request application
// flow and the change-request workflow.  Authorization beyond "valid JWT"
// lives in the service layer, which knows who owns what.
type BookingHandler struct {
	Bookings *booking.Service
}

// NewBookingHandler constructs a BookingHandler.  The service must be
// non-nil.
func NewBookingHandler(bookings *booking.Service) *BookingHandler {
	if bookings == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

// Create handles POST /v1/bookings.  A walker_id in the body makes it a
// direct booking; leaving it empty publishes an open request.
func (h *BookingHandler) Create(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body booking.CreateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var (
		b   *model.Booking
		err error
	)
	if body.WalkerID != "" {
		b, err = h.Bookings.CreateDirect(c.Request().Context(), userID, body)
	} else {
		b, err = h.Bookings.CreateOpenRequest(c.Request().Context(), userID, body)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingJSON(b))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// Accept handles POST /v1/bookings/:id/accept.  The addressed walker
// confirms a direct booking.
func (h *BookingHandler) Accept(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.Accept(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// Reject handles POST /v1/bookings/:id/reject.
func (h *BookingHandler) Reject(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.Reject(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// Cancel handles POST /v1/bookings/:id/cancel.  Either participant may
// cancel while the booking is not terminal.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// Apply handles POST /v1/open-requests/:id/apply.  A walker files an
// application shell against an open request, optionally proposing a price.
func (h *BookingHandler) Apply(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ProposedPrice *float64 `json:"proposed_price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Bookings.Apply(c.Request().Context(), c.Param("id"), userID, body.ProposedPrice)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingJSON(b))
}

// Applications handles GET /v1/open-requests/:id/applications.
func (h *BookingHandler) Applications(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	apps, err := h.Bookings.Applications(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": toBookingListJSON(apps)})
}

// AcceptApplication handles POST /v1/applications/:id/accept.  The owner
// picks one walker; sibling applications are rejected and the parent open
// request is closed.
func (h *BookingHandler) AcceptApplication(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.AcceptApplication(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// RejectApplication handles POST /v1/applications/:id/reject.
func (h *BookingHandler) RejectApplication(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.RejectApplication(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toBookingJSON(b))
}

// RequestChange handles POST /v1/bookings/:id/changes.  One participant
// proposes new terms; the counterpart is notified and responds later.
func (h *BookingHandler) RequestChange(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body booking.ChangeProposal
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req, err := h.Bookings.RequestChange(c.Request().Context(), c.Param("id"), userID, body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toChangeRequestJSON(req))
}

// RespondToChange handles POST /v1/changes/:id/respond.  Approving applies
// the proposed fields to the booking in the same call.
func (h *BookingHandler) RespondToChange(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req, err := h.Bookings.RespondToChange(c.Request().Context(), c.Param("id"), userID, body.Approve, body.Note)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toChangeRequestJSON(req))
}

// ListChanges handles GET /v1/bookings/:id/changes.
func (h *BookingHandler) ListChanges(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqs, err := h.Bookings.ChangeRequests(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]changeRequestJSON, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toChangeRequestJSON(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"change_requests": out})
}
