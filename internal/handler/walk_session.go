package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/petmily/walk-service/internal/middleware"
	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/walk"
)

// WalkHandler exposes the live-walk lifecycle over HTTP.  All routes sit
// behind JWT auth; the handler passes the caller's user ID down to the
// service, which enforces participant and walker-only rules.
type WalkHandler struct {
	Walks *walk.Service
}

// NewWalkHandler constructs a WalkHandler.  The service must be non-nil.
func NewWalkHandler(walks *walk.Service) *WalkHandler {
	if walks == nil {
		panic("nil walk service passed to NewWalkHandler")
	}
	return &WalkHandler{Walks: walks}
}

// Start handles POST /v1/walks/:id/start.  Only the assigned walker may
// start, and the booking must be CONFIRMED.
func (h *WalkHandler) Start(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, detail, err := h.Walks.StartWalk(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking": toBookingJSON(booking),
		"walk":    toWalkDetailJSON(detail),
	})
}

// Track handles POST /v1/walks/:id/track.  The walker's device posts one
// GPS sample per call; the response echoes the stored point so clients can
// confirm the server-assigned ID and timestamp.
func (h *WalkHandler) Track(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Latitude  float64    `json:"latitude"`
		Longitude float64    `json:"longitude"`
		Timestamp *time.Time `json:"timestamp"`
		Accuracy  *float64   `json:"accuracy"`
		Speed     *float64   `json:"speed"`
		Altitude  *float64   `json:"altitude"`
		TrackType string     `json:"track_type"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	point := model.TrackPoint{
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
		Accuracy:  body.Accuracy,
		Speed:     body.Speed,
		Altitude:  body.Altitude,
		TrackType: model.TrackType(body.TrackType),
	}
	if body.Timestamp != nil {
		point.Timestamp = *body.Timestamp
	}
	stored, err := h.Walks.RecordTrack(c.Request().Context(), c.Param("id"), point, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toTrackPointJSON(stored))
}

// Complete handles POST /v1/walks/:id/complete.  It closes the walk,
// stamps the end time and returns the final path statistics.
func (h *WalkHandler) Complete(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body walk.EndRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	booking, detail, stats, err := h.Walks.CompleteWalk(c.Request().Context(), c.Param("id"), body, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":    toBookingJSON(booking),
		"walk":       toWalkDetailJSON(detail),
		"statistics": stats,
	})
}

// Terminate handles POST /v1/walks/:id/terminate.  Either participant may
// ask for an early end; the other side is notified and decides out of band.
func (h *WalkHandler) Terminate(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	booking, err := h.Walks.RequestTermination(c.Request().Context(), c.Param("id"), userID, body.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingJSON(booking)})
}

// Emergency handles POST /v1/walks/:id/emergency.  It resolves the number
// to dial for the requested emergency type and alerts the owner for police
// or fire calls.
func (h *WalkHandler) Emergency(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EmergencyType string `json:"emergency_type"`
		Location      string `json:"location"`
		Description   string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	number, err := h.Walks.InitiateEmergencyCall(c.Request().Context(), c.Param("id"), userID,
		walk.EmergencyType(body.EmergencyType), body.Location, body.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"phone_number": number})
}

// Status handles GET /v1/walks/:id/status.  It returns the live snapshot
// of an in-progress walk including the latest location and statistics.
func (h *WalkHandler) Status(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	snap, err := h.Walks.StatusSnapshot(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Path handles GET /v1/walks/:id/path.  It returns the full recorded track
// plus aggregate statistics, for both live and completed walks.
func (h *WalkHandler) Path(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	points, stats, err := h.Walks.WalkPath(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"path":       toTrackListJSON(points),
		"statistics": stats,
	})
}

// Realtime handles GET /v1/walks/:id/realtime?after=RFC3339.  Reconnecting
// clients use it to catch up on samples they missed while offline.
func (h *WalkHandler) Realtime(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	after := time.Time{}
	if raw := c.QueryParam("after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid after timestamp"})
		}
		after = t
	}
	points, err := h.Walks.RealtimeSince(c.Request().Context(), c.Param("id"), after, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"points": toTrackListJSON(points)})
}

// Photo handles POST /v1/walks/:id/photos.  Photos are uploaded to object
// storage by the client; this endpoint records the resulting URL under the
// START, MIDDLE or END slot.
func (h *WalkHandler) Photo(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PhotoType string `json:"photo_type"`
		PhotoURL  string `json:"photo_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	detail, err := h.Walks.UploadPhoto(c.Request().Context(), c.Param("id"), userID, body.PhotoType, body.PhotoURL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toWalkDetailJSON(detail))
}
