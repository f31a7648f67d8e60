// Package scheduler runs the periodic walk-progress evaluator.  Two passes
// tick independently over every IN_PROGRESS booking: a progress pass that
// tells owners how the walk is going, and a stationary pass that alerts
// when the walker has not moved.  Throttle markers in the shared store keep
// both from repeating themselves, including across scheduler instances.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/petmily/walk-service/internal/config"
	"github.com/petmily/walk-service/internal/geo"
	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/notify"
	"github.com/petmily/walk-service/internal/walk"
)

// Evaluator iterates the active bookings on a fixed cadence.  A failure
// processing one booking is logged and never aborts the pass for the rest.
type Evaluator struct {
	bookings walk.BookingStore
	tracks   walk.TrackStore
	users    walk.UserStore
	notifier walk.Notifier
	markers  notify.MarkerStore
	cfg      config.WalkConfig

	now func() time.Time
}

// NewEvaluator wires the evaluator.  All dependencies are required.
func NewEvaluator(bookings walk.BookingStore, tracks walk.TrackStore, users walk.UserStore,
	notifier walk.Notifier, markers notify.MarkerStore, cfg config.WalkConfig) *Evaluator {
	if bookings == nil || tracks == nil || users == nil || notifier == nil || markers == nil {
		panic("nil dependency passed to scheduler.NewEvaluator")
	}
	return &Evaluator{
		bookings: bookings,
		tracks:   tracks,
		users:    users,
		notifier: notifier,
		markers:  markers,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run ticks both passes until ctx is cancelled.  Intended to be launched
// once from main in its own goroutine.
func (e *Evaluator) Run(ctx context.Context) {
	progress := time.NewTicker(e.cfg.ProgressInterval)
	stationary := time.NewTicker(e.cfg.StationaryInterval)
	defer progress.Stop()
	defer stationary.Stop()

	log.Printf("scheduler: started (progress every %s, stationary every %s)",
		e.cfg.ProgressInterval, e.cfg.StationaryInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: stopped: %v", ctx.Err())
			return
		case <-progress.C:
			e.RunProgressPass(ctx)
		case <-stationary.C:
			e.RunStationaryPass(ctx)
		}
	}
}

// RunProgressPass sends each active booking's owner a progress update with
// the distance and duration so far, at most once per progress interval.
func (e *Evaluator) RunProgressPass(ctx context.Context) {
	active, err := e.activeWalks(ctx)
	if err != nil {
		log.Printf("scheduler: progress pass skipped, active walk query failed: %v", err)
		return
	}
	for _, booking := range active {
		if err := e.progressOne(ctx, booking); err != nil {
			log.Printf("scheduler: progress check failed - booking %s: %v", booking.ID, err)
		}
	}
}

func (e *Evaluator) progressOne(ctx context.Context, booking *model.Booking) error {
	// Claim the marker first: under concurrent evaluators only one wins
	// the window, and a no-op pass costs one redis round trip.
	acquired, err := e.markers.Acquire(ctx, notify.ProgressKey(booking.ID), e.cfg.ProgressInterval)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	points, err := e.tracks.All(ctx, booking.ID)
	if err != nil {
		return err
	}
	stats := walk.ComputeStatistics(points)

	return e.send(ctx, booking, booking.OwnerID, walk.NotifyWalkProgress, map[string]any{
		"pet_id":            booking.PetID,
		"total_distance_km": stats.TotalDistanceKM,
		"duration_minutes":  stats.DurationMinutes,
		"total_points":      stats.TotalPoints,
	})
}

// RunStationaryPass alerts each active booking's owner when every sample in
// the stationary window sits within the configured radius of the first one,
// at most once per cooldown.
func (e *Evaluator) RunStationaryPass(ctx context.Context) {
	active, err := e.activeWalks(ctx)
	if err != nil {
		log.Printf("scheduler: stationary pass skipped, active walk query failed: %v", err)
		return
	}
	for _, booking := range active {
		if err := e.stationaryOne(ctx, booking); err != nil {
			log.Printf("scheduler: stationary check failed - booking %s: %v", booking.ID, err)
		}
	}
}

func (e *Evaluator) stationaryOne(ctx context.Context, booking *model.Booking) error {
	cutoff := e.now().UTC().Add(-e.cfg.StationaryWindow)
	recent, err := e.tracks.Since(ctx, booking.ID, cutoff)
	if err != nil {
		return err
	}
	if len(recent) < e.cfg.StationaryMinSamples {
		return nil
	}
	if !isStationary(recent, e.cfg.StationaryRadiusMeters) {
		return nil
	}

	acquired, err := e.markers.Acquire(ctx, notify.StationaryKey(booking.ID), e.cfg.StationaryCooldown)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	return e.send(ctx, booking, booking.OwnerID, walk.NotifyStationaryAlert, map[string]any{
		"pet_id":         booking.PetID,
		"window_minutes": int64(e.cfg.StationaryWindow / time.Minute),
		"radius_meters":  e.cfg.StationaryRadiusMeters,
	})
}

// isStationary reports whether every sample lies within radiusMeters of the
// first sample in the window.
func isStationary(points []model.TrackPoint, radiusMeters float64) bool {
	base := points[0]
	for _, p := range points[1:] {
		if geo.Distance(base.Latitude, base.Longitude, p.Latitude, p.Longitude) > radiusMeters {
			return false
		}
	}
	return true
}

// activeWalks snapshots the bookings currently in progress.  A booking
// that completes mid-pass produces a benign no-op on its turn.
func (e *Evaluator) activeWalks(ctx context.Context) ([]*model.Booking, error) {
	return e.bookings.FindByStatus(ctx, model.BookingInProgress)
}

func (e *Evaluator) send(ctx context.Context, booking *model.Booking, userID string, kind walk.NotificationKind, payload map[string]any) error {
	user, err := e.users.Find(ctx, userID)
	if err != nil {
		return err
	}
	contact := user.Contact()
	if contact == "" {
		log.Printf("scheduler: %s skipped, no contact for user %s - booking %s", kind, userID, booking.ID)
		return nil
	}
	payload["booking_id"] = booking.ID
	if err := e.notifier.Send(ctx, contact, kind, payload); err != nil {
		// Sink failures are contained here; the pass carries on.
		log.Printf("scheduler: %s delivery failed - booking %s: %v", kind, booking.ID, err)
	}
	return nil
}
