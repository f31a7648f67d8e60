package walk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/petmily/walk-service/internal/model"
)

// EmergencyType selects which contact an emergency call resolves to.
type EmergencyType string

const (
	EmergencyPolice  EmergencyType = "POLICE_112"
	EmergencyFire    EmergencyType = "FIRE_119"
	EmergencyContact EmergencyType = "EMERGENCY_CONTACT"
)

// Service orchestrates walk sessions: it drives the booking state machine,
// appends track samples, derives statistics and pushes notifications and
// live broadcasts.  Notification and broadcast failures are contained here;
// they are logged and never roll back a state transition.
type Service struct {
	bookings BookingStore
	details  DetailStore
	tracks   TrackStore
	users    UserStore
	detector *Detector
	live     Broadcaster
	notifier Notifier
	geocode  Geocoder

	// now is swappable for tests.
	now func() time.Time
}

// NewService wires the session service.  geocode may be nil, in which case
// snapshots simply omit the address.
func NewService(bookings BookingStore, details DetailStore, tracks TrackStore, users UserStore,
	detector *Detector, live Broadcaster, notifier Notifier, geocode Geocoder) *Service {
	if bookings == nil || details == nil || tracks == nil || users == nil {
		panic("nil store passed to walk.NewService")
	}
	if detector == nil {
		detector = NewDetector(AnomalyConfig{})
	}
	return &Service{
		bookings: bookings,
		details:  details,
		tracks:   tracks,
		users:    users,
		detector: detector,
		live:     live,
		notifier: notifier,
		geocode:  geocode,
		now:      time.Now,
	}
}

// EndRequest carries walker-supplied completion facts.
type EndRequest struct {
	SpecialNotes string `json:"special_notes"`
}

// StatusSnapshot is the read-only live view of an in-progress walk.
type StatusSnapshot struct {
	BookingID        string             `json:"booking_id"`
	WalkStatus       model.WalkStatus   `json:"walk_status"`
	CurrentLocation  model.TrackPoint   `json:"current_location"`
	CurrentAddress   *AddressInfo       `json:"current_address,omitempty"`
	CurrentSpeedKMH  *float64           `json:"current_speed_kmh,omitempty"`
	StartTime        *time.Time         `json:"start_time,omitempty"`
	ElapsedMinutes   int64              `json:"elapsed_minutes"`
	RemainingMinutes int64              `json:"remaining_minutes"`
	Statistics       PathStatistics     `json:"statistics"`
	Path             []model.TrackPoint `json:"path"`
}

// StartWalk moves a CONFIRMED booking to IN_PROGRESS on behalf of its
// walker, creating or updating the walk detail with the actual start time.
// The owner is notified and a STARTED status broadcast fires; failures of
// either are logged only.
func (s *Service) StartWalk(ctx context.Context, bookingID, requesterID string) (*model.Booking, *model.WalkDetail, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if requesterID != booking.WalkerID {
		return nil, nil, fmt.Errorf("%w: only the assigned walker can start the walk", ErrForbidden)
	}
	if err := CheckTransition(booking.Status, model.BookingInProgress); err != nil {
		return nil, nil, err
	}

	// Compare-and-set on status: a concurrent second start fails here
	// because the first call already moved the booking off CONFIRMED.
	if err := s.bookings.UpdateStatus(ctx, bookingID, model.BookingConfirmed, model.BookingInProgress); err != nil {
		return nil, nil, err
	}
	booking.Status = model.BookingInProgress

	detail, err := s.details.FindByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		detail = &model.WalkDetail{BookingID: bookingID}
		err = nil
	}
	if err != nil {
		return nil, nil, err
	}
	started := s.now().UTC()
	detail.ActualStartTime = &started
	detail.WalkStatus = model.WalkInProgress
	if err := s.details.Save(ctx, detail); err != nil {
		return nil, nil, err
	}

	s.notifyOwner(ctx, booking, NotifyWalkStarted, map[string]any{
		"pet_id":     booking.PetID,
		"started_at": started,
	})
	s.broadcastStatus(bookingID, "STARTED", booking)

	return booking, detail, nil
}

// RecordTrack validates and appends one GPS sample for an in-progress walk
// and fans it out to live subscribers.  Anomaly flags are logged, never
// enforced: a suspect sample is still stored.
func (s *Service) RecordTrack(ctx context.Context, bookingID string, point model.TrackPoint, requesterID string) (*model.TrackPoint, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if requesterID != booking.WalkerID {
		return nil, fmt.Errorf("%w: only the assigned walker streams location", ErrForbidden)
	}
	if booking.Status != model.BookingInProgress {
		return nil, fmt.Errorf("%w: can only track location during an active walk", ErrInvalidState)
	}
	if !point.HasCoordinates() {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidRequest)
	}

	point.BookingID = bookingID
	if point.Timestamp.IsZero() {
		point.Timestamp = s.now().UTC()
	}
	if point.TrackType == "" {
		point.TrackType = model.TrackWalking
	}

	s.flagAnomalies(ctx, bookingID, &point)

	if err := s.tracks.Append(ctx, &point); err != nil {
		return nil, err
	}
	if s.live != nil {
		s.live.PublishLocation(bookingID, point)
	}
	return &point, nil
}

// flagAnomalies runs both plausibility heuristics against the stored tail
// of the track.  Telemetry only; read failures are swallowed after logging.
func (s *Service) flagAnomalies(ctx context.Context, bookingID string, point *model.TrackPoint) {
	prev, err := s.tracks.Latest(ctx, bookingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("walk: anomaly check skipped, latest sample read failed - booking %s: %v", bookingID, err)
		return
	}
	if flag := s.detector.CheckJump(prev, point); flag.Suspect {
		log.Printf("walk: suspect sample - booking %s: %s", bookingID, flag.Reason)
	}

	recent, err := s.tracks.Recent(ctx, bookingID, s.detector.cfg.RepeatWindow)
	if err != nil {
		log.Printf("walk: anomaly check skipped, recent samples read failed - booking %s: %v", bookingID, err)
		return
	}
	if flag := s.detector.CheckRepetition(append(recent, *point)); flag.Suspect {
		log.Printf("walk: suspect pattern - booking %s: %s", bookingID, flag.Reason)
	}
}

// CompleteWalk finishes an in-progress walk: it finalizes the walk detail,
// stores the total distance computed from the full track, transitions the
// booking to COMPLETED and emits the completion notification and broadcast.
func (s *Service) CompleteWalk(ctx context.Context, bookingID string, end EndRequest, requesterID string) (*model.Booking, *model.WalkDetail, PathStatistics, error) {
	var stats PathStatistics

	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, nil, stats, err
	}
	if err := CheckTransition(booking.Status, model.BookingCompleted); err != nil {
		return nil, nil, stats, err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, model.BookingInProgress, model.BookingCompleted); err != nil {
		return nil, nil, stats, err
	}
	booking.Status = model.BookingCompleted

	detail, err := s.details.FindByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		detail = &model.WalkDetail{BookingID: bookingID}
		err = nil
	}
	if err != nil {
		return nil, nil, stats, err
	}

	now := s.now().UTC()
	if detail.ActualStartTime == nil {
		// The walk ran without a recorded start; backfill from the agreed
		// duration so elapsed-time math stays sane.
		backfilled := now.Add(-time.Duration(booking.DurationMinutes) * time.Minute)
		detail.ActualStartTime = &backfilled
	}
	detail.ActualEndTime = &now
	detail.WalkStatus = model.WalkCompleted
	if end.SpecialNotes != "" {
		detail.SpecialIncidents = end.SpecialNotes
	}

	points, err := s.tracks.All(ctx, bookingID)
	if err != nil {
		return nil, nil, stats, err
	}
	stats = ComputeStatistics(points)
	detail.TotalDistanceKM = stats.TotalDistanceKM

	if err := s.details.Save(ctx, detail); err != nil {
		return nil, nil, stats, err
	}

	s.notifyOwner(ctx, booking, NotifyWalkCompleted, map[string]any{
		"pet_id":            booking.PetID,
		"total_distance_km": stats.TotalDistanceKM,
		"duration_minutes":  stats.DurationMinutes,
	})
	s.broadcastStatus(bookingID, "COMPLETED", booking)

	return booking, detail, stats, nil
}

// RequestTermination records a proposal to end an in-progress walk early.
// It does not change the booking status; like a change request it needs the
// other party to act.  The counterpart is notified.
func (s *Service) RequestTermination(ctx context.Context, bookingID, requesterID, reason string) (*model.Booking, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingInProgress {
		return nil, fmt.Errorf("%w: can only request termination for walks in progress", ErrInvalidState)
	}

	entry := fmt.Sprintf("[%s] termination requested by %s: %s",
		s.now().UTC().Format(time.RFC3339), requesterID, reason)
	if booking.Notes != "" {
		booking.Notes += "\n"
	}
	booking.Notes += entry
	if err := s.bookings.Save(ctx, booking); err != nil {
		return nil, err
	}

	if other := booking.Counterpart(requesterID); other != "" {
		s.notifyUser(ctx, other, booking, NotifyTerminationRequest, map[string]any{
			"requested_by": requesterID,
			"reason":       reason,
		})
	}
	s.broadcastStatus(bookingID, "TERMINATION_REQUESTED", map[string]any{
		"requested_by": requesterID,
		"reason":       reason,
	})
	return booking, nil
}

// InitiateEmergencyCall resolves the number to dial for an emergency during
// a walk.  Police and fire map to fixed service codes and additionally
// notify the owner; the personal type resolves the owner's stored emergency
// contact and fails with ErrInvalidRequest when it is absent.  No booking
// state changes.
func (s *Service) InitiateEmergencyCall(ctx context.Context, bookingID, requesterID string, emergencyType EmergencyType, location, description string) (string, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return "", err
	}

	var number string
	switch emergencyType {
	case EmergencyPolice:
		number = "112"
	case EmergencyFire:
		number = "119"
	case EmergencyContact:
		owner, err := s.users.Find(ctx, booking.OwnerID)
		if err != nil {
			return "", err
		}
		number = strings.TrimSpace(owner.EmergencyContactPhone)
		if number == "" {
			return "", fmt.Errorf("%w: emergency contact not set for this booking", ErrInvalidRequest)
		}
	default:
		return "", fmt.Errorf("%w: unsupported emergency type %q", ErrInvalidRequest, emergencyType)
	}

	if emergencyType == EmergencyPolice || emergencyType == EmergencyFire {
		s.notifyOwner(ctx, booking, NotifyEmergency, map[string]any{
			"emergency_type": emergencyType,
			"location":       location,
			"description":    description,
		})
		s.broadcastStatus(bookingID, "EMERGENCY", map[string]any{
			"emergency_type": emergencyType,
			"location":       location,
		})
	}

	log.Printf("walk: emergency call - booking %s, type %s, location %q", bookingID, emergencyType, location)
	return number, nil
}

// WalkPath returns the full ordered track with derived statistics.  Both
// participants may read it at any lifecycle stage.
func (s *Service) WalkPath(ctx context.Context, bookingID, requesterID string) ([]model.TrackPoint, PathStatistics, error) {
	if _, err := s.requireParticipant(ctx, bookingID, requesterID); err != nil {
		return nil, PathStatistics{}, err
	}
	points, err := s.tracks.All(ctx, bookingID)
	if err != nil {
		return nil, PathStatistics{}, err
	}
	return points, ComputeStatistics(points), nil
}

// RealtimeSince returns samples recorded strictly after the given
// timestamp, ascending.  Reconnecting live subscribers use it to catch up.
func (s *Service) RealtimeSince(ctx context.Context, bookingID string, after time.Time, requesterID string) ([]model.TrackPoint, error) {
	if _, err := s.requireParticipant(ctx, bookingID, requesterID); err != nil {
		return nil, err
	}
	return s.tracks.Since(ctx, bookingID, after)
}

// UploadPhoto records a photo URL on the walk detail under the START,
// MIDDLE or END slot.  Only allowed while the walk is in progress.
func (s *Service) UploadPhoto(ctx context.Context, bookingID, requesterID, photoType, photoURL string) (*model.WalkDetail, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingInProgress {
		return nil, fmt.Errorf("%w: can only upload photos during an active walk", ErrInvalidState)
	}
	if photoURL == "" {
		return nil, fmt.Errorf("%w: photo_url is required", ErrInvalidRequest)
	}

	detail, err := s.details.FindByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		detail = &model.WalkDetail{BookingID: bookingID, WalkStatus: model.WalkInProgress}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(photoType) {
	case "START":
		detail.StartPhotoURL = photoURL
	case "MIDDLE":
		detail.MiddlePhotoURL = photoURL
	case "END":
		detail.EndPhotoURL = photoURL
	default:
		return nil, fmt.Errorf("%w: photo type must be START, MIDDLE or END", ErrInvalidRequest)
	}

	if err := s.details.Save(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// StatusSnapshot composes the current live view of a walk: latest sample,
// full path, elapsed and remaining minutes, distance and speed figures and
// the walk sub-status.  Fails with ErrNotFound when no samples exist yet.
func (s *Service) StatusSnapshot(ctx context.Context, bookingID, requesterID string) (*StatusSnapshot, error) {
	booking, err := s.requireParticipant(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}

	detail, err := s.details.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	points, err := s.tracks.All(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no track recorded for booking %s", ErrNotFound, bookingID)
	}

	latest := points[len(points)-1]
	snap := &StatusSnapshot{
		BookingID:       bookingID,
		WalkStatus:      detail.WalkStatus,
		CurrentLocation: latest,
		CurrentSpeedKMH: latest.Speed,
		StartTime:       detail.ActualStartTime,
		Statistics:      ComputeStatistics(points),
		Path:            points,
	}

	if detail.ActualStartTime != nil {
		snap.ElapsedMinutes = int64(s.now().UTC().Sub(*detail.ActualStartTime) / time.Minute)
	}
	snap.RemainingMinutes = int64(booking.DurationMinutes) - snap.ElapsedMinutes
	if snap.RemainingMinutes < 0 {
		snap.RemainingMinutes = 0
	}

	if s.geocode != nil {
		if addr, err := s.geocode(ctx, latest.Latitude, latest.Longitude); err == nil {
			snap.CurrentAddress = &addr
		} else {
			log.Printf("walk: reverse geocode failed - booking %s: %v", bookingID, err)
		}
	}
	return snap, nil
}

// requireParticipant loads the booking and authorizes the requester as one
// of its participants.
func (s *Service) requireParticipant(ctx context.Context, bookingID, requesterID string) (*model.Booking, error) {
	booking, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(requesterID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", ErrForbidden, requesterID, bookingID)
	}
	return booking, nil
}

// notifyOwner sends a notification to the booking's owner.  Sink failures
// are logged and swallowed.
func (s *Service) notifyOwner(ctx context.Context, booking *model.Booking, kind NotificationKind, payload map[string]any) {
	s.notifyUser(ctx, booking.OwnerID, booking, kind, payload)
}

func (s *Service) notifyUser(ctx context.Context, userID string, booking *model.Booking, kind NotificationKind, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		log.Printf("walk: %s notification skipped, contact lookup failed - booking %s: %v", kind, booking.ID, err)
		return
	}
	contact := user.Contact()
	if contact == "" {
		log.Printf("walk: %s notification skipped, no contact for user %s - booking %s", kind, userID, booking.ID)
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["booking_id"] = booking.ID
	if err := s.notifier.Send(ctx, contact, kind, payload); err != nil {
		log.Printf("walk: %s notification failed - booking %s: %v", kind, booking.ID, err)
	}
}

// broadcastStatus publishes a status transition to live subscribers.
// Best effort; the hub contains its own failures, nil hub is a no-op.
func (s *Service) broadcastStatus(bookingID, status string, payload any) {
	if s.live == nil {
		return
	}
	s.live.PublishStatus(bookingID, status, payload)
}
