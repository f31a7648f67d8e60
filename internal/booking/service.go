// Package booking implements the booking lifecycle around the walk state
// machine: direct bookings, the open-request application flow and the
// change-request workflow.
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/walk"
)

// Store extends the walk-side booking contract with the creation and
// open-request queries this package needs.
type Store interface {
	walk.BookingStore
	// Create inserts a new booking row.
	Create(ctx context.Context, b *model.Booking) error
	// FindApplications returns the WALKER_APPLIED shells attached to an
	// open request.
	FindApplications(ctx context.Context, openRequestID string) ([]*model.Booking, error)
}

// ChangeStore persists booking change requests.
type ChangeStore interface {
	Create(ctx context.Context, r *model.BookingChangeRequest) error
	Find(ctx context.Context, id string) (*model.BookingChangeRequest, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*model.BookingChangeRequest, error)
	Update(ctx context.Context, r *model.BookingChangeRequest) error
}

// Service drives booking creation and the multi-actor status workflow.
type Service struct {
	bookings Store
	changes  ChangeStore
	notifier walk.Notifier
	users    walk.UserStore
	now      func() time.Time
}

// NewService wires the booking service.  notifier may be nil.
func NewService(bookings Store, changes ChangeStore, users walk.UserStore, notifier walk.Notifier) *Service {
	if bookings == nil || changes == nil || users == nil {
		panic("nil store passed to booking.NewService")
	}
	return &Service{
		bookings: bookings,
		changes:  changes,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateRequest carries the fields common to both booking methods.
type CreateRequest struct {
	WalkerID         string    `json:"walker_id,omitempty"` // required for direct bookings, empty for open requests
	PetID            string    `json:"pet_id"`
	Date             time.Time `json:"date"`
	DurationMinutes  int       `json:"duration_minutes"`
	TotalPrice       float64   `json:"total_price"`
	Notes            string    `json:"notes"`
	PickupLocation   string    `json:"pickup_location"`
	PickupAddress    string    `json:"pickup_address"`
	DropoffLocation  string    `json:"dropoff_location"`
	DropoffAddress   string    `json:"dropoff_address"`
	InsuranceCovered bool      `json:"insurance_covered"`
}

func (r *CreateRequest) validate(direct bool) error {
	if r.PetID == "" {
		return fmt.Errorf("%w: pet_id is required", walk.ErrInvalidRequest)
	}
	if direct && r.WalkerID == "" {
		return fmt.Errorf("%w: walker_id is required for a direct booking", walk.ErrInvalidRequest)
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", walk.ErrInvalidRequest)
	}
	if r.TotalPrice < 0 {
		return fmt.Errorf("%w: price cannot be negative", walk.ErrInvalidRequest)
	}
	return nil
}

// CreateDirect creates a PENDING booking addressed to a specific walker.
func (s *Service) CreateDirect(ctx context.Context, ownerID string, req CreateRequest) (*model.Booking, error) {
	if err := req.validate(true); err != nil {
		return nil, err
	}
	b := s.newBooking(ownerID, req)
	b.WalkerID = req.WalkerID
	b.Method = model.MethodWalkerSelection
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateOpenRequest posts a PENDING booking with no walker attached;
// walkers apply to it and the owner picks one.
func (s *Service) CreateOpenRequest(ctx context.Context, ownerID string, req CreateRequest) (*model.Booking, error) {
	if err := req.validate(false); err != nil {
		return nil, err
	}
	b := s.newBooking(ownerID, req)
	b.Method = model.MethodOpenRequest
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) newBooking(ownerID string, req CreateRequest) *model.Booking {
	return &model.Booking{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		PetID:            req.PetID,
		Date:             req.Date.UTC(),
		DurationMinutes:  req.DurationMinutes,
		Status:           model.BookingPending,
		TotalPrice:       req.TotalPrice,
		Notes:            req.Notes,
		PickupLocation:   req.PickupLocation,
		PickupAddress:    req.PickupAddress,
		DropoffLocation:  req.DropoffLocation,
		DropoffAddress:   req.DropoffAddress,
		InsuranceCovered: req.InsuranceCovered,
		CreatedAt:        s.now().UTC(),
	}
}

// Accept lets the addressed walker confirm a PENDING direct booking.
func (s *Service) Accept(ctx context.Context, bookingID, walkerID string) (*model.Booking, error) {
	return s.walkerDecision(ctx, bookingID, walkerID, model.BookingConfirmed)
}

// Reject lets the addressed walker decline a PENDING direct booking.
func (s *Service) Reject(ctx context.Context, bookingID, walkerID string) (*model.Booking, error) {
	return s.walkerDecision(ctx, bookingID, walkerID, model.BookingRejected)
}

func (s *Service) walkerDecision(ctx context.Context, bookingID, walkerID string, to model.BookingStatus) (*model.Booking, error) {
	b, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.WalkerID != walkerID {
		return nil, fmt.Errorf("%w: booking is not addressed to this walker", walk.ErrForbidden)
	}
	if err := walk.CheckTransition(b.Status, to); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(ctx, bookingID, b.Status, to); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}

// Apply creates a WALKER_APPLIED shell attached to an open request.  The
// open request must still be PENDING, and a walker can hold at most one
// live application per request.
func (s *Service) Apply(ctx context.Context, openRequestID, walkerID string, proposedPrice *float64) (*model.Booking, error) {
	open, err := s.bookings.Find(ctx, openRequestID)
	if err != nil {
		return nil, err
	}
	if open.Method != model.MethodOpenRequest {
		return nil, fmt.Errorf("%w: booking is not an open request", walk.ErrInvalidRequest)
	}
	if open.Status != model.BookingPending {
		return nil, fmt.Errorf("%w: open request is no longer accepting applications", walk.ErrInvalidState)
	}
	if walkerID == open.OwnerID {
		return nil, fmt.Errorf("%w: owner cannot apply to their own request", walk.ErrForbidden)
	}

	existing, err := s.bookings.FindApplications(ctx, openRequestID)
	if err != nil {
		return nil, err
	}
	for _, app := range existing {
		if app.WalkerID == walkerID && app.Status == model.BookingWalkerApplied {
			return nil, fmt.Errorf("%w: walker already applied to this request", walk.ErrInvalidState)
		}
	}

	application := *open
	application.ID = uuid.NewString()
	application.OpenRequestID = openRequestID
	application.WalkerID = walkerID
	application.Status = model.BookingWalkerApplied
	application.CreatedAt = s.now().UTC()
	if proposedPrice != nil {
		application.TotalPrice = *proposedPrice
	}
	if err := s.bookings.Create(ctx, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

// AcceptApplication confirms one WALKER_APPLIED application on behalf of
// the owner.  Every sibling application still in WALKER_APPLIED is rejected
// and the parent open request is closed, so at most one winner exists per
// open request.
func (s *Service) AcceptApplication(ctx context.Context, applicationID, ownerID string) (*model.Booking, error) {
	app, err := s.bookings.Find(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the request owner accepts applications", walk.ErrForbidden)
	}
	if err := walk.CheckTransition(app.Status, model.BookingConfirmed); err != nil {
		return nil, err
	}
	if app.Status != model.BookingWalkerApplied {
		return nil, fmt.Errorf("%w: booking %s is not an application", walk.ErrInvalidState, applicationID)
	}

	if err := s.bookings.UpdateStatus(ctx, applicationID, model.BookingWalkerApplied, model.BookingConfirmed); err != nil {
		return nil, err
	}
	app.Status = model.BookingConfirmed

	siblings, err := s.bookings.FindApplications(ctx, app.OpenRequestID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.ID == applicationID || sib.Status != model.BookingWalkerApplied {
			continue
		}
		if err := s.bookings.UpdateStatus(ctx, sib.ID, model.BookingWalkerApplied, model.BookingRejected); err != nil {
			log.Printf("booking: failed to reject sibling application %s: %v", sib.ID, err)
		}
	}

	// Close the parent shell; the accepted application is now the live
	// booking.
	if app.OpenRequestID != "" {
		if err := s.bookings.UpdateStatus(ctx, app.OpenRequestID, model.BookingPending, model.BookingCancelled); err != nil {
			log.Printf("booking: failed to close open request %s: %v", app.OpenRequestID, err)
		}
	}
	return app, nil
}

// RejectApplication declines one application on behalf of the owner.
func (s *Service) RejectApplication(ctx context.Context, applicationID, ownerID string) (*model.Booking, error) {
	app, err := s.bookings.Find(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the request owner rejects applications", walk.ErrForbidden)
	}
	if app.Status != model.BookingWalkerApplied {
		return nil, fmt.Errorf("%w: booking %s is not a pending application", walk.ErrInvalidState, applicationID)
	}
	if err := s.bookings.UpdateStatus(ctx, applicationID, model.BookingWalkerApplied, model.BookingRejected); err != nil {
		return nil, err
	}
	app.Status = model.BookingRejected
	return app, nil
}

// Cancel terminates a booking from any non-terminal state.  Either
// participant may cancel; terminal bookings reject cancellation with
// ErrInvalidState.
func (s *Service) Cancel(ctx context.Context, bookingID, requesterID string) (*model.Booking, error) {
	b, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(requesterID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", walk.ErrForbidden, requesterID, bookingID)
	}
	if err := walk.CheckTransition(b.Status, model.BookingCancelled); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(ctx, bookingID, b.Status, model.BookingCancelled); err != nil {
		return nil, err
	}
	b.Status = model.BookingCancelled
	return b, nil
}

// ChangeProposal is the nullable field set of a change request; nil fields
// mean "unchanged".
type ChangeProposal struct {
	NewDate             *time.Time `json:"new_date"`
	NewDurationMinutes  *int       `json:"new_duration_minutes"`
	NewPrice            *float64   `json:"new_price"`
	NewPickupLocation   *string    `json:"new_pickup_location"`
	NewPickupAddress    *string    `json:"new_pickup_address"`
	NewDropoffLocation  *string    `json:"new_dropoff_location"`
	NewDropoffAddress   *string    `json:"new_dropoff_address"`
	NewNotes            *string    `json:"new_notes"`
	NewInsuranceCovered *bool      `json:"new_insurance_covered"`
	Reason              string     `json:"reason"`
}

func (p *ChangeProposal) empty() bool {
	return p.NewDate == nil && p.NewDurationMinutes == nil && p.NewPrice == nil &&
		p.NewPickupLocation == nil && p.NewPickupAddress == nil &&
		p.NewDropoffLocation == nil && p.NewDropoffAddress == nil &&
		p.NewNotes == nil && p.NewInsuranceCovered == nil
}

// RequestChange files a change request against a booking that is not yet
// terminal.  Either participant may file; the other must respond.
func (s *Service) RequestChange(ctx context.Context, bookingID, requesterID string, proposal ChangeProposal) (*model.BookingChangeRequest, error) {
	b, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(requesterID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", walk.ErrForbidden, requesterID, bookingID)
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot change a %s booking", walk.ErrInvalidState, b.Status)
	}
	if proposal.empty() {
		return nil, fmt.Errorf("%w: change request proposes no fields", walk.ErrInvalidRequest)
	}

	req := &model.BookingChangeRequest{
		ID:                  uuid.NewString(),
		BookingID:           bookingID,
		RequestedByUserID:   requesterID,
		NewDate:             proposal.NewDate,
		NewDurationMinutes:  proposal.NewDurationMinutes,
		NewPrice:            proposal.NewPrice,
		NewPickupLocation:   proposal.NewPickupLocation,
		NewPickupAddress:    proposal.NewPickupAddress,
		NewDropoffLocation:  proposal.NewDropoffLocation,
		NewDropoffAddress:   proposal.NewDropoffAddress,
		NewNotes:            proposal.NewNotes,
		NewInsuranceCovered: proposal.NewInsuranceCovered,
		ChangeReason:        proposal.Reason,
		Status:              model.ChangePending,
		CreatedAt:           s.now().UTC(),
	}
	if err := s.changes.Create(ctx, req); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if other := b.Counterpart(requesterID); other != "" {
			if user, err := s.users.Find(ctx, other); err == nil && user.Contact() != "" {
				if err := s.notifier.Send(ctx, user.Contact(), walk.NotifyChangeRequest, map[string]any{
					"booking_id": bookingID,
					"reason":     proposal.Reason,
				}); err != nil {
					log.Printf("booking: change request notification failed - booking %s: %v", bookingID, err)
				}
			}
		}
	}
	return req, nil
}

// RespondToChange resolves a pending change request.  Only the participant
// who did not file it may respond.  Approval applies the proposed fields to
// the booking atomically before the request is marked APPROVED.
func (s *Service) RespondToChange(ctx context.Context, requestID, responderID string, approve bool, note string) (*model.BookingChangeRequest, error) {
	req, err := s.changes.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.ChangePending {
		return nil, fmt.Errorf("%w: change request already %s", walk.ErrInvalidState, req.Status)
	}

	b, err := s.bookings.Find(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(responderID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", walk.ErrForbidden, responderID, req.BookingID)
	}
	if responderID == req.RequestedByUserID {
		return nil, fmt.Errorf("%w: the requester cannot resolve their own change request", walk.ErrForbidden)
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot change a %s booking", walk.ErrInvalidState, b.Status)
	}

	if approve {
		req.ApplyTo(b)
		if err := s.bookings.Save(ctx, b); err != nil {
			return nil, err
		}
		req.Status = model.ChangeApproved
	} else {
		req.Status = model.ChangeRejected
	}
	respondedAt := s.now().UTC()
	req.RespondedAt = &respondedAt
	req.ResponderNote = note
	if err := s.changes.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ChangeRequests lists the change requests filed against a booking.
func (s *Service) ChangeRequests(ctx context.Context, bookingID, requesterID string) ([]*model.BookingChangeRequest, error) {
	b, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(requesterID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", walk.ErrForbidden, requesterID, bookingID)
	}
	return s.changes.ListByBooking(ctx, bookingID)
}

// Get returns a booking to one of its participants.  For open requests the
// assigned walker slot is empty, so only the owner passes the check until a
// walker is confirmed.
func (s *Service) Get(ctx context.Context, bookingID, requesterID string) (*model.Booking, error) {
	b, err := s.bookings.Find(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(requesterID) {
		return nil, fmt.Errorf("%w: user %s is not a participant of booking %s", walk.ErrForbidden, requesterID, bookingID)
	}
	return b, nil
}

// Applications lists the walker applications attached to an open request.
// Only the request owner may see them.
func (s *Service) Applications(ctx context.Context, openRequestID, ownerID string) ([]*model.Booking, error) {
	parent, err := s.bookings.Find(ctx, openRequestID)
	if err != nil {
		return nil, err
	}
	if parent.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the request owner lists applications", walk.ErrForbidden)
	}
	return s.bookings.FindApplications(ctx, openRequestID)
}
