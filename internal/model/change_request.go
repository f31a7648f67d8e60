package model

import "time"

// ChangeRequestStatus is the resolution state of a booking change request.
type ChangeRequestStatus string

const (
	ChangePending  ChangeRequestStatus = "PENDING"
	ChangeApproved ChangeRequestStatus = "APPROVED"
	ChangeRejected ChangeRequestStatus = "REJECTED"
)

// BookingChangeRequest proposes a modification to an existing booking.
// All New* fields are pointers; nil means "leave unchanged".  A request is
// created by either participant while the booking is not terminal and must
// be resolved by the other participant.  Approval applies the proposed
// fields to the booking atomically.
type BookingChangeRequest struct {
	ID                  string              // booking_change_requests.id
	BookingID           string              // booking_change_requests.booking_id
	RequestedByUserID   string              // booking_change_requests.requested_by_user_id
	NewDate             *time.Time          // booking_change_requests.new_date
	NewDurationMinutes  *int                // booking_change_requests.new_duration_minutes
	NewPrice            *float64            // booking_change_requests.new_price
	NewPickupLocation   *string             // booking_change_requests.new_pickup_location
	NewPickupAddress    *string             // booking_change_requests.new_pickup_address
	NewDropoffLocation  *string             // booking_change_requests.new_dropoff_location
	NewDropoffAddress   *string             // booking_change_requests.new_dropoff_address
	NewNotes            *string             // booking_change_requests.new_notes
	NewInsuranceCovered *bool               // booking_change_requests.new_insurance_covered
	ChangeReason        string              // booking_change_requests.change_reason
	Status              ChangeRequestStatus // booking_change_requests.status
	ResponderNote       string              // booking_change_requests.responder_note
	RespondedAt         *time.Time          // booking_change_requests.responded_at
	CreatedAt           time.Time           // booking_change_requests.created_at
}

// ApplyTo copies every proposed field that is set onto b.  It does not
// persist anything; callers save the booking afterwards.
func (r *BookingChangeRequest) ApplyTo(b *Booking) {
	if r.NewDate != nil {
		b.Date = *r.NewDate
	}
	if r.NewDurationMinutes != nil {
		b.DurationMinutes = *r.NewDurationMinutes
	}
	if r.NewPrice != nil {
		b.TotalPrice = *r.NewPrice
	}
	if r.NewPickupLocation != nil {
		b.PickupLocation = *r.NewPickupLocation
	}
	if r.NewPickupAddress != nil {
		b.PickupAddress = *r.NewPickupAddress
	}
	if r.NewDropoffLocation != nil {
		b.DropoffLocation = *r.NewDropoffLocation
	}
	if r.NewDropoffAddress != nil {
		b.DropoffAddress = *r.NewDropoffAddress
	}
	if r.NewNotes != nil {
		b.Notes = *r.NewNotes
	}
	if r.NewInsuranceCovered != nil {
		b.InsuranceCovered = *r.NewInsuranceCovered
	}
}
