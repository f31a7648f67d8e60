package model

import "time"

// BookingStatus enumerates the lifecycle states of a walk booking.
// Transitions between states are enforced by the walk package's state
// machine; the model layer only stores the current value.
type BookingStatus string

const (
	BookingPending       BookingStatus = "PENDING"        // awaiting acceptance (direct) or applications (open)
	BookingConfirmed     BookingStatus = "CONFIRMED"      // both sides agreed, walk not yet started
	BookingWalkerApplied BookingStatus = "WALKER_APPLIED" // a walker applied to an open request
	BookingInProgress    BookingStatus = "IN_PROGRESS"    // walk is underway
	BookingCompleted     BookingStatus = "COMPLETED"      // walk finished normally
	BookingCancelled     BookingStatus = "CANCELLED"      // terminated by either participant
	BookingRejected      BookingStatus = "REJECTED"       // declined by walker or losing open-request application
)

// Terminal reports whether s permits no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingRejected:
		return true
	}
	return false
}

// BookingMethod distinguishes how the booking was formed: the owner picked a
// specific walker, or posted an open request that walkers apply to.
type BookingMethod string

const (
	MethodWalkerSelection BookingMethod = "WALKER_SELECTION"
	MethodOpenRequest     BookingMethod = "OPEN_REQUEST"
)

// Booking records one walk engagement between a pet owner and a walker.
// WalkerID stays empty on an open request until a walker is confirmed, and
// OpenRequestID links an application shell back to its parent request.
type Booking struct {
	ID              string        // walk_bookings.id
	OwnerID         string        // walk_bookings.owner_id
	WalkerID        string        // walk_bookings.walker_id (empty until assigned)
	PetID           string        // walk_bookings.pet_id
	OpenRequestID   string        // walk_bookings.open_request_id (open-request applications only)
	Date            time.Time     // walk_bookings.date
	DurationMinutes int           // walk_bookings.duration_minutes
	Status          BookingStatus // walk_bookings.status
	Method          BookingMethod // walk_bookings.booking_method
	TotalPrice      float64       // walk_bookings.total_price
	Notes           string        // walk_bookings.notes
	PickupLocation  string        // walk_bookings.pickup_location
	PickupAddress   string        // walk_bookings.pickup_address
	DropoffLocation string        // walk_bookings.dropoff_location
	DropoffAddress  string        // walk_bookings.dropoff_address
	InsuranceCovered bool         // walk_bookings.insurance_covered
	CreatedAt       time.Time     // walk_bookings.created_at
	UpdatedAt       time.Time     // walk_bookings.updated_at
}

// IsParticipant reports whether userID is the owner or the assigned walker.
func (b *Booking) IsParticipant(userID string) bool {
	return userID != "" && (userID == b.OwnerID || userID == b.WalkerID)
}

// Counterpart returns the other participant's user ID, or empty when userID
// is not a participant.
func (b *Booking) Counterpart(userID string) string {
	switch userID {
	case b.OwnerID:
		return b.WalkerID
	case b.WalkerID:
		return b.OwnerID
	}
	return ""
}
