package walk

import (
	"context"
	"fmt"
	"time"

	"github.com/petmily/walk-service/internal/model"
)

// BookingStore is the persistence contract for bookings.  The repository
// package provides the MySQL implementation; tests use in-memory fakes.
type BookingStore interface {
	// Find returns the booking or ErrNotFound.
	Find(ctx context.Context, id string) (*model.Booking, error)
	// FindByStatus returns every booking currently in the given status.
	FindByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error)
	// Save persists mutable booking fields (notes, schedule, price,
	// locations).  Status changes go through UpdateStatus.
	Save(ctx context.Context, b *model.Booking) error
	// UpdateStatus moves the booking from an expected current status to a
	// new one.  It acts as a compare-and-set: when the stored status no
	// longer matches from, it returns ErrInvalidState and writes nothing.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error
}

// TrackStore is the append-only ordered log of GPS samples per booking.
// Ordering by timestamp is caller-expected, but every read sorts ascending
// by timestamp so out-of-order arrival is tolerated.
type TrackStore interface {
	// Append writes one sample.  O(1) amortized; never rejects a sample
	// for plausibility reasons.
	Append(ctx context.Context, p *model.TrackPoint) error
	// Latest returns the most recent sample or ErrNotFound.
	Latest(ctx context.Context, bookingID string) (*model.TrackPoint, error)
	// Since returns samples strictly after the timestamp, ascending.
	Since(ctx context.Context, bookingID string, after time.Time) ([]model.TrackPoint, error)
	// Recent returns up to limit trailing samples, ascending.
	Recent(ctx context.Context, bookingID string, limit int) ([]model.TrackPoint, error)
	// All returns the full ordered path.
	All(ctx context.Context, bookingID string) ([]model.TrackPoint, error)
}

// DetailStore persists the one-to-one walk execution record of a booking.
type DetailStore interface {
	// FindByBooking returns the detail or ErrNotFound.
	FindByBooking(ctx context.Context, bookingID string) (*model.WalkDetail, error)
	// Save inserts or updates the detail keyed by booking ID.
	Save(ctx context.Context, d *model.WalkDetail) error
}

// UserStore resolves participant contact information.  Account management
// is an external collaborator; this service only reads.
type UserStore interface {
	Find(ctx context.Context, id string) (*model.User, error)
}

// Broadcaster fans a location or status update out to the live subscribers
// of a booking's channel.  Delivery is best effort and at most once per
// call: implementations log failures and must never block or surface errors
// to the ingest path.  Reconnecting subscribers catch up through
// TrackStore.Since, not broadcast history.
type Broadcaster interface {
	PublishLocation(bookingID string, point model.TrackPoint)
	PublishStatus(bookingID string, status string, payload any)
}

// NotificationKind labels why a notification is being sent.
type NotificationKind string

const (
	NotifyWalkStarted        NotificationKind = "WALK_STARTED"
	NotifyWalkCompleted      NotificationKind = "WALK_COMPLETED"
	NotifyWalkProgress       NotificationKind = "WALK_PROGRESS"
	NotifyStationaryAlert    NotificationKind = "STATIONARY_ALERT"
	NotifyEmergency          NotificationKind = "EMERGENCY"
	NotifyTerminationRequest NotificationKind = "TERMINATION_REQUEST"
	NotifyChangeRequest      NotificationKind = "CHANGE_REQUEST"
)

// Notifier is the outbound notification sink (push, SMS or log).  Errors
// are returned so callers can log them, but business operations never fail
// or roll back because of a sink failure.
type Notifier interface {
	Send(ctx context.Context, contact string, kind NotificationKind, payload map[string]any) error
}

// AddressInfo is the result of a reverse-geocode lookup.
type AddressInfo struct {
	Address string `json:"address"`
	Region  string `json:"region,omitempty"`
}

// Geocoder resolves coordinates to a human-readable address.  Used only to
// enrich status snapshots; lookup failure degrades the snapshot, it never
// fails the request.
type Geocoder func(ctx context.Context, lat, lon float64) (AddressInfo, error)

// NoopGeocoder is the default lookup when no geocoding provider is
// configured.  It renders the raw coordinates as the address text so
// snapshot consumers always have something to display.
func NoopGeocoder(_ context.Context, lat, lon float64) (AddressInfo, error) {
	return AddressInfo{Address: fmt.Sprintf("%.5f, %.5f", lat, lon)}, nil
}
