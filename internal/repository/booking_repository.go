package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/walk"
)

const bookingColumns = `id, owner_id, walker_id, pet_id, open_request_id, date,
	duration_minutes, status, booking_method, total_price, notes,
	pickup_location, pickup_address, dropoff_location, dropoff_address,
	insurance_covered, created_at, updated_at`

// BookingRepo provides data access to the walk_bookings table.  All
// timestamps are stored and compared in UTC.  It satisfies both
// walk.BookingStore and booking.Store.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking row.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO walk_bookings
		 (id, owner_id, walker_id, pet_id, open_request_id, date, duration_minutes,
		  status, booking_method, total_price, notes, pickup_location, pickup_address,
		  dropoff_location, dropoff_address, insurance_covered, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
		b.ID, b.OwnerID, b.WalkerID, b.PetID, b.OpenRequestID, b.Date.UTC(),
		b.DurationMinutes, string(b.Status), string(b.Method), b.TotalPrice, b.Notes,
		b.PickupLocation, b.PickupAddress, b.DropoffLocation, b.DropoffAddress,
		b.InsuranceCovered,
	)
	return err
}

// Find returns the booking or walk.ErrNotFound.
func (r *BookingRepo) Find(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM walk_bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// FindByStatus returns every booking currently in the given status,
// oldest first.  The scheduler uses it to snapshot in-progress walks.
func (r *BookingRepo) FindByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM walk_bookings WHERE status = ? ORDER BY created_at ASC`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// FindApplications returns the application shells created for an open
// request, regardless of their current status.
func (r *BookingRepo) FindApplications(ctx context.Context, openRequestID string) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM walk_bookings WHERE open_request_id = ? ORDER BY created_at ASC`,
		openRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// Save persists the mutable booking fields.  Status is deliberately not
// written here; status changes go through UpdateStatus so the transition
// guard cannot be bypassed.
func (r *BookingRepo) Save(ctx context.Context, b *model.Booking) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE walk_bookings SET date = ?, duration_minutes = ?, total_price = ?,
		 notes = ?, pickup_location = ?, pickup_address = ?, dropoff_location = ?,
		 dropoff_address = ?, insurance_covered = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ?`,
		b.Date.UTC(), b.DurationMinutes, b.TotalPrice, b.Notes,
		b.PickupLocation, b.PickupAddress, b.DropoffLocation, b.DropoffAddress,
		b.InsuranceCovered, b.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return walk.ErrNotFound
	}
	return nil
}

// UpdateStatus moves the booking from an expected status to a new one in a
// single conditional UPDATE, which makes it a compare-and-set: when the
// stored status no longer matches, zero rows match and the caller gets
// walk.ErrInvalidState.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE walk_bookings SET status = ?, updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing booking from a lost status race.
		if _, ferr := r.Find(ctx, id); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%w: booking %s is no longer %s", walk.ErrInvalidState, id, from)
	}
	return nil
}

// rowScanner lets scanBooking work for both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b                model.Booking
		status, method   string
		walkerID         sql.NullString
		openRequestID    sql.NullString
		notes            sql.NullString
		pickupLocation   sql.NullString
		pickupAddress    sql.NullString
		dropoffLocation  sql.NullString
		dropoffAddress   sql.NullString
	)
	err := row.Scan(&b.ID, &b.OwnerID, &walkerID, &b.PetID, &openRequestID, &b.Date,
		&b.DurationMinutes, &status, &method, &b.TotalPrice, &notes,
		&pickupLocation, &pickupAddress, &dropoffLocation, &dropoffAddress,
		&b.InsuranceCovered, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	b.Status = model.BookingStatus(status)
	b.Method = model.BookingMethod(method)
	b.WalkerID = walkerID.String
	b.OpenRequestID = openRequestID.String
	b.Notes = notes.String
	b.PickupLocation = pickupLocation.String
	b.PickupAddress = pickupAddress.String
	b.DropoffLocation = dropoffLocation.String
	b.DropoffAddress = dropoffAddress.String
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]*model.Booking, error) {
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
