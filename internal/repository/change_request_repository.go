package repository

import (
	"context"
	"database/sql"

	"github.com/petmily/walk-service/internal/model"
	"github.com/petmily/walk-service/internal/walk"
)

const changeColumns = `id, booking_id, requested_by_user_id, new_date,
	new_duration_minutes, new_price, new_pickup_location, new_pickup_address,
	new_dropoff_location, new_dropoff_address, new_notes, new_insurance_covered,
	change_reason, status, responder_note, responded_at, created_at`

// ChangeRequestRepo persists booking change requests.  All New* columns
// are nullable; NULL means the field is left unchanged on approval.  It
// satisfies booking.ChangeStore.
type ChangeRequestRepo struct {
	db *sql.DB
}

// NewChangeRequestRepo returns a ChangeRequestRepo bound to the database.
func NewChangeRequestRepo(db *sql.DB) *ChangeRequestRepo { return &ChangeRequestRepo{db: db} }

// Create inserts a new change request.
func (r *ChangeRequestRepo) Create(ctx context.Context, req *model.BookingChangeRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO booking_change_requests
		 (id, booking_id, requested_by_user_id, new_date, new_duration_minutes,
		  new_price, new_pickup_location, new_pickup_address, new_dropoff_location,
		  new_dropoff_address, new_notes, new_insurance_covered, change_reason,
		  status, responder_note, responded_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`,
		req.ID, req.BookingID, req.RequestedByUserID,
		nullTime(req.NewDate), nullInt(req.NewDurationMinutes), nullFloat(req.NewPrice),
		nullString(req.NewPickupLocation), nullString(req.NewPickupAddress),
		nullString(req.NewDropoffLocation), nullString(req.NewDropoffAddress),
		nullString(req.NewNotes), nullBool(req.NewInsuranceCovered),
		req.ChangeReason, string(req.Status), req.ResponderNote, nullTime(req.RespondedAt),
	)
	return err
}

// Find returns the change request or walk.ErrNotFound.
func (r *ChangeRequestRepo) Find(ctx context.Context, id string) (*model.BookingChangeRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+changeColumns+` FROM booking_change_requests WHERE id = ?`, id)
	return scanChangeRequest(row)
}

// ListByBooking returns the change requests filed against a booking,
// newest first.
func (r *ChangeRequestRepo) ListByBooking(ctx context.Context, bookingID string) ([]*model.BookingChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM booking_change_requests
		 WHERE booking_id = ? ORDER BY created_at DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.BookingChangeRequest
	for rows.Next() {
		req, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the resolution fields of a change request.
func (r *ChangeRequestRepo) Update(ctx context.Context, req *model.BookingChangeRequest) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE booking_change_requests
		 SET status = ?, responder_note = ?, responded_at = ?
		 WHERE id = ?`,
		string(req.Status), req.ResponderNote, nullTime(req.RespondedAt), req.ID)
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

func scanChangeRequest(row rowScanner) (*model.BookingChangeRequest, error) {
	var (
		req           model.BookingChangeRequest
		status        string
		newDate       sql.NullTime
		newDuration   sql.NullInt64
		newPrice      sql.NullFloat64
		newPickupLoc  sql.NullString
		newPickupAddr sql.NullString
		newDropLoc    sql.NullString
		newDropAddr   sql.NullString
		newNotes      sql.NullString
		newInsurance  sql.NullBool
		responderNote sql.NullString
		respondedAt   sql.NullTime
	)
	err := row.Scan(&req.ID, &req.BookingID, &req.RequestedByUserID, &newDate,
		&newDuration, &newPrice, &newPickupLoc, &newPickupAddr,
		&newDropLoc, &newDropAddr, &newNotes, &newInsurance,
		&req.ChangeReason, &status, &responderNote, &respondedAt, &req.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	req.Status = model.ChangeRequestStatus(status)
	req.ResponderNote = responderNote.String
	if newDate.Valid {
		t := newDate.Time
		req.NewDate = &t
	}
	if newDuration.Valid {
		n := int(newDuration.Int64)
		req.NewDurationMinutes = &n
	}
	req.NewPrice = floatPtr(newPrice)
	req.NewPickupLocation = stringPtr(newPickupLoc)
	req.NewPickupAddress = stringPtr(newPickupAddr)
	req.NewDropoffLocation = stringPtr(newDropLoc)
	req.NewDropoffAddress = stringPtr(newDropAddr)
	req.NewNotes = stringPtr(newNotes)
	if newInsurance.Valid {
		b := newInsurance.Bool
		req.NewInsuranceCovered = &b
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		req.RespondedAt = &t
	}
	return &req, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
