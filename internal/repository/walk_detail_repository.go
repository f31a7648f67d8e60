package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/petmily/walk-service/internal/model"
)

// WalkDetailRepo persists the one-to-one execution record of a booking.
// Save is an upsert keyed by booking ID because the detail is created
// lazily on the first start call.  It satisfies walk.DetailStore.
type WalkDetailRepo struct {
	db *sql.DB
}

// NewWalkDetailRepo returns a WalkDetailRepo bound to the provided database.
func NewWalkDetailRepo(db *sql.DB) *WalkDetailRepo { return &WalkDetailRepo{db: db} }

// FindByBooking returns the detail or walk.ErrNotFound.
func (r *WalkDetailRepo) FindByBooking(ctx context.Context, bookingID string) (*model.WalkDetail, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT booking_id, walk_status, actual_start_time, actual_end_time,
		        total_distance_km, weather, temperature_c, special_incidents,
		        start_photo_url, middle_photo_url, end_photo_url, updated_at
		 FROM walk_details WHERE booking_id = ?`, bookingID)

	var (
		d                model.WalkDetail
		status           string
		startTime        sql.NullTime
		endTime          sql.NullTime
		weather          sql.NullString
		temperature      sql.NullFloat64
		incidents        sql.NullString
		startURL, midURL sql.NullString
		endURL           sql.NullString
	)
	err := row.Scan(&d.BookingID, &status, &startTime, &endTime,
		&d.TotalDistanceKM, &weather, &temperature, &incidents,
		&startURL, &midURL, &endURL, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	d.WalkStatus = model.WalkStatus(status)
	if startTime.Valid {
		t := startTime.Time
		d.ActualStartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		d.ActualEndTime = &t
	}
	d.Weather = weather.String
	d.TemperatureC = floatPtr(temperature)
	d.SpecialIncidents = incidents.String
	d.StartPhotoURL = startURL.String
	d.MiddlePhotoURL = midURL.String
	d.EndPhotoURL = endURL.String
	return &d, nil
}

// Save inserts or updates the detail keyed by booking ID.
func (r *WalkDetailRepo) Save(ctx context.Context, d *model.WalkDetail) error {
	status := d.WalkStatus
	if status == "" {
		status = model.WalkNotStarted
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO walk_details
		 (booking_id, walk_status, actual_start_time, actual_end_time,
		  total_distance_km, weather, temperature_c, special_incidents,
		  start_photo_url, middle_photo_url, end_photo_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE
		   walk_status = VALUES(walk_status),
		   actual_start_time = VALUES(actual_start_time),
		   actual_end_time = VALUES(actual_end_time),
		   total_distance_km = VALUES(total_distance_km),
		   weather = VALUES(weather),
		   temperature_c = VALUES(temperature_c),
		   special_incidents = VALUES(special_incidents),
		   start_photo_url = VALUES(start_photo_url),
		   middle_photo_url = VALUES(middle_photo_url),
		   end_photo_url = VALUES(end_photo_url),
		   updated_at = UTC_TIMESTAMP()`,
		d.BookingID, string(status), nullTime(d.ActualStartTime), nullTime(d.ActualEndTime),
		d.TotalDistanceKM, d.Weather, nullFloat(d.TemperatureC), d.SpecialIncidents,
		d.StartPhotoURL, d.MiddlePhotoURL, d.EndPhotoURL,
	)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
