package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/petmily/walk-service/internal/model"
)

const trackColumns = `id, booking_id, latitude, longitude, timestamp, accuracy, speed, altitude, track_type`

// TrackRepo is the append-only log of GPS samples per booking.  Writes are
// plain inserts; every read orders by timestamp ascending, so out-of-order
// arrival never corrupts a path.  It satisfies walk.TrackStore.
type TrackRepo struct {
	db *sql.DB
}

// NewTrackRepo returns a TrackRepo bound to the provided database.
func NewTrackRepo(db *sql.DB) *TrackRepo { return &TrackRepo{db: db} }

// Append writes one sample and backfills its generated ID.
func (r *TrackRepo) Append(ctx context.Context, p *model.TrackPoint) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO walk_tracks
		 (booking_id, latitude, longitude, timestamp, accuracy, speed, altitude, track_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.Latitude, p.Longitude, p.Timestamp.UTC(),
		nullFloat(p.Accuracy), nullFloat(p.Speed), nullFloat(p.Altitude),
		string(p.TrackType),
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = uint64(id)
	}
	return nil
}

// Latest returns the most recent sample or walk.ErrNotFound.
func (r *TrackRepo) Latest(ctx context.Context, bookingID string) (*model.TrackPoint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM walk_tracks
		 WHERE booking_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		bookingID)
	return scanTrack(row)
}

// Since returns samples strictly after the timestamp, ascending.
func (r *TrackRepo) Since(ctx context.Context, bookingID string, after time.Time) ([]model.TrackPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM walk_tracks
		 WHERE booking_id = ? AND timestamp > ? ORDER BY timestamp ASC, id ASC`,
		bookingID, after.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// Recent returns up to limit trailing samples, ascending.
func (r *TrackRepo) Recent(ctx context.Context, bookingID string, limit int) ([]model.TrackPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM
		   (SELECT `+trackColumns+` FROM walk_tracks
		    WHERE booking_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?) tail
		 ORDER BY timestamp ASC, id ASC`,
		bookingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// All returns the full ordered path.
func (r *TrackRepo) All(ctx context.Context, bookingID string) ([]model.TrackPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM walk_tracks
		 WHERE booking_id = ? ORDER BY timestamp ASC, id ASC`,
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

func scanTrack(row rowScanner) (*model.TrackPoint, error) {
	var (
		p                        model.TrackPoint
		accuracy, speed, altitude sql.NullFloat64
		trackType                string
	)
	err := row.Scan(&p.ID, &p.BookingID, &p.Latitude, &p.Longitude, &p.Timestamp,
		&accuracy, &speed, &altitude, &trackType)
	if err != nil {
		return nil, notFound(err)
	}
	p.TrackType = model.TrackType(trackType)
	p.Accuracy = floatPtr(accuracy)
	p.Speed = floatPtr(speed)
	p.Altitude = floatPtr(altitude)
	return &p, nil
}

func collectTracks(rows *sql.Rows) ([]model.TrackPoint, error) {
	var out []model.TrackPoint
	for rows.Next() {
		p, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
