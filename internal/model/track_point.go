package model

import "time"

// TrackType tags a GPS sample with the walker action it was recorded under.
type TrackType string

const (
	TrackStart   TrackType = "START"
	TrackWalking TrackType = "WALKING"
	TrackPause   TrackType = "PAUSE"
	TrackResume  TrackType = "RESUME"
	TrackEnd     TrackType = "END"
)

// TrackPoint is one GPS sample in a booking's walk track.  Points are
// immutable once written and owned exclusively by the booking they reference.
// Timestamps are expected non-decreasing per booking but the store sorts on
// read, so out-of-order arrival is tolerated.
//
// Speed, Accuracy and Altitude are device-reported and optional; nil means
// the device did not supply the value.
type TrackPoint struct {
	ID        uint64    // walk_tracks.id
	BookingID string    // walk_tracks.booking_id
	Latitude  float64   // walk_tracks.latitude, decimal degrees
	Longitude float64   // walk_tracks.longitude, decimal degrees
	Timestamp time.Time // walk_tracks.timestamp (UTC)
	Accuracy  *float64  // walk_tracks.accuracy, meters
	Speed     *float64  // walk_tracks.speed, km/h as reported by the device
	Altitude  *float64  // walk_tracks.altitude, meters
	TrackType TrackType // walk_tracks.track_type
}

// HasCoordinates reports whether the sample carries usable coordinates.
// Latitude must be in [-90, 90] and longitude in [-180, 180].
func (p *TrackPoint) HasCoordinates() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!(p.Latitude == 0 && p.Longitude == 0)
}
