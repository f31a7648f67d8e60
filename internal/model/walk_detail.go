package model

import "time"

// WalkStatus is the execution sub-status of a walk, tracked separately from
// the booking lifecycle.  A booking can be IN_PROGRESS while its walk detail
// records PAUSED, for example.
type WalkStatus string

const (
	WalkNotStarted  WalkStatus = "NOT_STARTED"
	WalkInProgress  WalkStatus = "IN_PROGRESS"
	WalkPaused      WalkStatus = "PAUSED"
	WalkCompleted   WalkStatus = "COMPLETED"
	WalkInterrupted WalkStatus = "INTERRUPTED"
)

// WalkDetail is the one-to-one extension of a booking that holds execution
// facts once a walk actually happens.  It is created lazily on the first
// start call and finalized on completion.  TotalDistanceKM is written once,
// computed from the full recorded track.
type WalkDetail struct {
	BookingID        string     // walk_details.booking_id (primary key)
	WalkStatus       WalkStatus // walk_details.walk_status
	ActualStartTime  *time.Time // walk_details.actual_start_time (nil until started)
	ActualEndTime    *time.Time // walk_details.actual_end_time (nil until completed)
	TotalDistanceKM  float64    // walk_details.total_distance_km
	Weather          string     // walk_details.weather (optional)
	TemperatureC     *float64   // walk_details.temperature_c (optional)
	SpecialIncidents string     // walk_details.special_incidents
	StartPhotoURL    string     // walk_details.start_photo_url
	MiddlePhotoURL   string     // walk_details.middle_photo_url
	EndPhotoURL      string     // walk_details.end_photo_url
	UpdatedAt        time.Time  // walk_details.updated_at
}
