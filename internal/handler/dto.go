package handler

import (
	"time"

	"github.com/petmily/walk-service/internal/model"
)

// dto.go maps domain structs to their JSON representations.  The model
// package mirrors table columns and carries no JSON tags, so the wire shape
// is decided here and can evolve independently of storage.

type bookingJSON struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	WalkerID         string     `json:"walker_id,omitempty"`
	PetID            string     `json:"pet_id"`
	OpenRequestID    string     `json:"open_request_id,omitempty"`
	Date             time.Time  `json:"date"`
	DurationMinutes  int        `json:"duration_minutes"`
	Status           string     `json:"status"`
	Method           string     `json:"booking_method"`
	TotalPrice       float64    `json:"total_price"`
	Notes            string     `json:"notes,omitempty"`
	PickupLocation   string     `json:"pickup_location,omitempty"`
	PickupAddress    string     `json:"pickup_address,omitempty"`
	DropoffLocation  string     `json:"dropoff_location,omitempty"`
	DropoffAddress   string     `json:"dropoff_address,omitempty"`
	InsuranceCovered bool       `json:"insurance_covered"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toBookingJSON(b *model.Booking) bookingJSON {
	return bookingJSON{
		ID:               b.ID,
		OwnerID:          b.OwnerID,
		WalkerID:         b.WalkerID,
		PetID:            b.PetID,
		OpenRequestID:    b.OpenRequestID,
		Date:             b.Date,
		DurationMinutes:  b.DurationMinutes,
		Status:           string(b.Status),
		Method:           string(b.Method),
		TotalPrice:       b.TotalPrice,
		Notes:            b.Notes,
		PickupLocation:   b.PickupLocation,
		PickupAddress:    b.PickupAddress,
		DropoffLocation:  b.DropoffLocation,
		DropoffAddress:   b.DropoffAddress,
		InsuranceCovered: b.InsuranceCovered,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toBookingListJSON(bs []*model.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingJSON(b))
	}
	return out
}

type walkDetailJSON struct {
	BookingID        string     `json:"booking_id"`
	Status           string     `json:"walk_status"`
	ActualStartTime  *time.Time `json:"actual_start_time,omitempty"`
	ActualEndTime    *time.Time `json:"actual_end_time,omitempty"`
	TotalDistanceKM  float64    `json:"total_distance_km"`
	SpecialIncidents string     `json:"special_incidents,omitempty"`
	StartPhotoURL    string     `json:"start_photo_url,omitempty"`
	MiddlePhotoURL   string     `json:"middle_photo_url,omitempty"`
	EndPhotoURL      string     `json:"end_photo_url,omitempty"`
	Weather          string     `json:"weather,omitempty"`
	TemperatureC     *float64   `json:"temperature_c,omitempty"`
}

func toWalkDetailJSON(d *model.WalkDetail) walkDetailJSON {
	return walkDetailJSON{
		BookingID:        d.BookingID,
		Status:           string(d.WalkStatus),
		ActualStartTime:  d.ActualStartTime,
		ActualEndTime:    d.ActualEndTime,
		TotalDistanceKM:  d.TotalDistanceKM,
		SpecialIncidents: d.SpecialIncidents,
		StartPhotoURL:    d.StartPhotoURL,
		MiddlePhotoURL:   d.MiddlePhotoURL,
		EndPhotoURL:      d.EndPhotoURL,
		Weather:          d.Weather,
		TemperatureC:     d.TemperatureC,
	}
}

type trackPointJSON struct {
	ID        uint64    `json:"id"`
	BookingID string    `json:"booking_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	TrackType string    `json:"track_type"`
}

func toTrackPointJSON(p *model.TrackPoint) trackPointJSON {
	return trackPointJSON{
		ID:        p.ID,
		BookingID: p.BookingID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp,
		Accuracy:  p.Accuracy,
		Speed:     p.Speed,
		Altitude:  p.Altitude,
		TrackType: string(p.TrackType),
	}
}

func toTrackListJSON(ps []model.TrackPoint) []trackPointJSON {
	out := make([]trackPointJSON, 0, len(ps))
	for i := range ps {
		out = append(out, toTrackPointJSON(&ps[i]))
	}
	return out
}

type changeRequestJSON struct {
	ID                  string     `json:"id"`
	BookingID           string     `json:"booking_id"`
	RequesterID         string     `json:"requester_id"`
	Status              string     `json:"status"`
	Reason              string     `json:"reason,omitempty"`
	ResponseNote        string     `json:"response_note,omitempty"`
	NewDate             *time.Time `json:"new_date,omitempty"`
	NewDurationMinutes  *int       `json:"new_duration_minutes,omitempty"`
	NewPrice            *float64   `json:"new_price,omitempty"`
	NewPickupLocation   *string    `json:"new_pickup_location,omitempty"`
	NewPickupAddress    *string    `json:"new_pickup_address,omitempty"`
	NewDropoffLocation  *string    `json:"new_dropoff_location,omitempty"`
	NewDropoffAddress   *string    `json:"new_dropoff_address,omitempty"`
	NewNotes            *string    `json:"new_notes,omitempty"`
	NewInsuranceCovered *bool      `json:"new_insurance_covered,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
}

func toChangeRequestJSON(r *model.BookingChangeRequest) changeRequestJSON {
	return changeRequestJSON{
		ID:                  r.ID,
		BookingID:           r.BookingID,
		RequesterID:         r.RequestedByUserID,
		Status:              string(r.Status),
		Reason:              r.ChangeReason,
		ResponseNote:        r.ResponderNote,
		NewDate:             r.NewDate,
		NewDurationMinutes:  r.NewDurationMinutes,
		NewPrice:            r.NewPrice,
		NewPickupLocation:   r.NewPickupLocation,
		NewPickupAddress:    r.NewPickupAddress,
		NewDropoffLocation:  r.NewDropoffLocation,
		NewDropoffAddress:   r.NewDropoffAddress,
		NewNotes:            r.NewNotes,
		NewInsuranceCovered: r.NewInsuranceCovered,
		CreatedAt:           r.CreatedAt,
		ResolvedAt:          r.RespondedAt,
	}
}
