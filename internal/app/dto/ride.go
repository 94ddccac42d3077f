package dto

import (
	"time"

	domainride "carpool/internal/domain/ride"
)

// Ride is the boundary representation of a ride offer.
type Ride struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driver_id"`
	VehicleID      string    `json:"vehicle_id,omitempty"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureAt    time.Time `json:"departure_at"`
	ArrivalAt      time.Time `json:"arrival_at,omitzero"`
	Capacity       int       `json:"capacity"`
	RemainingSeats int       `json:"remaining_seats"`
	SeatPriceCents int64     `json:"seat_price_cents"`
	AutoAccept     bool      `json:"auto_accept"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type RideCollection struct {
	Items []Ride `json:"items"`
	Total int    `json:"total"`
}

// MapRide builds the boundary view; remaining comes from the capacity ledger
// over the ride's booking snapshot.
func MapRide(r *domainride.Ride, remaining int) Ride {
	return Ride{
		ID:             string(r.ID),
		DriverID:       r.DriverID,
		VehicleID:      r.VehicleID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureAt:    r.DepartureAt,
		ArrivalAt:      r.ArrivalAt,
		Capacity:       r.Capacity,
		RemainingSeats: remaining,
		SeatPriceCents: r.SeatPriceCents,
		AutoAccept:     r.AutoAccept,
		Status:         string(r.State),
		CreatedAt:      r.CreatedAt,
	}
}
