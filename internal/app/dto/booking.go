package dto

import (
	"time"

	domainbooking "carpool/internal/domain/booking"
)

// Booking is the boundary representation of a seat reservation.
type Booking struct {
	ID            string    `json:"id"`
	RideID        string    `json:"ride_id"`
	PassengerID   string    `json:"passenger_id"`
	Seats         int       `json:"seats"`
	Status        string    `json:"status"`
	PassengerNote string    `json:"passenger_note,omitempty"`
	DriverNote    string    `json:"driver_note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	AcceptedAt    time.Time `json:"accepted_at,omitzero"`
	RejectedAt    time.Time `json:"rejected_at,omitzero"`
	CancelledAt   time.Time `json:"cancelled_at,omitzero"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	return Booking{
		ID:            string(b.ID),
		RideID:        string(b.RideID),
		PassengerID:   b.PassengerID,
		Seats:         b.Seats,
		Status:        string(b.State),
		PassengerNote: b.PassengerNote,
		DriverNote:    b.DriverNote,
		CreatedAt:     b.CreatedAt,
		AcceptedAt:    b.AcceptedAt,
		RejectedAt:    b.RejectedAt,
		CancelledAt:   b.CancelledAt,
		CompletedAt:   b.CompletedAt,
	}
}
