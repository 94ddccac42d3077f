package booking

import (
	"time"

	"carpool/internal/domain/ride"
)

// BookingRequested notifies the driver that a booking awaits review. It is
// recorded by the reservation flow only when the ride does not auto-accept.
type BookingRequested struct {
	BookingID   BookingID
	RideID      ride.RideID
	DriverID    string
	PassengerID string
	Seats       int
	At          time.Time
}

func (e BookingRequested) EventName() string     { return "new_booking" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) RecipientID() string   { return e.DriverID }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingAccepted struct {
	BookingID   BookingID
	RideID      ride.RideID
	PassengerID string
	Seats       int
	At          time.Time
}

func (e BookingAccepted) EventName() string     { return "booking_accepted" }
func (e BookingAccepted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAccepted) RecipientID() string   { return e.PassengerID }
func (e BookingAccepted) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID   BookingID
	RideID      ride.RideID
	PassengerID string
	At          time.Time
}

func (e BookingRejected) EventName() string     { return "booking_rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) RecipientID() string   { return e.PassengerID }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

// BookingCancelled notifies the driver that the passenger withdrew a pending
// booking.
type BookingCancelled struct {
	BookingID BookingID
	RideID    ride.RideID
	DriverID  string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking_cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) RecipientID() string   { return e.DriverID }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

// RideCancelledForPassenger is recorded per affected booking when the owning
// ride is cancelled.
type RideCancelledForPassenger struct {
	BookingID   BookingID
	RideID      ride.RideID
	PassengerID string
	At          time.Time
}

func (e RideCancelledForPassenger) EventName() string     { return "ride_cancelled" }
func (e RideCancelledForPassenger) AggregateID() string   { return string(e.RideID) }
func (e RideCancelledForPassenger) RecipientID() string   { return e.PassengerID }
func (e RideCancelledForPassenger) OccurredAt() time.Time { return e.At }

// RideCompletedForPassenger asks each carried passenger to rate the driver
// once the ride finishes.
type RideCompletedForPassenger struct {
	BookingID   BookingID
	RideID      ride.RideID
	PassengerID string
	At          time.Time
}

func (e RideCompletedForPassenger) EventName() string     { return "ride_completed" }
func (e RideCompletedForPassenger) AggregateID() string   { return string(e.RideID) }
func (e RideCompletedForPassenger) RecipientID() string   { return e.PassengerID }
func (e RideCompletedForPassenger) OccurredAt() time.Time { return e.At }
