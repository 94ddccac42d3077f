package rating

import (
	"time"

	"carpool/internal/domain/booking"
)

// RatingSubmitted notifies the rated counterparty about a new rating.
type RatingSubmitted struct {
	RatingID  RatingID
	BookingID booking.BookingID
	RaterID   string
	RatedID   string
	Score     int
	At        time.Time
}

func (e RatingSubmitted) EventName() string     { return "new_rating" }
func (e RatingSubmitted) AggregateID() string   { return string(e.RatingID) }
func (e RatingSubmitted) RecipientID() string   { return e.RatedID }
func (e RatingSubmitted) OccurredAt() time.Time { return e.At }
