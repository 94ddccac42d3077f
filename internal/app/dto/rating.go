package dto

import (
	"time"

	domainrating "carpool/internal/domain/rating"
)

type Rating struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	RaterID   string    `json:"rater_id"`
	RatedID   string    `json:"rated_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingCollection struct {
	Items   []Rating `json:"items"`
	Count   int      `json:"count"`
	Average float64  `json:"average"`
}

// RatingEligibility reports whether the caller may rate and who they would be
// rating.
type RatingEligibility struct {
	Eligible       bool   `json:"eligible"`
	CounterpartyID string `json:"counterparty_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func MapRating(r *domainrating.Rating) Rating {
	return Rating{
		ID:        string(r.ID),
		BookingID: string(r.BookingID),
		RaterID:   r.RaterID,
		RatedID:   r.RatedID,
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
