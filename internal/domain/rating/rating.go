package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"carpool/internal/domain/booking"
	"carpool/internal/domain/shared/events"
)

var (
	ErrInvalidScore = errors.New("rating: score must be between 1 and 5")
	ErrNotFound     = errors.New("rating: not found")
)

type RatingID string

// Rating is one participant's verdict on the other after a completed booking.
// It is written once and never mutated.
type Rating struct {
	ID        RatingID
	BookingID booking.BookingID
	RaterID   string
	RatedID   string
	Score     int
	Comment   string
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByBookingRater(ctx context.Context, bookingID booking.BookingID, raterID string) (*Rating, error)
	ListByRated(ctx context.Context, ratedID string) ([]*Rating, error)
	Save(ctx context.Context, rating *Rating) error
}

type SubmitParams struct {
	ID        RatingID
	BookingID booking.BookingID
	RaterID   string
	RatedID   string
	Score     int
	Comment   string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Rating, error) {
	if params.Score < 1 || params.Score > 5 {
		return nil, ErrInvalidScore
	}
	if params.RaterID == "" || params.RatedID == "" {
		return nil, errors.New("rating: rater and rated ids required")
	}
	r := &Rating{
		ID:        params.ID,
		BookingID: params.BookingID,
		RaterID:   params.RaterID,
		RatedID:   params.RatedID,
		Score:     params.Score,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: params.CreatedAt.UTC(),
	}
	r.Record(RatingSubmitted{RatingID: r.ID, BookingID: r.BookingID, RaterID: r.RaterID, RatedID: r.RatedID, Score: r.Score, At: r.CreatedAt})
	return r, nil
}

// Summary aggregates the ratings a user has received.
type Summary struct {
	Count   int
	Average float64
}

// Summarize computes the received-rating summary for a slice of ratings.
func Summarize(ratings []*Rating) Summary {
	if len(ratings) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range ratings {
		total += r.Score
	}
	return Summary{
		Count:   len(ratings),
		Average: float64(total) / float64(len(ratings)),
	}
}
