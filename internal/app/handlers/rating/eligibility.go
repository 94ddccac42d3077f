package rating

import (
	"context"
	"errors"

	"carpool/internal/app/dto"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/queries"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

const ratingEligibilityKey = "rating.eligibility"

var (
	ErrRideNotFinished = errors.New("rating: ride is not finished")
	ErrNotAParticipant = errors.New("rating: actor did not take part in this booking")
	ErrAlreadyRated    = errors.New("rating: actor already rated this booking")
)

// evaluate applies the eligibility checks in their fixed order: the booking
// must exist, be completed, include the actor, and not have been rated by
// them yet. On success it returns the booking and the counterparty to rate.
func evaluate(ctx context.Context, unit uow.UnitOfWork, bookingID, actorID string) (*domainbooking.Booking, string, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, "", domainbooking.ErrBookingNotFound
	}
	if b.State != domainbooking.StateCompleted {
		return nil, "", ErrRideNotFinished
	}
	rd, err := unit.Rides().ByID(ctx, b.RideID)
	if err != nil {
		return nil, "", domainride.ErrRideNotFound
	}

	var counterparty string
	switch actorID {
	case b.PassengerID:
		counterparty = rd.DriverID
	case rd.DriverID:
		counterparty = b.PassengerID
	default:
		return nil, "", ErrNotAParticipant
	}

	existing, err := unit.Ratings().ByBookingRater(ctx, b.ID, actorID)
	if err != nil && !errors.Is(err, domainrating.ErrNotFound) {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrAlreadyRated
	}
	return b, counterparty, nil
}

type RatingEligibilityQuery struct {
	BookingID string
	ActorID   string
}

func (q RatingEligibilityQuery) Key() string { return ratingEligibilityKey }

type RatingEligibilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RatingEligibilityHandler) Handle(ctx context.Context, q RatingEligibilityQuery) (dto.RatingEligibility, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RatingEligibility{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	_, counterparty, err := evaluate(execCtx, unit, q.BookingID, q.ActorID)
	if err != nil {
		// Missing bookings stay a hard error; the rest fold into the payload
		// so a client can render the reason without parsing statuses.
		if errors.Is(err, domainbooking.ErrBookingNotFound) || errors.Is(err, domainride.ErrRideNotFound) {
			return dto.RatingEligibility{}, err
		}
		return dto.RatingEligibility{Eligible: false, Reason: err.Error()}, nil
	}
	return dto.RatingEligibility{Eligible: true, CounterpartyID: counterparty}, nil
}

var _ queries.Handler[RatingEligibilityQuery, dto.RatingEligibility] = (*RatingEligibilityHandler)(nil)
