package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "carpool/internal/app/handlers/booking"
	ratingapp "carpool/internal/app/handlers/rating"
	rideapp "carpool/internal/app/handlers/ride"
	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

// respondError translates application errors into HTTP statuses. Conflicts
// with the current aggregate state map to 409, ownership failures to 403,
// missing aggregates to 404 and everything invalid in the request itself
// to 400.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainride.ErrRideNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainrating.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, rideapp.ErrNotRideDriver),
		errors.Is(err, bookingapp.ErrNotRideDriver),
		errors.Is(err, bookingapp.ErrNotBookingOwner),
		errors.Is(err, ratingapp.ErrNotAParticipant):
		return http.StatusForbidden

	case errors.Is(err, domainbooking.ErrInsufficientSeats),
		errors.Is(err, domainbooking.ErrDuplicateActiveBooking),
		errors.Is(err, domainbooking.ErrDepartedRide),
		errors.Is(err, domainbooking.ErrSelfBooking),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainride.ErrInvalidState),
		errors.Is(err, domainride.ErrHasActiveCommitments),
		errors.Is(err, ratingapp.ErrRideNotFinished),
		errors.Is(err, ratingapp.ErrAlreadyRated):
		return http.StatusConflict

	case errors.Is(err, domainbooking.ErrInvalidSeats),
		errors.Is(err, domainride.ErrInvalidCapacity),
		errors.Is(err, domainride.ErrInvalidSchedule),
		errors.Is(err, domainrating.ErrInvalidScore):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
