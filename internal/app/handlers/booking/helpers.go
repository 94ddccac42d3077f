package booking

import (
	"context"

	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
)

func loadBookingWithRide(ctx context.Context, unit uow.UnitOfWork, bookingID string) (*domainbooking.Booking, *domainride.Ride, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, nil, domainbooking.ErrBookingNotFound
	}
	rd, err := unit.Rides().ByID(ctx, b.RideID)
	if err != nil {
		return nil, nil, domainride.ErrRideNotFound
	}
	return b, rd, nil
}

func encoderOrDefault(encoder outbox.EventEncoder) outbox.EventEncoder {
	if encoder != nil {
		return encoder
	}
	return outbox.JSONEventEncoder{}
}
