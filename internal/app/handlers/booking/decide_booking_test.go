package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "carpool/internal/domain/booking"
)

func requestBooking(t *testing.T, h *RequestBookingHandler, id, rideID, passengerID string, seats int) {
	t.Helper()
	if _, err := h.Handle(context.Background(), RequestBookingCommand{
		CommandID: id, RideID: rideID, PassengerID: passengerID, Seats: seats,
	}); err != nil {
		t.Fatalf("request booking %s: %v", id, err)
	}
}

// Seat-consuming writes must write the ride back so that two transactions
// deciding on the same ride contend on its version instead of committing
// disjoint booking documents.
func TestCapacityDecisionsWriteRideBack(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}

	rideVersion := func() int64 {
		t.Helper()
		rd, err := factory.Rides().ByID(context.Background(), "rd-1")
		if err != nil {
			t.Fatalf("ride: %v", err)
		}
		return rd.Version
	}

	v0 := rideVersion()
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)
	v1 := rideVersion()
	if v1 <= v0 {
		t.Fatalf("request left ride version at %d", v1)
	}

	accept := &AcceptBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := accept.Handle(context.Background(), AcceptBookingCommand{
		DriverID: "driver-1", BookingID: "bk-1",
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if v2 := rideVersion(); v2 <= v1 {
		t.Fatalf("accept left ride version at %d", v2)
	}
}

func TestAcceptBooking(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 2)
	box.Reset()

	h := &AcceptBookingHandler{UoWFactory: factory, Outbox: box}
	result, err := h.Handle(context.Background(), AcceptBookingCommand{
		DriverID: "driver-1", BookingID: "bk-1", Note: "see you there",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != string(domainbooking.StateAccepted) {
		t.Errorf("status = %s", result.Status)
	}
	records := box.Records()
	if len(records) != 1 || records[0].Name != "booking_accepted" {
		t.Fatalf("expected booking_accepted, got %v", eventNames(records))
	}
	if records[0].Recipient != "passenger-1" {
		t.Errorf("recipient = %s", records[0].Recipient)
	}
}

func TestAcceptBookingRechecksCapacity(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 2)
	requestBooking(t, reqHandler, "bk-2", "rd-1", "passenger-2", 2)

	h := &AcceptBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := h.Handle(context.Background(), AcceptBookingCommand{DriverID: "driver-1", BookingID: "bk-1"}); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	// Only one seat is left; the second two-seat booking no longer fits.
	_, err := h.Handle(context.Background(), AcceptBookingCommand{DriverID: "driver-1", BookingID: "bk-2"})
	if !errors.Is(err, domainbooking.ErrInsufficientSeats) {
		t.Fatalf("second accept error = %v, want ErrInsufficientSeats", err)
	}

	b, err := factory.Bookings().ByID(context.Background(), "bk-2")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if b.State != domainbooking.StatePending {
		t.Errorf("refused booking state = %s, want PENDING", b.State)
	}
}

func TestDecideBookingOwnership(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)

	accept := &AcceptBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := accept.Handle(context.Background(), AcceptBookingCommand{DriverID: "intruder", BookingID: "bk-1"}); !errors.Is(err, ErrNotRideDriver) {
		t.Errorf("accept by stranger: error = %v, want ErrNotRideDriver", err)
	}
	reject := &RejectBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := reject.Handle(context.Background(), RejectBookingCommand{DriverID: "intruder", BookingID: "bk-1"}); !errors.Is(err, ErrNotRideDriver) {
		t.Errorf("reject by stranger: error = %v, want ErrNotRideDriver", err)
	}
}

func TestRejectBooking(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 2)
	box.Reset()

	h := &RejectBookingHandler{UoWFactory: factory, Outbox: box}
	result, err := h.Handle(context.Background(), RejectBookingCommand{DriverID: "driver-1", BookingID: "bk-1", Note: "car is full"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Status != string(domainbooking.StateRejected) {
		t.Errorf("status = %s", result.Status)
	}
	records := box.Records()
	if len(records) != 1 || records[0].Name != "booking_rejected" {
		t.Fatalf("expected booking_rejected, got %v", eventNames(records))
	}

	// Rejection releases the slot: the same passenger may request again.
	requestBooking(t, reqHandler, "bk-2", "rd-1", "passenger-1", 2)
}

func TestDecideTerminalBookingFails(t *testing.T) {
	factory, box := newTestEnv()
	seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
	reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
	requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)

	reject := &RejectBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := reject.Handle(context.Background(), RejectBookingCommand{DriverID: "driver-1", BookingID: "bk-1"}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	accept := &AcceptBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := accept.Handle(context.Background(), AcceptBookingCommand{DriverID: "driver-1", BookingID: "bk-1"}); !errors.Is(err, domainbooking.ErrInvalidState) {
		t.Errorf("accept rejected booking: error = %v, want ErrInvalidState", err)
	}
}

func TestCancelBooking(t *testing.T) {
	t.Run("pending booking before departure", func(t *testing.T) {
		factory, box := newTestEnv()
		seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
		reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
		requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)
		box.Reset()

		h := &CancelBookingHandler{UoWFactory: factory, Outbox: box}
		result, err := h.Handle(context.Background(), CancelBookingCommand{PassengerID: "passenger-1", BookingID: "bk-1"})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
		if result.Status != string(domainbooking.StateCancelled) {
			t.Errorf("status = %s", result.Status)
		}
		records := box.Records()
		if len(records) != 1 || records[0].Name != "booking_cancelled" {
			t.Fatalf("expected booking_cancelled, got %v", eventNames(records))
		}
		if records[0].Recipient != "driver-1" {
			t.Errorf("recipient = %s, want driver", records[0].Recipient)
		}
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		factory, box := newTestEnv()
		seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3})
		reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
		requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)

		h := &CancelBookingHandler{UoWFactory: factory, Outbox: box}
		if _, err := h.Handle(context.Background(), CancelBookingCommand{PassengerID: "someone-else", BookingID: "bk-1"}); !errors.Is(err, ErrNotBookingOwner) {
			t.Errorf("error = %v, want ErrNotBookingOwner", err)
		}
	})

	t.Run("departed ride refuses withdrawal", func(t *testing.T) {
		factory, box := newTestEnv()
		seedRide(t, factory, seedRideParams{
			id: "rd-1", driver: "driver-1", capacity: 3,
			departure: time.Now().Add(-time.Hour),
		})
		reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
		requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)

		h := &CancelBookingHandler{UoWFactory: factory, Outbox: box}
		if _, err := h.Handle(context.Background(), CancelBookingCommand{PassengerID: "passenger-1", BookingID: "bk-1"}); !errors.Is(err, domainbooking.ErrDepartedRide) {
			t.Errorf("error = %v, want ErrDepartedRide", err)
		}
	})

	t.Run("accepted booking cannot be withdrawn", func(t *testing.T) {
		factory, box := newTestEnv()
		seedRide(t, factory, seedRideParams{id: "rd-1", driver: "driver-1", capacity: 3, autoAccept: true})
		reqHandler := &RequestBookingHandler{UoWFactory: factory, Outbox: box}
		requestBooking(t, reqHandler, "bk-1", "rd-1", "passenger-1", 1)

		h := &CancelBookingHandler{UoWFactory: factory, Outbox: box}
		if _, err := h.Handle(context.Background(), CancelBookingCommand{PassengerID: "passenger-1", BookingID: "bk-1"}); !errors.Is(err, domainbooking.ErrInvalidState) {
			t.Errorf("error = %v, want ErrInvalidState", err)
		}
	})
}
