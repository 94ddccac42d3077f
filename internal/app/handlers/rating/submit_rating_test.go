package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingapp "carpool/internal/app/handlers/booking"
	rideapp "carpool/internal/app/handlers/ride"
	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	"carpool/internal/infra/storage/memory"
)

// completedBooking drives a ride and booking through their full lifecycle so
// rating tests start from the only state where ratings are allowed.
func completedBooking(t *testing.T, factory *memory.Factory, box *memory.Outbox) (rideID, bookingID string) {
	t.Helper()
	ctx := context.Background()

	publish := &rideapp.PublishRideHandler{UoWFactory: factory}
	if _, err := publish.Handle(ctx, rideapp.PublishRideCommand{
		CommandID: "rd-1", DriverID: "driver-1",
		Origin: "Lisboa", Destination: "Porto",
		DepartureAt: time.Now().Add(24 * time.Hour),
		Capacity:    3, SeatPriceCents: 1500, AutoAccept: true,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	request := &bookingapp.RequestBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := request.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", RideID: "rd-1", PassengerID: "passenger-1", Seats: 1,
	}); err != nil {
		t.Fatalf("request: %v", err)
	}

	start := &rideapp.StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(ctx, rideapp.StartRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	complete := &rideapp.CompleteRideHandler{UoWFactory: factory, Outbox: box}
	if _, err := complete.Handle(ctx, rideapp.CompleteRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	box.Reset()
	return "rd-1", "bk-1"
}

func TestSubmitRatingBothDirections(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	_, bookingID := completedBooking(t, factory, box)
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: box}

	got, err := submit.Handle(context.Background(), SubmitRatingCommand{
		BookingID: bookingID, RaterID: "passenger-1", Score: 5, Comment: "smooth ride",
	})
	if err != nil {
		t.Fatalf("passenger rates driver: %v", err)
	}
	if got.RatedID != "driver-1" || got.Score != 5 {
		t.Errorf("rating = %+v", got)
	}

	got, err = submit.Handle(context.Background(), SubmitRatingCommand{
		BookingID: bookingID, RaterID: "driver-1", Score: 4,
	})
	if err != nil {
		t.Fatalf("driver rates passenger: %v", err)
	}
	if got.RatedID != "passenger-1" {
		t.Errorf("rated = %s, want passenger-1", got.RatedID)
	}

	records := box.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 new_rating events, got %d", len(records))
	}
	for _, r := range records {
		if r.Name != "new_rating" {
			t.Errorf("event name = %s", r.Name)
		}
	}
	if records[0].Recipient != "driver-1" || records[1].Recipient != "passenger-1" {
		t.Errorf("recipients = %s, %s", records[0].Recipient, records[1].Recipient)
	}
}

func TestSubmitRatingAtMostOnce(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	_, bookingID := completedBooking(t, factory, box)
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: box}

	if _, err := submit.Handle(context.Background(), SubmitRatingCommand{
		BookingID: bookingID, RaterID: "passenger-1", Score: 4,
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := submit.Handle(context.Background(), SubmitRatingCommand{
		BookingID: bookingID, RaterID: "passenger-1", Score: 2,
	})
	if !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("second submit: error = %v, want ErrAlreadyRated", err)
	}
}

func TestSubmitRatingRefusals(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	_, bookingID := completedBooking(t, factory, box)
	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: box}

	cases := []struct {
		name string
		cmd  SubmitRatingCommand
		want error
	}{
		{
			name: "unknown booking",
			cmd:  SubmitRatingCommand{BookingID: "nope", RaterID: "passenger-1", Score: 3},
			want: domainbooking.ErrBookingNotFound,
		},
		{
			name: "outsider",
			cmd:  SubmitRatingCommand{BookingID: bookingID, RaterID: "stranger", Score: 3},
			want: ErrNotAParticipant,
		},
		{
			name: "score out of range",
			cmd:  SubmitRatingCommand{BookingID: bookingID, RaterID: "passenger-1", Score: 6},
			want: domainrating.ErrInvalidScore,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := submit.Handle(context.Background(), tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
	if len(box.Records()) != 0 {
		t.Errorf("refused submits must not emit events, got %d", len(box.Records()))
	}
}

func TestSubmitRatingRequiresCompletedBooking(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	ctx := context.Background()

	publish := &rideapp.PublishRideHandler{UoWFactory: factory}
	if _, err := publish.Handle(ctx, rideapp.PublishRideCommand{
		CommandID: "rd-1", DriverID: "driver-1",
		Origin: "Lisboa", Destination: "Porto",
		DepartureAt: time.Now().Add(24 * time.Hour),
		Capacity:    3, SeatPriceCents: 1500, AutoAccept: true,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	request := &bookingapp.RequestBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := request.Handle(ctx, bookingapp.RequestBookingCommand{
		CommandID: "bk-1", RideID: "rd-1", PassengerID: "passenger-1", Seats: 1,
	}); err != nil {
		t.Fatalf("request: %v", err)
	}

	submit := &SubmitRatingHandler{UoWFactory: factory, Outbox: box}
	_, err := submit.Handle(ctx, SubmitRatingCommand{BookingID: "bk-1", RaterID: "passenger-1", Score: 5})
	if !errors.Is(err, ErrRideNotFinished) {
		t.Fatalf("error = %v, want ErrRideNotFinished", err)
	}
}
