package ride

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingapp "carpool/internal/app/handlers/booking"
	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
	"carpool/internal/infra/storage/memory"
)

func publishRide(t *testing.T, factory *memory.Factory, id, driver string, capacity int, autoAccept bool) {
	t.Helper()
	h := &PublishRideHandler{UoWFactory: factory}
	_, err := h.Handle(context.Background(), PublishRideCommand{
		CommandID:      id,
		DriverID:       driver,
		Origin:         "Bilbao",
		Destination:    "Madrid",
		DepartureAt:    time.Now().Add(48 * time.Hour),
		Capacity:       capacity,
		SeatPriceCents: 2000,
		AutoAccept:     autoAccept,
	})
	if err != nil {
		t.Fatalf("publish ride %s: %v", id, err)
	}
}

func bookSeats(t *testing.T, factory *memory.Factory, box *memory.Outbox, bookingID, rideID, passenger string, seats int) {
	t.Helper()
	h := &bookingapp.RequestBookingHandler{UoWFactory: factory, Outbox: box}
	if _, err := h.Handle(context.Background(), bookingapp.RequestBookingCommand{
		CommandID: bookingID, RideID: rideID, PassengerID: passenger, Seats: seats,
	}); err != nil {
		t.Fatalf("book %s: %v", bookingID, err)
	}
}

func TestPublishRide(t *testing.T) {
	factory := memory.NewFactory()
	publishRide(t, factory, "rd-1", "driver-1", 3, true)

	rd, err := factory.Rides().ByID(context.Background(), "rd-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if rd.State != domainride.StateScheduled {
		t.Errorf("state = %s", rd.State)
	}
	if !rd.AutoAccept {
		t.Error("auto accept not persisted")
	}
}

func TestPublishRideValidation(t *testing.T) {
	factory := memory.NewFactory()
	h := &PublishRideHandler{UoWFactory: factory}
	_, err := h.Handle(context.Background(), PublishRideCommand{
		CommandID: "rd-1", DriverID: "driver-1", Origin: "A", Destination: "B",
		DepartureAt: time.Now().Add(time.Hour), Capacity: 0,
	})
	if !errors.Is(err, domainride.ErrInvalidCapacity) {
		t.Fatalf("error = %v, want ErrInvalidCapacity", err)
	}
}

func TestStartAndCompleteRideCascade(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, true)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 2)
	bookSeats(t, factory, box, "bk-2", "rd-1", "passenger-2", 1)
	box.Reset()

	start := &StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(context.Background(), StartRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	complete := &CompleteRideHandler{UoWFactory: factory, Outbox: box}
	result, err := complete.Handle(context.Background(), CompleteRideCommand{DriverID: "driver-1", RideID: "rd-1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Status != string(domainride.StateCompleted) {
		t.Errorf("status = %s", result.Status)
	}

	bookings, _ := factory.Bookings().ListByRide(context.Background(), "rd-1")
	for _, b := range bookings {
		if b.State != domainbooking.StateCompleted {
			t.Errorf("booking %s state = %s, want COMPLETED", b.ID, b.State)
		}
	}

	records := box.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 ride_completed events, got %d", len(records))
	}
	recipients := map[string]bool{}
	for _, r := range records {
		if r.Name != "ride_completed" {
			t.Errorf("event name = %s", r.Name)
		}
		recipients[r.Recipient] = true
	}
	if !recipients["passenger-1"] || !recipients["passenger-2"] {
		t.Errorf("missing recipients: %v", recipients)
	}
}

func TestCompleteRideSkipsPendingBookings(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, false)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 1)
	box.Reset()

	start := &StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(context.Background(), StartRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	complete := &CompleteRideHandler{UoWFactory: factory, Outbox: box}
	if _, err := complete.Handle(context.Background(), CompleteRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	b, _ := factory.Bookings().ByID(context.Background(), "bk-1")
	if b.State != domainbooking.StatePending {
		t.Errorf("pending booking state = %s, want untouched PENDING", b.State)
	}
	if len(box.Records()) != 0 {
		t.Errorf("no events expected for skipped bookings, got %v", len(box.Records()))
	}
}

func TestCancelRideCascade(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, true)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 1)
	box.Reset()

	cancel := &CancelRideHandler{UoWFactory: factory, Outbox: box}
	result, err := cancel.Handle(context.Background(), CancelRideCommand{DriverID: "driver-1", RideID: "rd-1"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != string(domainride.StateCancelled) {
		t.Errorf("status = %s", result.Status)
	}

	b, _ := factory.Bookings().ByID(context.Background(), "bk-1")
	if b.State != domainbooking.StateCancelled {
		t.Errorf("booking state = %s, want CANCELLED", b.State)
	}

	records := box.Records()
	if len(records) != 1 || records[0].Name != "ride_cancelled" {
		t.Fatalf("expected one ride_cancelled event, got %d", len(records))
	}
	if records[0].Recipient != "passenger-1" {
		t.Errorf("recipient = %s", records[0].Recipient)
	}
}

func TestCancelRideOnlyFromScheduled(t *testing.T) {
	factory := memory.NewFactory()
	publishRide(t, factory, "rd-1", "driver-1", 4, false)

	start := &StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(context.Background(), StartRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel := &CancelRideHandler{UoWFactory: factory}
	if _, err := cancel.Handle(context.Background(), CancelRideCommand{DriverID: "driver-1", RideID: "rd-1"}); !errors.Is(err, domainride.ErrInvalidState) {
		t.Errorf("cancel in progress: error = %v, want ErrInvalidState", err)
	}
}

func TestLifecycleOwnership(t *testing.T) {
	factory := memory.NewFactory()
	publishRide(t, factory, "rd-1", "driver-1", 4, false)

	start := &StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(context.Background(), StartRideCommand{DriverID: "stranger", RideID: "rd-1"}); !errors.Is(err, ErrNotRideDriver) {
		t.Errorf("start by stranger: error = %v, want ErrNotRideDriver", err)
	}
}

func TestUpdateRideBlockedByCommitments(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, true)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 1)

	update := &UpdateRideHandler{UoWFactory: factory}
	_, err := update.Handle(context.Background(), UpdateRideCommand{
		DriverID: "driver-1", RideID: "rd-1",
		Origin: "Sevilla", Destination: "Granada",
		DepartureAt: time.Now().Add(72 * time.Hour), Capacity: 2,
	})
	if !errors.Is(err, domainride.ErrHasActiveCommitments) {
		t.Fatalf("error = %v, want ErrHasActiveCommitments", err)
	}
}

func TestUpdateRideWithOnlyPendingBookings(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, false)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 1)

	update := &UpdateRideHandler{UoWFactory: factory}
	if _, err := update.Handle(context.Background(), UpdateRideCommand{
		DriverID: "driver-1", RideID: "rd-1",
		Origin: "Sevilla", Destination: "Granada",
		DepartureAt: time.Now().Add(72 * time.Hour), Capacity: 2,
	}); err != nil {
		t.Fatalf("update with pending only: %v", err)
	}

	rd, _ := factory.Rides().ByID(context.Background(), "rd-1")
	if rd.Origin != "Sevilla" || rd.Capacity != 2 {
		t.Errorf("update not applied: %+v", rd)
	}
}

func TestDeleteRide(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 4, false)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 1)

	del := &DeleteRideHandler{UoWFactory: factory}
	if _, err := del.Handle(context.Background(), DeleteRideCommand{DriverID: "driver-1", RideID: "rd-1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := factory.Rides().ByID(context.Background(), "rd-1"); err == nil {
		t.Error("ride still present after delete")
	}
	bookings, _ := factory.Bookings().ListByRide(context.Background(), "rd-1")
	if len(bookings) != 0 {
		t.Errorf("bookings still present after delete: %d", len(bookings))
	}
}

func TestSearchRidesOnlyScheduledByDefault(t *testing.T) {
	factory := memory.NewFactory()
	publishRide(t, factory, "rd-1", "driver-1", 3, false)
	publishRide(t, factory, "rd-2", "driver-2", 3, false)

	start := &StartRideHandler{UoWFactory: factory}
	if _, err := start.Handle(context.Background(), StartRideCommand{DriverID: "driver-2", RideID: "rd-2"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	search := &SearchRidesHandler{UoWFactory: factory}
	result, err := search.Handle(context.Background(), SearchRidesQuery{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 || result.Items[0].ID != "rd-1" {
		t.Fatalf("search returned %+v, want only rd-1", result)
	}
}

func TestSearchRidesReportsRemainingSeats(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	publishRide(t, factory, "rd-1", "driver-1", 3, true)
	bookSeats(t, factory, box, "bk-1", "rd-1", "passenger-1", 2)

	search := &SearchRidesHandler{UoWFactory: factory}
	result, err := search.Handle(context.Background(), SearchRidesQuery{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d", len(result.Items))
	}
	if result.Items[0].RemainingSeats != 1 {
		t.Errorf("remaining = %d, want 1", result.Items[0].RemainingSeats)
	}
}
