package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carpool/internal/app/commands"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
)

const (
	acceptBookingKey = "booking.accept"
	rejectBookingKey = "booking.reject"
)

// ErrNotRideDriver means the actor does not own the ride a booking belongs to.
var ErrNotRideDriver = errors.New("booking: actor is not the ride driver")

type AcceptBookingCommand struct {
	DriverID  string
	BookingID string
	Note      string
}

func (c AcceptBookingCommand) Key() string { return acceptBookingKey }

type RejectBookingCommand struct {
	DriverID  string
	BookingID string
	Note      string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type BookingDecisionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// AcceptBookingHandler lets a driver commit a pending booking's seats. The
// remaining-seats check is repeated here because capacity may have been
// consumed by another acceptance since the booking was created.
type AcceptBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *AcceptBookingHandler) Handle(ctx context.Context, cmd AcceptBookingCommand) (*BookingDecisionResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	b, rd, err := loadBookingWithRide(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != cmd.DriverID {
		return nil, ErrNotRideDriver
	}

	all, err := unit.Bookings().ListByRide(ctx, rd.ID)
	if err != nil {
		return nil, err
	}
	if domainbooking.RemainingSeats(rd.Capacity, all) < b.Seats {
		return nil, domainbooking.ErrInsufficientSeats
	}

	now := time.Now().UTC()
	if err := b.Accept(cmd.Note, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	// Same contention point as the request path: accepting consumes capacity,
	// so the ride version must move for concurrent decisions to conflict.
	if err := unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), b); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking accepted", "booking_id", b.ID, "ride_id", rd.ID, "seats", b.Seats)
	}
	return &BookingDecisionResult{BookingID: string(b.ID), Status: string(b.State)}, nil
}

// RejectBookingHandler declines a pending booking without touching capacity.
type RejectBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*BookingDecisionResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	b, rd, err := loadBookingWithRide(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if rd.DriverID != cmd.DriverID {
		return nil, ErrNotRideDriver
	}

	now := time.Now().UTC()
	if err := b.Reject(cmd.Note, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), b); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking rejected", "booking_id", b.ID, "ride_id", rd.ID)
	}
	return &BookingDecisionResult{BookingID: string(b.ID), Status: string(b.State)}, nil
}

var _ commands.Handler[AcceptBookingCommand, *BookingDecisionResult] = (*AcceptBookingHandler)(nil)
var _ commands.Handler[RejectBookingCommand, *BookingDecisionResult] = (*RejectBookingHandler)(nil)
