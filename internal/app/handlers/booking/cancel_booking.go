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

const cancelBookingKey = "booking.cancel"

// ErrNotBookingOwner means the actor is not the passenger who made the booking.
var ErrNotBookingOwner = errors.New("booking: actor does not own this booking")

type CancelBookingCommand struct {
	PassengerID string
	BookingID   string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

// CancelBookingHandler withdraws a pending booking on the passenger's own
// initiative. Accepted bookings are only released by the ride-cancel cascade,
// and nothing can be withdrawn once the ride's departure time has passed.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*BookingDecisionResult, error) {
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
	if b.PassengerID != cmd.PassengerID {
		return nil, ErrNotBookingOwner
	}

	// One "now" for both the departure gate and the transition timestamp, so
	// the comparison cannot flap within a single call.
	now := time.Now().UTC()
	if !now.Before(rd.DepartureAt) {
		return nil, domainbooking.ErrDepartedRide
	}

	if err := b.Cancel(rd.DriverID, now); err != nil {
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
		h.Logger.Info("booking cancelled", "booking_id", b.ID, "ride_id", rd.ID)
	}
	return &BookingDecisionResult{BookingID: string(b.ID), Status: string(b.State)}, nil
}

var _ commands.Handler[CancelBookingCommand, *BookingDecisionResult] = (*CancelBookingHandler)(nil)
