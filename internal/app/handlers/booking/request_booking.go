package booking

import (
	"context"
	"log/slog"
	"time"

	"carpool/internal/app/commands"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/middleware"
	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
)

const requestBookingKey = "booking.request"

// RequestBookingCommand asks for seats on a ride. CommandID doubles as the
// booking id so retries with the same idempotency key stay stable.
type RequestBookingCommand struct {
	CommandID       string
	RideID          string
	PassengerID     string
	Seats           int
	Note            string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) Validate() error {
	if c.Seats < 1 {
		return domainbooking.ErrInvalidSeats
	}
	return nil
}

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	FareCents int64  `json:"fare_cents"`
	FareCcy   string `json:"fare_currency"`
}

// RequestBookingHandler is the reservation entry point. Inside one unit of
// work it checks the ride, the duplicate-booking rule and the capacity
// ledger, creates the booking, and applies the ride's auto-accept policy so
// the caller never sees an intermediate pending state on auto-accept rides.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	now := time.Now().UTC()

	rd, err := unit.Rides().ByID(ctx, domainride.RideID(cmd.RideID))
	if err != nil {
		return nil, domainride.ErrRideNotFound
	}
	if rd.State != domainride.StateScheduled {
		return nil, domainride.ErrInvalidState
	}
	if rd.DriverID == cmd.PassengerID {
		return nil, domainbooking.ErrSelfBooking
	}

	existing, err := unit.Bookings().ListByRide(ctx, rd.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.PassengerID == cmd.PassengerID && b.State.Active() {
			return nil, domainbooking.ErrDuplicateActiveBooking
		}
	}
	if domainbooking.RemainingSeats(rd.Capacity, existing) < cmd.Seats {
		return nil, domainbooking.ErrInsufficientSeats
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:            domainbooking.BookingID(cmd.CommandID),
		RideID:        rd.ID,
		PassengerID:   cmd.PassengerID,
		Seats:         cmd.Seats,
		PassengerNote: cmd.Note,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	if rd.AutoAccept {
		// The accept runs on behalf of the driver before the transaction
		// commits; the capacity check above still holds within this unit.
		if err := b.Accept("", now); err != nil {
			return nil, err
		}
	} else {
		b.Record(domainbooking.BookingRequested{
			BookingID:   b.ID,
			RideID:      rd.ID,
			DriverID:    rd.DriverID,
			PassengerID: b.PassengerID,
			Seats:       b.Seats,
			At:          now,
		})
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	// Capacity decisions must contend on the ride itself: the version bump
	// makes two transactions that both passed the seat check write-conflict
	// instead of committing disjoint booking documents.
	if err := unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
		return nil, err
	}

	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", b.ID, "ride_id", rd.ID, "seats", b.Seats, "status", b.State)
	}
	fare := rd.FareFor(b.Seats)
	return &RequestBookingResult{
		BookingID: string(b.ID),
		Status:    string(b.State),
		FareCents: fare.Amount,
		FareCcy:   fare.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
