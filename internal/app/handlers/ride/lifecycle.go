package ride

import (
	"context"
	"log/slog"
	"time"

	"carpool/internal/app/commands"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
)

const (
	startRideKey    = "ride.start"
	completeRideKey = "ride.complete"
	cancelRideKey   = "ride.cancel"
)

type StartRideCommand struct {
	DriverID string
	RideID   string
}

func (c StartRideCommand) Key() string { return startRideKey }

type CompleteRideCommand struct {
	DriverID string
	RideID   string
}

func (c CompleteRideCommand) Key() string { return completeRideKey }

type CancelRideCommand struct {
	DriverID string
	RideID   string
}

func (c CancelRideCommand) Key() string { return cancelRideKey }

type RideLifecycleResult struct {
	RideID string `json:"ride_id"`
	Status string `json:"status"`
}

type StartRideHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *StartRideHandler) Handle(ctx context.Context, cmd StartRideCommand) (*RideLifecycleResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)

	rd, err := loadOwnedRide(ctx, wu.Unit, cmd.RideID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if err := rd.Start(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := wu.Unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride started", "ride_id", rd.ID)
	}
	return &RideLifecycleResult{RideID: string(rd.ID), Status: string(rd.State)}, nil
}

// CompleteRideHandler finishes an in-progress ride and, within the same unit
// of work, completes every accepted booking so rating eligibility opens for
// all carried passengers at once.
type CompleteRideHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CompleteRideHandler) Handle(ctx context.Context, cmd CompleteRideCommand) (*RideLifecycleResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	rd, err := loadOwnedRide(ctx, unit, cmd.RideID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := rd.Complete(now); err != nil {
		return nil, err
	}
	if err := unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}

	bookings, err := unit.Bookings().ListByRide(ctx, rd.ID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, b := range bookings {
		if b.State != domainbooking.StateAccepted {
			continue
		}
		if err := b.CascadeComplete(now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := handlersupport.DrainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), b); err != nil {
			return nil, err
		}
		completed++
	}

	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride completed", "ride_id", rd.ID, "bookings_completed", completed)
	}
	return &RideLifecycleResult{RideID: string(rd.ID), Status: string(rd.State)}, nil
}

// CancelRideHandler withdraws a scheduled ride and cancels every active
// booking in the same transaction; a partially cancelled cascade is never
// observable.
type CancelRideHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelRideHandler) Handle(ctx context.Context, cmd CancelRideCommand) (*RideLifecycleResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	rd, err := loadOwnedRide(ctx, unit, cmd.RideID, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := rd.Cancel(now); err != nil {
		return nil, err
	}
	if err := unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}

	bookings, err := unit.Bookings().ListByRide(ctx, rd.ID)
	if err != nil {
		return nil, err
	}
	cancelled := 0
	for _, b := range bookings {
		if b.State.Terminal() {
			continue
		}
		if err := b.CascadeCancel(now); err != nil {
			return nil, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := handlersupport.DrainEvents(ctx, h.Outbox, encoderOrDefault(h.Encoder), b); err != nil {
			return nil, err
		}
		cancelled++
	}

	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride cancelled", "ride_id", rd.ID, "bookings_cancelled", cancelled)
	}
	return &RideLifecycleResult{RideID: string(rd.ID), Status: string(rd.State)}, nil
}

func loadOwnedRide(ctx context.Context, unit uow.UnitOfWork, rideID, driverID string) (*domainride.Ride, error) {
	rd, err := unit.Rides().ByID(ctx, domainride.RideID(rideID))
	if err != nil {
		return nil, domainride.ErrRideNotFound
	}
	if rd.DriverID != driverID {
		return nil, ErrNotRideDriver
	}
	return rd, nil
}

func encoderOrDefault(encoder outbox.EventEncoder) outbox.EventEncoder {
	if encoder != nil {
		return encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[StartRideCommand, *RideLifecycleResult] = (*StartRideHandler)(nil)
var _ commands.Handler[CompleteRideCommand, *RideLifecycleResult] = (*CompleteRideHandler)(nil)
var _ commands.Handler[CancelRideCommand, *RideLifecycleResult] = (*CancelRideHandler)(nil)
