package ride

import (
	"context"
	"log/slog"
	"time"

	"carpool/internal/app/commands"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/uow"
	domainride "carpool/internal/domain/ride"
)

const (
	updateRideKey = "ride.update"
	deleteRideKey = "ride.delete"
)

type UpdateRideCommand struct {
	DriverID       string
	RideID         string
	Origin         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	Capacity       int
	SeatPriceCents int64
	AutoAccept     bool
}

func (c UpdateRideCommand) Key() string { return updateRideKey }

type DeleteRideCommand struct {
	DriverID string
	RideID   string
}

func (c DeleteRideCommand) Key() string { return deleteRideKey }

type UpdateRideResult struct {
	RideID string `json:"ride_id"`
}

// UpdateRideHandler rewrites a ride's structural fields. The ride freezes the
// moment any booking commits a seat: with an accepted or completed booking
// present the update is refused.
type UpdateRideHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *UpdateRideHandler) Handle(ctx context.Context, cmd UpdateRideCommand) (*UpdateRideResult, error) {
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
	if err := ensureNoCommitments(ctx, unit, rd.ID); err != nil {
		return nil, err
	}

	err = rd.ApplyUpdate(domainride.UpdateParams{
		Origin:         cmd.Origin,
		Destination:    cmd.Destination,
		DepartureAt:    cmd.DepartureAt,
		ArrivalAt:      cmd.ArrivalAt,
		Capacity:       cmd.Capacity,
		SeatPriceCents: cmd.SeatPriceCents,
		AutoAccept:     cmd.AutoAccept,
	}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride updated", "ride_id", rd.ID)
	}
	return &UpdateRideResult{RideID: string(rd.ID)}, nil
}

// DeleteRideHandler hard-removes a ride and its bookings. Allowed only under
// the same no-commitments condition as update.
type DeleteRideHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *DeleteRideHandler) Handle(ctx context.Context, cmd DeleteRideCommand) (*UpdateRideResult, error) {
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
	if err := ensureNoCommitments(ctx, unit, rd.ID); err != nil {
		return nil, err
	}

	if err := unit.Bookings().DeleteByRide(ctx, rd.ID); err != nil {
		return nil, err
	}
	if err := unit.Rides().Delete(ctx, rd.ID); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride deleted", "ride_id", rd.ID)
	}
	return &UpdateRideResult{RideID: string(rd.ID)}, nil
}

func ensureNoCommitments(ctx context.Context, unit uow.UnitOfWork, rideID domainride.RideID) error {
	bookings, err := unit.Bookings().ListByRide(ctx, rideID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.State.ConsumesCapacity() {
			return domainride.ErrHasActiveCommitments
		}
	}
	return nil
}

var _ commands.Handler[UpdateRideCommand, *UpdateRideResult] = (*UpdateRideHandler)(nil)
var _ commands.Handler[DeleteRideCommand, *UpdateRideResult] = (*DeleteRideHandler)(nil)
