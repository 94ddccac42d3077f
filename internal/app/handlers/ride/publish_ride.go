package ride

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carpool/internal/app/commands"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/middleware"
	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainride "carpool/internal/domain/ride"
)

const publishRideKey = "ride.publish"

// ErrNotRideDriver means the actor does not own the ride they tried to manage.
var ErrNotRideDriver = errors.New("ride: actor is not the ride driver")

type PublishRideCommand struct {
	CommandID       string
	DriverID        string
	VehicleID       string
	Origin          string
	Destination     string
	DepartureAt     time.Time
	ArrivalAt       time.Time
	Capacity        int
	SeatPriceCents  int64
	AutoAccept      bool
	IdempotencyKeyV string
}

func (c PublishRideCommand) Key() string { return publishRideKey }

func (c PublishRideCommand) Validate() error {
	if c.Capacity < 1 {
		return domainride.ErrInvalidCapacity
	}
	return nil
}

func (c PublishRideCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PublishRideCommand) ResultPrototype() any { return &PublishRideResult{} }

type PublishRideResult struct {
	RideID string `json:"ride_id"`
}

type PublishRideHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *PublishRideHandler) Handle(ctx context.Context, cmd PublishRideCommand) (*PublishRideResult, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)

	rd, err := domainride.NewRide(domainride.CreateParams{
		ID:             domainride.RideID(cmd.CommandID),
		DriverID:       cmd.DriverID,
		VehicleID:      cmd.VehicleID,
		Origin:         cmd.Origin,
		Destination:    cmd.Destination,
		DepartureAt:    cmd.DepartureAt,
		ArrivalAt:      cmd.ArrivalAt,
		Capacity:       cmd.Capacity,
		SeatPriceCents: cmd.SeatPriceCents,
		AutoAccept:     cmd.AutoAccept,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := wu.Unit.Rides().Save(ctx, rd); err != nil {
		return nil, err
	}
	if err := wu.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("ride published", "ride_id", rd.ID, "driver_id", rd.DriverID, "capacity", rd.Capacity, "auto_accept", rd.AutoAccept)
	}
	return &PublishRideResult{RideID: string(rd.ID)}, nil
}

var _ commands.Handler[PublishRideCommand, *PublishRideResult] = (*PublishRideHandler)(nil)
var _ middleware.IdempotentCommand = (*PublishRideCommand)(nil)
