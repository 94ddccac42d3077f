package ride

import (
	"context"
	"time"

	"carpool/internal/app/dto"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/queries"
	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
)

const (
	searchRidesKey = "ride.search"
	getRideKey     = "ride.get"
)

type SearchRidesQuery struct {
	Origin        string
	Destination   string
	DepartsAfter  time.Time
	DepartsBefore time.Time
	MinSeats      int
	Driver        string
	Sort          string
	Limit         int
	Offset        int
}

func (q SearchRidesQuery) Key() string { return searchRidesKey }

// SearchRidesHandler lists scheduled rides matching the filters. Remaining
// seats are computed per ride so passengers do not chase full rides.
type SearchRidesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchRidesHandler) Handle(ctx context.Context, q SearchRidesQuery) (dto.RideCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RideCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	result, err := unit.Rides().Search(execCtx, domainride.SearchParams{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartsAfter:  q.DepartsAfter,
		DepartsBefore: q.DepartsBefore,
		MinSeats:      q.MinSeats,
		Driver:        q.Driver,
		OnlyScheduled: q.Driver == "",
		Sort:          domainride.SearchSort(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		return dto.RideCollection{}, err
	}

	items := make([]dto.Ride, 0, len(result.Items))
	for _, rd := range result.Items {
		remaining, err := remainingSeats(execCtx, unit, rd)
		if err != nil {
			return dto.RideCollection{}, err
		}
		items = append(items, dto.MapRide(rd, remaining))
	}
	return dto.RideCollection{Items: items, Total: result.Total}, nil
}

type GetRideQuery struct {
	RideID string
}

func (q GetRideQuery) Key() string { return getRideKey }

type GetRideHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRideHandler) Handle(ctx context.Context, q GetRideQuery) (dto.Ride, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Ride{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	rd, err := unit.Rides().ByID(execCtx, domainride.RideID(q.RideID))
	if err != nil {
		return dto.Ride{}, domainride.ErrRideNotFound
	}
	remaining, err := remainingSeats(execCtx, unit, rd)
	if err != nil {
		return dto.Ride{}, err
	}
	return dto.MapRide(rd, remaining), nil
}

func remainingSeats(ctx context.Context, unit uow.UnitOfWork, rd *domainride.Ride) (int, error) {
	bookings, err := unit.Bookings().ListByRide(ctx, rd.ID)
	if err != nil {
		return 0, err
	}
	return domainbooking.RemainingSeats(rd.Capacity, bookings), nil
}

var _ queries.Handler[SearchRidesQuery, dto.RideCollection] = (*SearchRidesHandler)(nil)
var _ queries.Handler[GetRideQuery, dto.Ride] = (*GetRideHandler)(nil)
