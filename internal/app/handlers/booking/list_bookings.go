package booking

import (
	"context"
	"sort"
	"strings"

	"carpool/internal/app/dto"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/queries"
	"carpool/internal/app/uow"
)

const (
	listPassengerBookingsKey = "booking.list.passenger"
	listDriverBookingsKey    = "booking.list.driver"

	allStatusesFilterValue = "ALL"
)

type ListPassengerBookingsQuery struct {
	PassengerID string
}

func (q ListPassengerBookingsQuery) Key() string { return listPassengerBookingsKey }

type ListPassengerBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPassengerBookingsHandler) Handle(ctx context.Context, q ListPassengerBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByPassenger(execCtx, q.PassengerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBooking(b))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.BookingCollection{Items: items}, nil
}

// ListDriverBookingsQuery is the driver's inbox: bookings across all of their
// rides, filtered by status (pending by default).
type ListDriverBookingsQuery struct {
	DriverID string
	Status   string
}

func (q ListDriverBookingsQuery) Key() string { return listDriverBookingsKey }

type ListDriverBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListDriverBookingsHandler) Handle(ctx context.Context, q ListDriverBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	statusFilter := strings.ToUpper(strings.TrimSpace(q.Status))
	if statusFilter == "" {
		statusFilter = "PENDING"
	}
	allStatuses := statusFilter == allStatusesFilterValue

	rides, err := unit.Rides().ListByDriver(execCtx, q.DriverID)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	items := make([]dto.Booking, 0)
	for _, rd := range rides {
		bookings, err := unit.Bookings().ListByRide(execCtx, rd.ID)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		for _, b := range bookings {
			if !allStatuses && string(b.State) != statusFilter {
				continue
			}
			items = append(items, dto.MapBooking(b))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.BookingCollection{Items: items}, nil
}

var _ queries.Handler[ListPassengerBookingsQuery, dto.BookingCollection] = (*ListPassengerBookingsHandler)(nil)
var _ queries.Handler[ListDriverBookingsQuery, dto.BookingCollection] = (*ListDriverBookingsHandler)(nil)
