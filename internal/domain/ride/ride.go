package ride

import (
	"context"
	"errors"
	"strings"
	"time"

	"carpool/internal/domain/shared/events"
	"carpool/internal/domain/shared/money"
)

// PriceCurrency is the single currency all seat prices are quoted in.
const PriceCurrency = "EUR"

var (
	ErrRideNotFound         = errors.New("ride: not found")
	ErrInvalidState         = errors.New("ride: invalid state transition")
	ErrInvalidCapacity      = errors.New("ride: capacity must be positive")
	ErrInvalidSchedule      = errors.New("ride: departure must precede arrival")
	ErrHasActiveCommitments = errors.New("ride: ride has committed bookings")
)

type RideID string

type RideState string

const (
	StateScheduled  RideState = "SCHEDULED"
	StateInProgress RideState = "IN_PROGRESS"
	StateCompleted  RideState = "COMPLETED"
	StateCancelled  RideState = "CANCELLED"
)

// Terminal reports whether no further transition is possible from s.
func (s RideState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

type Ride struct {
	ID             RideID
	DriverID       string
	VehicleID      string
	Origin         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	Capacity       int
	SeatPriceCents int64
	AutoAccept     bool
	State          RideState
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RideID) (*Ride, error)
	Save(ctx context.Context, ride *Ride) error
	Delete(ctx context.Context, id RideID) error
	ListByDriver(ctx context.Context, driverID string) ([]*Ride, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID             RideID
	DriverID       string
	VehicleID      string
	Origin         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	Capacity       int
	SeatPriceCents int64
	AutoAccept     bool
	CreatedAt      time.Time
}

func NewRide(params CreateParams) (*Ride, error) {
	if params.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if params.DriverID == "" {
		return nil, errors.New("ride: driver id required")
	}
	origin := strings.TrimSpace(params.Origin)
	destination := strings.TrimSpace(params.Destination)
	if origin == "" || destination == "" {
		return nil, errors.New("ride: origin and destination required")
	}
	if !params.ArrivalAt.IsZero() && !params.ArrivalAt.After(params.DepartureAt) {
		return nil, ErrInvalidSchedule
	}
	now := params.CreatedAt.UTC()
	r := &Ride{
		ID:             params.ID,
		DriverID:       params.DriverID,
		VehicleID:      params.VehicleID,
		Origin:         origin,
		Destination:    destination,
		DepartureAt:    params.DepartureAt.UTC(),
		ArrivalAt:      params.ArrivalAt.UTC(),
		Capacity:       params.Capacity,
		SeatPriceCents: params.SeatPriceCents,
		AutoAccept:     params.AutoAccept,
		State:          StateScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return r, nil
}

// SeatPrice returns the per-seat fare.
func (r *Ride) SeatPrice() money.Money {
	return money.Must(r.SeatPriceCents, PriceCurrency)
}

// FareFor is the total fare for the given number of seats.
func (r *Ride) FareFor(seats int) money.Money {
	return r.SeatPrice().Multiply(int64(seats))
}

// Start moves a scheduled ride into progress. Only the driver may call it;
// ownership is checked by the application layer.
func (r *Ride) Start(now time.Time) error {
	if r.State != StateScheduled {
		return ErrInvalidState
	}
	r.State = StateInProgress
	r.UpdatedAt = now.UTC()
	return nil
}

// Complete finishes an in-progress ride. A scheduled ride cannot jump straight
// to completed; it must be started first.
func (r *Ride) Complete(now time.Time) error {
	if r.State != StateInProgress {
		return ErrInvalidState
	}
	r.State = StateCompleted
	r.UpdatedAt = now.UTC()
	return nil
}

// Cancel withdraws a ride. Only scheduled rides can be cancelled; once the
// ride is under way the driver has to complete it instead.
func (r *Ride) Cancel(now time.Time) error {
	if r.State != StateScheduled {
		return ErrInvalidState
	}
	r.State = StateCancelled
	r.UpdatedAt = now.UTC()
	return nil
}

type UpdateParams struct {
	Origin         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	Capacity       int
	SeatPriceCents int64
	AutoAccept     bool
}

// ApplyUpdate rewrites the structural fields of a scheduled ride. The caller
// must first verify that no booking is in a capacity-consuming state.
func (r *Ride) ApplyUpdate(params UpdateParams, now time.Time) error {
	if r.State != StateScheduled {
		return ErrInvalidState
	}
	if params.Capacity < 1 {
		return ErrInvalidCapacity
	}
	origin := strings.TrimSpace(params.Origin)
	destination := strings.TrimSpace(params.Destination)
	if origin == "" || destination == "" {
		return errors.New("ride: origin and destination required")
	}
	if !params.ArrivalAt.IsZero() && !params.ArrivalAt.After(params.DepartureAt) {
		return ErrInvalidSchedule
	}
	r.Origin = origin
	r.Destination = destination
	r.DepartureAt = params.DepartureAt.UTC()
	r.ArrivalAt = params.ArrivalAt.UTC()
	r.Capacity = params.Capacity
	r.SeatPriceCents = params.SeatPriceCents
	r.AutoAccept = params.AutoAccept
	r.UpdatedAt = now.UTC()
	return nil
}
