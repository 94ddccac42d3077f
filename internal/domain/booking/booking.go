package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"carpool/internal/domain/ride"
	"carpool/internal/domain/shared/events"
)

var (
	ErrBookingNotFound        = errors.New("booking: not found")
	ErrInvalidState           = errors.New("booking: invalid state transition")
	ErrInvalidSeats           = errors.New("booking: seats must be positive")
	ErrSelfBooking            = errors.New("booking: driver cannot book own ride")
	ErrInsufficientSeats      = errors.New("booking: not enough seats remaining")
	ErrDuplicateActiveBooking = errors.New("booking: passenger already has an active booking for this ride")
	ErrDepartedRide           = errors.New("booking: ride has already departed")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateAccepted  BookingState = "ACCEPTED"
	StateRejected  BookingState = "REJECTED"
	StateCancelled BookingState = "CANCELLED"
	StateCompleted BookingState = "COMPLETED"
)

// Terminal reports whether no further transition is possible from s.
func (s BookingState) Terminal() bool {
	return s == StateRejected || s == StateCancelled || s == StateCompleted
}

// Active reports whether the booking still occupies the passenger's slot for
// the ride: a second request for the same (ride, passenger) pair is refused
// while one of these exists.
func (s BookingState) Active() bool {
	return s == StatePending || s == StateAccepted
}

// ConsumesCapacity reports whether the booking counts against ride capacity.
func (s BookingState) ConsumesCapacity() bool {
	return s == StateAccepted || s == StateCompleted
}

type Booking struct {
	ID            BookingID
	RideID        ride.RideID
	PassengerID   string
	Seats         int
	State         BookingState
	PassengerNote string
	DriverNote    string
	CreatedAt     time.Time
	AcceptedAt    time.Time
	RejectedAt    time.Time
	CancelledAt   time.Time
	CompletedAt   time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByRide(ctx context.Context, rideID ride.RideID) ([]*Booking, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]*Booking, error)
	DeleteByRide(ctx context.Context, rideID ride.RideID) error
}

type CreateParams struct {
	ID            BookingID
	RideID        ride.RideID
	PassengerID   string
	Seats         int
	PassengerNote string
	CreatedAt     time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Seats < 1 {
		return nil, ErrInvalidSeats
	}
	if params.PassengerID == "" {
		return nil, errors.New("booking: passenger id required")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:            params.ID,
		RideID:        params.RideID,
		PassengerID:   params.PassengerID,
		Seats:         params.Seats,
		State:         StatePending,
		PassengerNote: strings.TrimSpace(params.PassengerNote),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return b, nil
}

// Accept commits the booking's seats. The caller must re-check remaining
// capacity inside the same unit of work before invoking it.
func (b *Booking) Accept(note string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateAccepted
	b.DriverNote = strings.TrimSpace(note)
	b.AcceptedAt = now.UTC()
	b.UpdatedAt = b.AcceptedAt
	b.Record(BookingAccepted{BookingID: b.ID, RideID: b.RideID, PassengerID: b.PassengerID, Seats: b.Seats, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Reject(note string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateRejected
	b.DriverNote = strings.TrimSpace(note)
	b.RejectedAt = now.UTC()
	b.UpdatedAt = b.RejectedAt
	b.Record(BookingRejected{BookingID: b.ID, RideID: b.RideID, PassengerID: b.PassengerID, At: b.UpdatedAt})
	return nil
}

// Cancel is the passenger-initiated withdrawal. Only pending bookings qualify;
// an accepted booking is released solely through the ride-cancel cascade. The
// departure-time gate is enforced by the application layer, which owns the
// ride snapshot.
func (b *Booking) Cancel(driverID string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.CancelledAt = now.UTC()
	b.UpdatedAt = b.CancelledAt
	b.Record(BookingCancelled{BookingID: b.ID, RideID: b.RideID, DriverID: driverID, At: b.UpdatedAt})
	return nil
}

// CascadeCancel releases the booking when its ride is cancelled. It applies to
// any non-terminal state and skips the passenger cancellation window.
func (b *Booking) CascadeCancel(now time.Time) error {
	if b.State.Terminal() {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.CancelledAt = now.UTC()
	b.UpdatedAt = b.CancelledAt
	b.Record(RideCancelledForPassenger{BookingID: b.ID, RideID: b.RideID, PassengerID: b.PassengerID, At: b.UpdatedAt})
	return nil
}

// CascadeComplete marks an accepted booking completed when its ride finishes,
// opening rating eligibility for both participants.
func (b *Booking) CascadeComplete(now time.Time) error {
	if b.State != StateAccepted {
		return ErrInvalidState
	}
	b.State = StateCompleted
	b.CompletedAt = now.UTC()
	b.UpdatedAt = b.CompletedAt
	b.Record(RideCompletedForPassenger{BookingID: b.ID, RideID: b.RideID, PassengerID: b.PassengerID, At: b.UpdatedAt})
	return nil
}
