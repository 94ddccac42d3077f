package memory

import (
	"context"
	"sync"

	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

// Factory hands out units of work over a shared in-memory store. Writable
// units take the store-wide write lock for their whole lifetime, so
// capacity checks and the saves that depend on them observe a stable
// snapshot. Read-only units share the lock.
type Factory struct {
	mu       sync.RWMutex
	rides    *RideRepository
	bookings *BookingRepository
	ratings  *RatingRepository
}

func NewFactory() *Factory {
	return &Factory{
		rides:    NewRideRepository(),
		bookings: NewBookingRepository(),
		ratings:  NewRatingRepository(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if opts.ReadOnly {
		f.mu.RLock()
		return &unitOfWork{factory: f, readOnly: true}, nil
	}
	f.mu.Lock()
	return &unitOfWork{factory: f}, nil
}

// Rides exposes the underlying store for test seeding.
func (f *Factory) Rides() *RideRepository { return f.rides }

// Bookings exposes the underlying store for test seeding.
func (f *Factory) Bookings() *BookingRepository { return f.bookings }

// Ratings exposes the underlying store for test seeding.
func (f *Factory) Ratings() *RatingRepository { return f.ratings }

type unitOfWork struct {
	factory  *Factory
	readOnly bool
	done     bool
}

func (u *unitOfWork) Rides() domainride.Repository       { return u.factory.rides }
func (u *unitOfWork) Bookings() domainbooking.Repository { return u.factory.bookings }
func (u *unitOfWork) Ratings() domainrating.Repository   { return u.factory.ratings }

func (u *unitOfWork) Commit(ctx context.Context) error {
	u.release()
	return nil
}

// Rollback releases the unit. Mutations applied through the repositories are
// not undone; callers that need isolation rely on the write lock keeping
// partial state invisible until the handler finishes.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	u.release()
	return nil
}

func (u *unitOfWork) release() {
	if u.done {
		return
	}
	u.done = true
	if u.readOnly {
		u.factory.mu.RUnlock()
		return
	}
	u.factory.mu.Unlock()
}
