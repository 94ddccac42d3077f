package uow

import (
	"context"

	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Every
// capacity-sensitive write runs its read-check-write sequence against one
// unit so two concurrent requests for the same ride cannot both win the last
// seat.
type UnitOfWork interface {
	Rides() domainride.Repository
	Bookings() domainbooking.Repository
	Ratings() domainrating.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
