package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carpool/internal/app/uow"
	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	RidesRepo    domainride.Repository
	BookingsRepo domainbooking.Repository
	RatingsRepo  domainrating.Repository
}

// NewFactory builds a factory with the default Mongo repositories.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		RidesRepo:    NewRideRepository(db),
		BookingsRepo: NewBookingRepository(db),
		RatingsRepo:  NewRatingRepository(db),
	}
}

// Begin starts a MongoDB session and transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:  session,
		rides:    f.RidesRepo,
		bookings: f.BookingsRepo,
		ratings:  f.RatingsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	rides    domainride.Repository
	bookings domainbooking.Repository
	ratings  domainrating.Repository
}

func (u *Unit) Rides() domainride.Repository {
	return u.rides
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Ratings() domainrating.Repository {
	return u.ratings
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session visible to repository calls made
// through this unit.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
