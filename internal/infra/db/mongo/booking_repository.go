package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "carpool/internal/domain/booking"
	domainride "carpool/internal/domain/ride"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRide(ctx context.Context, rideID domainride.RideID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"ride_id": string(rideID)}, bson.D{{Key: "created_at", Value: 1}})
}

func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"passenger_id": passengerID}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *BookingRepository) DeleteByRide(ctx context.Context, rideID domainride.RideID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"ride_id": string(rideID)})
	return err
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M, sort bson.D) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	bookings := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		bookings = append(bookings, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

type bookingDocument struct {
	ID            string `bson:"_id"`
	RideID        string `bson:"ride_id"`
	PassengerID   string `bson:"passenger_id"`
	Seats         int    `bson:"seats"`
	State         string `bson:"state"`
	PassengerNote string `bson:"passenger_note"`
	DriverNote    string `bson:"driver_note"`
	CreatedAt     int64  `bson:"created_at"`
	AcceptedAt    int64  `bson:"accepted_at"`
	RejectedAt    int64  `bson:"rejected_at"`
	CancelledAt   int64  `bson:"cancelled_at"`
	CompletedAt   int64  `bson:"completed_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	Version       int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		RideID:        string(b.RideID),
		PassengerID:   b.PassengerID,
		Seats:         b.Seats,
		State:         string(b.State),
		PassengerNote: b.PassengerNote,
		DriverNote:    b.DriverNote,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		AcceptedAt:    timeToTimestamp(b.AcceptedAt),
		RejectedAt:    timeToTimestamp(b.RejectedAt),
		CancelledAt:   timeToTimestamp(b.CancelledAt),
		CompletedAt:   timeToTimestamp(b.CompletedAt),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		RideID:        domainride.RideID(d.RideID),
		PassengerID:   d.PassengerID,
		Seats:         d.Seats,
		State:         domainbooking.BookingState(d.State),
		PassengerNote: d.PassengerNote,
		DriverNote:    d.DriverNote,
		CreatedAt:     timestampToTime(d.CreatedAt),
		AcceptedAt:    timestampToOptionalTime(d.AcceptedAt),
		RejectedAt:    timestampToOptionalTime(d.RejectedAt),
		CancelledAt:   timestampToOptionalTime(d.CancelledAt),
		CompletedAt:   timestampToOptionalTime(d.CompletedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}
