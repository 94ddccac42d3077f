package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainride "carpool/internal/domain/ride"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type RideRepository struct {
	col *mongo.Collection
}

func NewRideRepository(db *mongo.Database) *RideRepository {
	return &RideRepository{col: db.Collection("agg_ride")}
}

func (r *RideRepository) ByID(ctx context.Context, id domainride.RideID) (*domainride.Ride, error) {
	var doc rideDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainride.ErrRideNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RideRepository) Save(ctx context.Context, rd *domainride.Ride) error {
	doc := newRideDocument(rd)
	filter := bson.M{"_id": doc.ID, "version": rd.Version}
	doc.Version = rd.Version + 1
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
	rd.Version = doc.Version
	return nil
}

func (r *RideRepository) Delete(ctx context.Context, id domainride.RideID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainride.ErrRideNotFound
	}
	return nil
}

func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domainride.Ride, error) {
	cursor, err := r.col.Find(ctx, bson.M{"driver_id": driverID},
		options.Find().SetSort(bson.D{{Key: "departure_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeRides(ctx, cursor)
}

func (r *RideRepository) Search(ctx context.Context, params domainride.SearchParams) (domainride.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyScheduled {
		filter["state"] = string(domainride.StateScheduled)
	} else if len(opts.States) > 0 {
		states := make([]string, 0, len(opts.States))
		for _, s := range opts.States {
			states = append(states, string(s))
		}
		filter["state"] = bson.M{"$in": states}
	}
	if opts.Driver != "" {
		filter["driver_id"] = opts.Driver
	}
	if opts.Origin != "" {
		filter["origin_fold"] = bson.M{"$regex": regexp.QuoteMeta(opts.Origin)}
	}
	if opts.Destination != "" {
		filter["destination_fold"] = bson.M{"$regex": regexp.QuoteMeta(opts.Destination)}
	}
	departure := bson.M{}
	if !opts.DepartsAfter.IsZero() {
		departure["$gte"] = opts.DepartsAfter.UnixMilli()
	}
	if !opts.DepartsBefore.IsZero() {
		departure["$lte"] = opts.DepartsBefore.UnixMilli()
	}
	if len(departure) > 0 {
		filter["departure_at"] = departure
	}
	if opts.MinSeats > 0 {
		filter["capacity"] = bson.M{"$gte": opts.MinSeats}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainride.SearchResult{}, err
	}

	findOpts := options.Find().
		SetSort(searchSort(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainride.SearchResult{}, err
	}
	items, err := decodeRides(ctx, cursor)
	if err != nil {
		return domainride.SearchResult{}, err
	}
	return domainride.SearchResult{Items: items, Total: int(total)}, nil
}

func searchSort(sort domainride.SearchSort) bson.D {
	switch sort {
	case domainride.SortByPriceAsc:
		return bson.D{{Key: "seat_price_cents", Value: 1}, {Key: "departure_at", Value: 1}}
	case domainride.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "departure_at", Value: 1}, {Key: "seat_price_cents", Value: 1}}
	}
}

func decodeRides(ctx context.Context, cursor *mongo.Cursor) ([]*domainride.Ride, error) {
	defer cursor.Close(ctx)
	rides := make([]*domainride.Ride, 0)
	for cursor.Next(ctx) {
		var doc rideDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		rides = append(rides, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return rides, nil
}

type rideDocument struct {
	ID              string `bson:"_id"`
	DriverID        string `bson:"driver_id"`
	VehicleID       string `bson:"vehicle_id"`
	Origin          string `bson:"origin"`
	OriginFold      string `bson:"origin_fold"`
	Destination     string `bson:"destination"`
	DestinationFold string `bson:"destination_fold"`
	DepartureAt     int64  `bson:"departure_at"`
	ArrivalAt       int64  `bson:"arrival_at"`
	Capacity        int    `bson:"capacity"`
	SeatPriceCents  int64  `bson:"seat_price_cents"`
	AutoAccept      bool   `bson:"auto_accept"`
	State           string `bson:"state"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newRideDocument(rd *domainride.Ride) rideDocument {
	return rideDocument{
		ID:              string(rd.ID),
		DriverID:        rd.DriverID,
		VehicleID:       rd.VehicleID,
		Origin:          rd.Origin,
		OriginFold:      foldPlace(rd.Origin),
		Destination:     rd.Destination,
		DestinationFold: foldPlace(rd.Destination),
		DepartureAt:     rd.DepartureAt.UnixMilli(),
		ArrivalAt:       timeToTimestamp(rd.ArrivalAt),
		Capacity:        rd.Capacity,
		SeatPriceCents:  rd.SeatPriceCents,
		AutoAccept:      rd.AutoAccept,
		State:           string(rd.State),
		CreatedAt:       rd.CreatedAt.UnixMilli(),
		UpdatedAt:       rd.UpdatedAt.UnixMilli(),
		Version:         rd.Version,
	}
}

func (d rideDocument) toAggregate() *domainride.Ride {
	return &domainride.Ride{
		ID:             domainride.RideID(d.ID),
		DriverID:       d.DriverID,
		VehicleID:      d.VehicleID,
		Origin:         d.Origin,
		Destination:    d.Destination,
		DepartureAt:    timestampToTime(d.DepartureAt),
		ArrivalAt:      timestampToOptionalTime(d.ArrivalAt),
		Capacity:       d.Capacity,
		SeatPriceCents: d.SeatPriceCents,
		AutoAccept:     d.AutoAccept,
		State:          domainride.RideState(d.State),
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}

// foldPlace stores a case-folded copy of a place name so substring search
// stays index friendly without collation tricks.
func foldPlace(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timestampToOptionalTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
