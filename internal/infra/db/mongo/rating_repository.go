package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
)

// RatingRepository keeps one document per (booking, rater); the _id encodes
// the pair so a concurrent double submit degenerates into a duplicate key.
type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection("agg_rating")}
}

func (r *RatingRepository) ByBookingRater(ctx context.Context, bookingID domainbooking.BookingID, raterID string) (*domainrating.Rating, error) {
	var doc ratingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": ratingDocID(bookingID, raterID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrating.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RatingRepository) ListByRated(ctx context.Context, ratedID string) ([]*domainrating.Rating, error) {
	cursor, err := r.col.Find(ctx, bson.M{"rated_id": ratedID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	ratings := make([]*domainrating.Rating, 0)
	for cursor.Next(ctx) {
		var doc ratingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ratings = append(ratings, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *RatingRepository) Save(ctx context.Context, rt *domainrating.Rating) error {
	doc := newRatingDocument(rt)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func ratingDocID(bookingID domainbooking.BookingID, raterID string) string {
	return string(bookingID) + ":" + raterID
}

type ratingDocument struct {
	ID        string `bson:"_id"`
	RatingID  string `bson:"rating_id"`
	BookingID string `bson:"booking_id"`
	RaterID   string `bson:"rater_id"`
	RatedID   string `bson:"rated_id"`
	Score     int    `bson:"score"`
	Comment   string `bson:"comment"`
	CreatedAt int64  `bson:"created_at"`
}

func newRatingDocument(rt *domainrating.Rating) ratingDocument {
	return ratingDocument{
		ID:        ratingDocID(rt.BookingID, rt.RaterID),
		RatingID:  string(rt.ID),
		BookingID: string(rt.BookingID),
		RaterID:   rt.RaterID,
		RatedID:   rt.RatedID,
		Score:     rt.Score,
		Comment:   rt.Comment,
		CreatedAt: rt.CreatedAt.UnixMilli(),
	}
}

func (d ratingDocument) toAggregate() *domainrating.Rating {
	return &domainrating.Rating{
		ID:        domainrating.RatingID(d.RatingID),
		BookingID: domainbooking.BookingID(d.BookingID),
		RaterID:   d.RaterID,
		RatedID:   d.RatedID,
		Score:     d.Score,
		Comment:   d.Comment,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
