package mongo

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReviewRepository implements ReviewRepository with MongoDB persistence
type MongoReviewRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoReviewRepository creates a new MongoDB review repository
func NewMongoReviewRepository(database *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{
		database:        database,
		collection:      database.Collection("reviews"),
		eventCollection: database.Collection("review_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoReviewRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoReviewRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoReviewRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoReviewRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save inserts a review. The unique index on booking_id rejects a second
// review for the same booking.
func (r *MongoReviewRepository) Save(ctx context.Context, review *aggregate.Review) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, review.ID(), review.Version(), review.GetUncommittedEvents()); err != nil {
		return err
	}

	doc := bson.M{
		"_id":         review.ID(),
		"booking_id":  review.BookingID(),
		"client_id":   review.ClientID(),
		"provider_id": review.ProviderID(),
		"rating":      review.Rating(),
		"comment":     review.Comment(),
		"version":     review.Version(),
		"created_at":  review.CreatedAt(),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("this booking has already been reviewed")
		}
		return fmt.Errorf("failed to save review: %w", err)
	}

	review.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a review by ID
func (r *MongoReviewRepository) GetByID(ctx context.Context, id string) (*aggregate.Review, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByBookingID retrieves the review for a booking
func (r *MongoReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Review, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

// GetByProviderID retrieves reviews for a provider, newest first
func (r *MongoReviewRepository) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Review, error) {
	ctx = r.getContext(ctx)

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []*aggregate.Review
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode review: %w", err)
		}
		reviews = append(reviews, documentToReview(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return reviews, nil
}

func (r *MongoReviewRepository) findOne(ctx context.Context, filter bson.M) (*aggregate.Review, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return documentToReview(doc), nil
}

func documentToReview(doc bson.M) *aggregate.Review {
	return aggregate.ReconstructReview(
		getString(doc, "_id"),
		getString(doc, "booking_id"),
		getString(doc, "client_id"),
		getString(doc, "provider_id"),
		getInt(doc, "rating"),
		getString(doc, "comment"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
	)
}
