package mongo

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepository implements BookingRepository with MongoDB persistence
type MongoBookingRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoBookingRepository creates a new MongoDB booking repository
func NewMongoBookingRepository(database *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{
		database:        database,
		collection:      database.Collection("bookings"),
		eventCollection: database.Collection("booking_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoBookingRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoBookingRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoBookingRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoBookingRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a booking aggregate
func (r *MongoBookingRepository) Save(ctx context.Context, booking *aggregate.Booking) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, booking.ID(), booking.Version(), booking.GetUncommittedEvents()); err != nil {
		return err
	}

	doc := bson.M{
		"_id":               booking.ID(),
		"client_id":         booking.ClientID(),
		"provider_id":       booking.ProviderID(),
		"service_id":        booking.ServiceID(),
		"catalogue_item_id": booking.CatalogueItemID(),
		"scheduled_date":    booking.ScheduledDate(),
		"duration":          booking.Duration(),
		"address":           booking.Address(),
		"notes":             booking.Notes(),
		"total_amount":      booking.TotalAmount(),
		"platform_fee":      booking.PlatformFee(),
		"payment_method":    string(booking.PaymentMethod()),
		"status":            string(booking.Status()),
		"version":           booking.Version(),
		"created_at":        booking.CreatedAt(),
		"updated_at":        booking.UpdatedAt(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": booking.ID()}, doc, opts); err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	booking.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a booking by ID
func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*aggregate.Booking, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("booking")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return documentToBooking(doc), nil
}

// GetByClientID retrieves bookings for a client, newest first
func (r *MongoBookingRepository) GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Booking, error) {
	return r.find(ctx, bson.M{"client_id": clientID}, offset, limit)
}

// GetByProviderID retrieves bookings for a provider, newest first
func (r *MongoBookingRepository) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Booking, error) {
	return r.find(ctx, bson.M{"provider_id": providerID}, offset, limit)
}

// GetByStatus retrieves all bookings with a specific status
func (r *MongoBookingRepository) GetByStatus(ctx context.Context, status aggregate.BookingStatus) ([]*aggregate.Booking, error) {
	return r.find(ctx, bson.M{"status": string(status)}, 0, 0)
}

// FindOverlapping returns active provider bookings overlapping [start, end).
// A booking overlaps when it starts before the window ends and ends after
// the window starts.
func (r *MongoBookingRepository) FindOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]*aggregate.Booking, error) {
	ctx = r.getContext(ctx)

	filter := bson.M{
		"provider_id": providerID,
		"status": bson.M{"$nin": bson.A{
			string(aggregate.BookingStatusCancelled),
			string(aggregate.BookingStatusCompleted),
		}},
		"scheduled_date": bson.M{"$lt": end},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*aggregate.Booking
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		booking := documentToBooking(doc)
		if booking.EndTime().After(start) {
			bookings = append(bookings, booking)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return bookings, nil
}

func (r *MongoBookingRepository) find(ctx context.Context, filter bson.M, offset, limit int) ([]*aggregate.Booking, error) {
	ctx = r.getContext(ctx)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*aggregate.Booking
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, documentToBooking(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return bookings, nil
}

func documentToBooking(doc bson.M) *aggregate.Booking {
	return aggregate.ReconstructBooking(
		getString(doc, "_id"),
		getString(doc, "client_id"),
		getString(doc, "provider_id"),
		getString(doc, "service_id"),
		getString(doc, "catalogue_item_id"),
		getTime(doc, "scheduled_date"),
		getInt(doc, "duration"),
		getString(doc, "address"),
		getString(doc, "notes"),
		getInt64(doc, "total_amount"),
		getInt64(doc, "platform_fee"),
		aggregate.PaymentMethod(getString(doc, "payment_method")),
		aggregate.BookingStatus(getString(doc, "status")),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
