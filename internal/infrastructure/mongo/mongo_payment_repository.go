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

// MongoPaymentRepository implements PaymentRepository with MongoDB persistence
type MongoPaymentRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoPaymentRepository creates a new MongoDB payment repository
func NewMongoPaymentRepository(database *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{
		database:        database,
		collection:      database.Collection("payments"),
		eventCollection: database.Collection("payment_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoPaymentRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoPaymentRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoPaymentRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoPaymentRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a payment aggregate. The unique index on booking_id rejects
// a second payment for the same booking.
func (r *MongoPaymentRepository) Save(ctx context.Context, payment *aggregate.Payment) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, payment.ID(), payment.Version(), payment.GetUncommittedEvents()); err != nil {
		return err
	}

	doc := bson.M{
		"_id":               payment.ID(),
		"booking_id":        payment.BookingID(),
		"client_id":         payment.ClientID(),
		"provider_id":       payment.ProviderID(),
		"amount":            payment.Amount(),
		"platform_fee":      payment.PlatformFee(),
		"method":            string(payment.Method()),
		"status":            string(payment.Status()),
		"paystack_ref":      payment.PaystackRef(),
		"authorization_url": payment.AuthorizationURL(),
		"paid_at":           payment.PaidAt(),
		"released_at":       payment.ReleasedAt(),
		"version":           payment.Version(),
		"created_at":        payment.CreatedAt(),
		"updated_at":        payment.UpdatedAt(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": payment.ID()}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("a payment already exists for this booking")
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}

	payment.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a payment by ID
func (r *MongoPaymentRepository) GetByID(ctx context.Context, id string) (*aggregate.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByBookingID retrieves the payment for a booking
func (r *MongoPaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Payment, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

// GetByPaystackRef retrieves a payment by gateway reference
func (r *MongoPaymentRepository) GetByPaystackRef(ctx context.Context, reference string) (*aggregate.Payment, error) {
	return r.findOne(ctx, bson.M{"paystack_ref": reference})
}

// GetByClientID retrieves payments for a client, newest first
func (r *MongoPaymentRepository) GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Payment, error) {
	ctx = r.getContext(ctx)

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	return decodePayments(ctx, cursor)
}

// GetByStatus retrieves all payments with a specific status
func (r *MongoPaymentRepository) GetByStatus(ctx context.Context, status aggregate.PaymentStatus) ([]*aggregate.Payment, error) {
	ctx = r.getContext(ctx)

	cursor, err := r.collection.Find(ctx, bson.M{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("failed to find payments by status: %w", err)
	}
	defer cursor.Close(ctx)

	return decodePayments(ctx, cursor)
}

// GetStalePending returns PENDING payments created before the cutoff
func (r *MongoPaymentRepository) GetStalePending(ctx context.Context, cutoff time.Time) ([]*aggregate.Payment, error) {
	ctx = r.getContext(ctx)

	filter := bson.M{
		"status":     string(aggregate.PaymentStatusPending),
		"created_at": bson.M{"$lt": cutoff},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending payments: %w", err)
	}
	defer cursor.Close(ctx)

	return decodePayments(ctx, cursor)
}

func (r *MongoPaymentRepository) findOne(ctx context.Context, filter bson.M) (*aggregate.Payment, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("payment")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return documentToPayment(doc), nil
}

func decodePayments(ctx context.Context, cursor *mongo.Cursor) ([]*aggregate.Payment, error) {
	var payments []*aggregate.Payment
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode payment: %w", err)
		}
		payments = append(payments, documentToPayment(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return payments, nil
}

func documentToPayment(doc bson.M) *aggregate.Payment {
	return aggregate.ReconstructPayment(
		getString(doc, "_id"),
		getString(doc, "booking_id"),
		getString(doc, "client_id"),
		getString(doc, "provider_id"),
		getInt64(doc, "amount"),
		getInt64(doc, "platform_fee"),
		aggregate.PaymentMethod(getString(doc, "method")),
		aggregate.PaymentStatus(getString(doc, "status")),
		getString(doc, "paystack_ref"),
		getString(doc, "authorization_url"),
		getTime(doc, "paid_at"),
		getTime(doc, "released_at"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
