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

// MongoPayoutRepository implements PayoutRepository with MongoDB persistence
type MongoPayoutRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoPayoutRepository creates a new MongoDB payout repository
func NewMongoPayoutRepository(database *mongo.Database) *MongoPayoutRepository {
	return &MongoPayoutRepository{
		database:        database,
		collection:      database.Collection("payouts"),
		eventCollection: database.Collection("payout_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoPayoutRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoPayoutRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoPayoutRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoPayoutRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a payout aggregate. The unique index on payment_id makes a
// second payout for the same payment a conflict, which is how double
// releases die even under concurrency.
func (r *MongoPayoutRepository) Save(ctx context.Context, payout *aggregate.Payout) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, payout.ID(), payout.Version(), payout.GetUncommittedEvents()); err != nil {
		return err
	}

	bank := payout.Bank()
	doc := bson.M{
		"_id":         payout.ID(),
		"provider_id": payout.ProviderID(),
		"payment_id":  payout.PaymentID(),
		"booking_id":  payout.BookingID(),
		"amount":      payout.Amount(),
		"bank_account": bson.M{
			"bank_code":      bank.BankCode,
			"bank_name":      bank.BankName,
			"account_number": bank.AccountNumber,
			"account_name":   bank.AccountName,
			"recipient_code": bank.RecipientCode,
		},
		"status":        string(payout.Status()),
		"transfer_code": payout.TransferCode(),
		"fail_reason":   payout.FailReason(),
		"processed_at":  payout.ProcessedAt(),
		"completed_at":  payout.CompletedAt(),
		"version":       payout.Version(),
		"created_at":    payout.CreatedAt(),
		"updated_at":    payout.UpdatedAt(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": payout.ID()}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("a payout already exists for this payment")
		}
		return fmt.Errorf("failed to save payout: %w", err)
	}

	payout.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a payout by ID
func (r *MongoPayoutRepository) GetByID(ctx context.Context, id string) (*aggregate.Payout, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByPaymentID retrieves the payout funded by a payment
func (r *MongoPayoutRepository) GetByPaymentID(ctx context.Context, paymentID string) (*aggregate.Payout, error) {
	return r.findOne(ctx, bson.M{"payment_id": paymentID})
}

// GetByTransferCode retrieves a payout by gateway transfer code
func (r *MongoPayoutRepository) GetByTransferCode(ctx context.Context, transferCode string) (*aggregate.Payout, error) {
	return r.findOne(ctx, bson.M{"transfer_code": transferCode})
}

// GetByProviderID retrieves payouts for a provider, newest first
func (r *MongoPayoutRepository) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Payout, error) {
	return r.find(ctx, bson.M{"provider_id": providerID}, offset, limit)
}

// GetByStatus retrieves all payouts with a specific status
func (r *MongoPayoutRepository) GetByStatus(ctx context.Context, status aggregate.PayoutStatus) ([]*aggregate.Payout, error) {
	return r.find(ctx, bson.M{"status": string(status)}, 0, 0)
}

// GetAll retrieves payouts across all providers, newest first
func (r *MongoPayoutRepository) GetAll(ctx context.Context, offset, limit int) ([]*aggregate.Payout, error) {
	return r.find(ctx, bson.M{}, offset, limit)
}

func (r *MongoPayoutRepository) findOne(ctx context.Context, filter bson.M) (*aggregate.Payout, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("payout")
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}

	return documentToPayout(doc), nil
}

func (r *MongoPayoutRepository) find(ctx context.Context, filter bson.M, offset, limit int) ([]*aggregate.Payout, error) {
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
		return nil, fmt.Errorf("failed to find payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var payouts []*aggregate.Payout
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode payout: %w", err)
		}
		payouts = append(payouts, documentToPayout(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return payouts, nil
}

func documentToPayout(doc bson.M) *aggregate.Payout {
	var bank aggregate.BankAccount
	if bankDoc, ok := getDoc(doc, "bank_account"); ok {
		bank = aggregate.BankAccount{
			BankCode:      getString(bankDoc, "bank_code"),
			BankName:      getString(bankDoc, "bank_name"),
			AccountNumber: getString(bankDoc, "account_number"),
			AccountName:   getString(bankDoc, "account_name"),
			RecipientCode: getString(bankDoc, "recipient_code"),
		}
	}

	return aggregate.ReconstructPayout(
		getString(doc, "_id"),
		getString(doc, "provider_id"),
		getString(doc, "payment_id"),
		getString(doc, "booking_id"),
		getInt64(doc, "amount"),
		bank,
		aggregate.PayoutStatus(getString(doc, "status")),
		getString(doc, "transfer_code"),
		getString(doc, "fail_reason"),
		getTime(doc, "processed_at"),
		getTime(doc, "completed_at"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
