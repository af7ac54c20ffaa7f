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

// MongoProviderRepository implements ProviderRepository with MongoDB persistence
type MongoProviderRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoProviderRepository creates a new MongoDB provider repository
func NewMongoProviderRepository(database *mongo.Database) *MongoProviderRepository {
	return &MongoProviderRepository{
		database:        database,
		collection:      database.Collection("providers"),
		eventCollection: database.Collection("provider_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoProviderRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoProviderRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoProviderRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoProviderRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a provider aggregate
func (r *MongoProviderRepository) Save(ctx context.Context, provider *aggregate.Provider) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, provider.ID(), provider.Version(), provider.GetUncommittedEvents()); err != nil {
		return err
	}

	doc := bson.M{
		"_id":           provider.ID(),
		"user_id":       provider.UserID(),
		"business_name": provider.BusinessName(),
		"description":   provider.Description(),
		"location":      provider.Location(),
		"photo_url":     provider.PhotoURL(),
		"rating_sum":    provider.RatingSum(),
		"rating_count":  provider.RatingCount(),
		"active":        provider.IsActive(),
		"version":       provider.Version(),
		"created_at":    provider.CreatedAt(),
		"updated_at":    provider.UpdatedAt(),
	}

	if bank := provider.BankAccount(); bank != nil {
		doc["bank_account"] = bson.M{
			"bank_code":      bank.BankCode,
			"bank_name":      bank.BankName,
			"account_number": bank.AccountNumber,
			"account_name":   bank.AccountName,
			"recipient_code": bank.RecipientCode,
		}
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": provider.ID()}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("a provider profile already exists for this user")
		}
		return fmt.Errorf("failed to save provider: %w", err)
	}

	provider.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a provider by ID
func (r *MongoProviderRepository) GetByID(ctx context.Context, id string) (*aggregate.Provider, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUserID retrieves the provider profile owned by a user
func (r *MongoProviderRepository) GetByUserID(ctx context.Context, userID string) (*aggregate.Provider, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

// List retrieves active providers, optionally filtered by location
func (r *MongoProviderRepository) List(ctx context.Context, location string, offset, limit int) ([]*aggregate.Provider, error) {
	ctx = r.getContext(ctx)

	filter := bson.M{"active": true}
	if location != "" {
		filter["location"] = location
	}

	opts := options.Find().SetSort(bson.D{{Key: "rating_sum", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*aggregate.Provider
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode provider: %w", err)
		}
		providers = append(providers, documentToProvider(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return providers, nil
}

func (r *MongoProviderRepository) findOne(ctx context.Context, filter bson.M) (*aggregate.Provider, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("provider")
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return documentToProvider(doc), nil
}

func documentToProvider(doc bson.M) *aggregate.Provider {
	var bank *aggregate.BankAccount
	if bankDoc, ok := getDoc(doc, "bank_account"); ok {
		bank = &aggregate.BankAccount{
			BankCode:      getString(bankDoc, "bank_code"),
			BankName:      getString(bankDoc, "bank_name"),
			AccountNumber: getString(bankDoc, "account_number"),
			AccountName:   getString(bankDoc, "account_name"),
			RecipientCode: getString(bankDoc, "recipient_code"),
		}
	}

	return aggregate.ReconstructProvider(
		getString(doc, "_id"),
		getString(doc, "user_id"),
		getString(doc, "business_name"),
		getString(doc, "description"),
		getString(doc, "location"),
		getString(doc, "photo_url"),
		bank,
		getInt64(doc, "rating_sum"),
		getInt64(doc, "rating_count"),
		getBool(doc, "active"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
