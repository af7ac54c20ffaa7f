package mongo

import (
	"context"
	"fmt"
	"strings"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements UserRepository with MongoDB persistence
type MongoUserRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		database:        database,
		collection:      database.Collection("users"),
		eventCollection: database.Collection("user_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoUserRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoUserRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoUserRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoUserRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a user aggregate. The unique email index turns duplicate
// registrations into a conflict.
func (r *MongoUserRepository) Save(ctx context.Context, user *aggregate.User) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, user.ID(), user.Version(), user.GetUncommittedEvents()); err != nil {
		return err
	}

	doc := bson.M{
		"_id":           user.ID(),
		"name":          user.Name(),
		"email":         user.Email(),
		"phone":         user.Phone(),
		"password_hash": user.PasswordHash(),
		"role":          user.Role(),
		"active":        user.IsActive(),
		"version":       user.Version(),
		"created_at":    user.CreatedAt(),
		"updated_at":    user.UpdatedAt(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID()}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError("an account with this email already exists")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	user.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*aggregate.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a user by email
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*aggregate.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// List retrieves users, newest first
func (r *MongoUserRepository) List(ctx context.Context, offset, limit int) ([]*aggregate.User, error) {
	ctx = r.getContext(ctx)

	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*aggregate.User
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, documentToUser(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return users, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*aggregate.User, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return documentToUser(doc), nil
}

func documentToUser(doc bson.M) *aggregate.User {
	return aggregate.ReconstructUser(
		getString(doc, "_id"),
		getString(doc, "name"),
		getString(doc, "email"),
		getString(doc, "phone"),
		getString(doc, "password_hash"),
		getString(doc, "role"),
		getBool(doc, "active"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
