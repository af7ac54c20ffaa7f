package mongo

import (
	"context"
	"fmt"

	"servicehub/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepository stores notification read-model rows. It is
// written outside command transactions, so it carries no session support.
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoDB notification repository
func NewMongoNotificationRepository(database *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{
		collection: database.Collection("notifications"),
	}
}

// Insert stores a notification
func (r *MongoNotificationRepository) Insert(ctx context.Context, notification *repository.Notification) error {
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetByUserID retrieves notifications for a user, newest first
func (r *MongoNotificationRepository) GetByUserID(ctx context.Context, userID string, offset, limit int) ([]*repository.Notification, error) {
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*repository.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead marks a notification as read. Scoped by user so one user cannot
// touch another's rows.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// CountUnread returns the number of unread notifications for a user
func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
