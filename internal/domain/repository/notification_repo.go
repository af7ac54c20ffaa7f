package repository

import (
	"context"
	"time"
)

// Notification is a read-model row written by the event dispatcher and
// read back by the notifications endpoint. It is not an aggregate.
type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Type      string    `bson:"type" json:"type"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	RefID     string    `bson:"ref_id,omitempty" json:"ref_id,omitempty"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NotificationRepository stores per-user notifications
type NotificationRepository interface {
	Insert(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}
