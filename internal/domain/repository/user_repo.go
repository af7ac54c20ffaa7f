package repository

import (
	"context"

	"servicehub/internal/domain/aggregate"
)

// UserRepository defines persistence operations for user aggregates.
// A unique index on email prevents duplicate registrations.
type UserRepository interface {
	Save(ctx context.Context, user *aggregate.User) error
	GetByID(ctx context.Context, id string) (*aggregate.User, error)
	GetByEmail(ctx context.Context, email string) (*aggregate.User, error)
	List(ctx context.Context, offset, limit int) ([]*aggregate.User, error)
}
