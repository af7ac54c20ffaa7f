package repository

import (
	"context"

	"servicehub/internal/domain/aggregate"
)

// ReviewRepository defines persistence operations for reviews.
// A unique index on booking_id allows one review per booking.
type ReviewRepository interface {
	Save(ctx context.Context, review *aggregate.Review) error
	GetByID(ctx context.Context, id string) (*aggregate.Review, error)
	GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Review, error)
	GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Review, error)
}
