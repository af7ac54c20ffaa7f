package repository

import (
	"context"
	"time"

	"servicehub/internal/domain/aggregate"
)

// PaymentRepository defines persistence operations for payment aggregates
type PaymentRepository interface {
	Save(ctx context.Context, payment *aggregate.Payment) error
	GetByID(ctx context.Context, id string) (*aggregate.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Payment, error)
	GetByPaystackRef(ctx context.Context, reference string) (*aggregate.Payment, error)
	GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Payment, error)
	GetByStatus(ctx context.Context, status aggregate.PaymentStatus) ([]*aggregate.Payment, error)

	// GetStalePending returns PENDING payments created before the cutoff.
	// The reconciler verifies these against the gateway.
	GetStalePending(ctx context.Context, cutoff time.Time) ([]*aggregate.Payment, error)
}
