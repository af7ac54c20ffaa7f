package repository

import (
	"context"

	"servicehub/internal/domain/aggregate"
)

// PayoutRepository defines persistence operations for payout aggregates.
// A unique index on payment_id guarantees at most one payout per payment.
type PayoutRepository interface {
	Save(ctx context.Context, payout *aggregate.Payout) error
	GetByID(ctx context.Context, id string) (*aggregate.Payout, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*aggregate.Payout, error)
	GetByTransferCode(ctx context.Context, transferCode string) (*aggregate.Payout, error)
	GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Payout, error)
	GetByStatus(ctx context.Context, status aggregate.PayoutStatus) ([]*aggregate.Payout, error)
	GetAll(ctx context.Context, offset, limit int) ([]*aggregate.Payout, error)
}
