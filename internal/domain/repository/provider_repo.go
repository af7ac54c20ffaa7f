package repository

import (
	"context"

	"servicehub/internal/domain/aggregate"
)

// ProviderRepository defines persistence operations for provider aggregates
type ProviderRepository interface {
	Save(ctx context.Context, provider *aggregate.Provider) error
	GetByID(ctx context.Context, id string) (*aggregate.Provider, error)
	GetByUserID(ctx context.Context, userID string) (*aggregate.Provider, error)
	List(ctx context.Context, location string, offset, limit int) ([]*aggregate.Provider, error)
}
