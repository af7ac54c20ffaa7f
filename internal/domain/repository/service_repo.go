package repository

import (
	"context"

	"servicehub/internal/domain/aggregate"
)

// ServiceRepository defines persistence operations for service aggregates
type ServiceRepository interface {
	Save(ctx context.Context, service *aggregate.Service) error
	GetByID(ctx context.Context, id string) (*aggregate.Service, error)
	GetByProviderID(ctx context.Context, providerID string) ([]*aggregate.Service, error)
	List(ctx context.Context, category string, offset, limit int) ([]*aggregate.Service, error)
}
