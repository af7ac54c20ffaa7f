package query

import (
	"context"
	"fmt"

	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/cache"
	"servicehub/pkg/errors"
)

// GetServiceQuery fetches one service offering
type GetServiceQuery struct {
	ServiceID string `json:"service_id"`
}

// GetServiceHandler handles get service queries with a cache in front
type GetServiceHandler struct {
	uowFactory repository.UnitOfWorkFactory
	cache      *cache.Cache
}

// NewGetServiceHandler creates a new get service handler
func NewGetServiceHandler(uowFactory repository.UnitOfWorkFactory, c *cache.Cache) *GetServiceHandler {
	return &GetServiceHandler{uowFactory: uowFactory, cache: c}
}

// Handle processes the get service query
func (h *GetServiceHandler) Handle(ctx context.Context, query *GetServiceQuery) (*ServiceView, error) {
	if query == nil || query.ServiceID == "" {
		return nil, errors.NewValidationError("service_id is required")
	}

	key := cache.ServiceKey(query.ServiceID)
	var cached ServiceView
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	service, err := uow.ServiceRepository().GetByID(ctx, query.ServiceID)
	if err != nil {
		return nil, errors.NewNotFoundError("service")
	}

	view := NewServiceView(service)
	h.cache.Set(ctx, key, view)
	return view, nil
}

// ListServicesQuery lists active services, optionally filtered by category
type ListServicesQuery struct {
	Category string `json:"category,omitempty"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// ListServicesHandler handles service discovery queries
type ListServicesHandler struct {
	uowFactory repository.UnitOfWorkFactory
	cache      *cache.Cache
}

// NewListServicesHandler creates a new list services handler
func NewListServicesHandler(uowFactory repository.UnitOfWorkFactory, c *cache.Cache) *ListServicesHandler {
	return &ListServicesHandler{uowFactory: uowFactory, cache: c}
}

// Handle processes the list services query
func (h *ListServicesHandler) Handle(ctx context.Context, query *ListServicesQuery) ([]*ServiceView, error) {
	if query == nil {
		query = &ListServicesQuery{}
	}
	offset, limit := clampPage(query.Offset, query.Limit)

	key := cache.ServiceListKey(query.Category, offset, limit)
	var cached []*ServiceView
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	services, err := uow.ServiceRepository().List(ctx, query.Category, offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list services: %v", err))
	}

	views := make([]*ServiceView, 0, len(services))
	for _, s := range services {
		views = append(views, NewServiceView(s))
	}

	h.cache.Set(ctx, key, views)
	return views, nil
}

// ListProviderServicesQuery lists everything one provider offers
type ListProviderServicesQuery struct {
	ProviderID string `json:"provider_id"`
}

// ListProviderServicesHandler handles list provider services queries
type ListProviderServicesHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListProviderServicesHandler creates a new list provider services handler
func NewListProviderServicesHandler(uowFactory repository.UnitOfWorkFactory) *ListProviderServicesHandler {
	return &ListProviderServicesHandler{uowFactory: uowFactory}
}

// Handle processes the list provider services query
func (h *ListProviderServicesHandler) Handle(ctx context.Context, query *ListProviderServicesQuery) ([]*ServiceView, error) {
	if query == nil || query.ProviderID == "" {
		return nil, errors.NewValidationError("provider_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	services, err := uow.ServiceRepository().GetByProviderID(ctx, query.ProviderID)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list services: %v", err))
	}

	views := make([]*ServiceView, 0, len(services))
	for _, s := range services {
		views = append(views, NewServiceView(s))
	}
	return views, nil
}
