package query

import (
	"context"
	"fmt"

	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/cache"
	"servicehub/pkg/errors"
)

// GetProviderQuery fetches one provider profile
type GetProviderQuery struct {
	ProviderID string `json:"provider_id"`
}

// GetProviderHandler handles get provider queries with a cache in front
type GetProviderHandler struct {
	uowFactory repository.UnitOfWorkFactory
	cache      *cache.Cache
}

// NewGetProviderHandler creates a new get provider handler
func NewGetProviderHandler(uowFactory repository.UnitOfWorkFactory, c *cache.Cache) *GetProviderHandler {
	return &GetProviderHandler{uowFactory: uowFactory, cache: c}
}

// Handle processes the get provider query
func (h *GetProviderHandler) Handle(ctx context.Context, query *GetProviderQuery) (*ProviderView, error) {
	if query == nil || query.ProviderID == "" {
		return nil, errors.NewValidationError("provider_id is required")
	}

	key := cache.ProviderKey(query.ProviderID)
	var cached ProviderView
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	provider, err := uow.ProviderRepository().GetByID(ctx, query.ProviderID)
	if err != nil {
		return nil, errors.NewNotFoundError("provider")
	}

	view := NewProviderView(provider)
	h.cache.Set(ctx, key, view)
	return view, nil
}

// ListProvidersQuery lists active providers, optionally filtered by location
type ListProvidersQuery struct {
	Location string `json:"location,omitempty"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// ListProvidersHandler handles provider discovery queries
type ListProvidersHandler struct {
	uowFactory repository.UnitOfWorkFactory
	cache      *cache.Cache
}

// NewListProvidersHandler creates a new list providers handler
func NewListProvidersHandler(uowFactory repository.UnitOfWorkFactory, c *cache.Cache) *ListProvidersHandler {
	return &ListProvidersHandler{uowFactory: uowFactory, cache: c}
}

// Handle processes the list providers query
func (h *ListProvidersHandler) Handle(ctx context.Context, query *ListProvidersQuery) ([]*ProviderView, error) {
	if query == nil {
		query = &ListProvidersQuery{}
	}
	offset, limit := clampPage(query.Offset, query.Limit)

	key := cache.ProviderListKey(query.Location, offset, limit)
	var cached []*ProviderView
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	providers, err := uow.ProviderRepository().List(ctx, query.Location, offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list providers: %v", err))
	}

	views := make([]*ProviderView, 0, len(providers))
	for _, p := range providers {
		views = append(views, NewProviderView(p))
	}

	h.cache.Set(ctx, key, views)
	return views, nil
}

// ListProviderReviewsQuery lists reviews left for a provider
type ListProviderReviewsQuery struct {
	ProviderID string `json:"provider_id"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

// ListProviderReviewsHandler handles list provider reviews queries
type ListProviderReviewsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListProviderReviewsHandler creates a new list provider reviews handler
func NewListProviderReviewsHandler(uowFactory repository.UnitOfWorkFactory) *ListProviderReviewsHandler {
	return &ListProviderReviewsHandler{uowFactory: uowFactory}
}

// Handle processes the list provider reviews query
func (h *ListProviderReviewsHandler) Handle(ctx context.Context, query *ListProviderReviewsQuery) ([]*ReviewView, error) {
	if query == nil || query.ProviderID == "" {
		return nil, errors.NewValidationError("provider_id is required")
	}

	offset, limit := clampPage(query.Offset, query.Limit)

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	reviews, err := uow.ReviewRepository().GetByProviderID(ctx, query.ProviderID, offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list reviews: %v", err))
	}

	views := make([]*ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, NewReviewView(r))
	}
	return views, nil
}
