package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/cache"
	"servicehub/pkg/errors"
)

// CreateServiceHandler creates a service offering under the caller's
// provider profile.
type CreateServiceHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewCreateServiceHandler creates a new create service handler
func NewCreateServiceHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *CreateServiceHandler {
	return &CreateServiceHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the create service command
func (h *CreateServiceHandler) Handle(ctx context.Context, cmd *CreateServiceCommand) (*CreateServiceResponse, error) {
	if cmd == nil || cmd.Name == "" {
		return nil, errors.NewValidationError("name is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	provider, err := uow.ProviderRepository().GetByUserID(ctx, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewForbiddenError("no provider profile for this account")
	}
	if !provider.IsActive() {
		uow.Rollback(ctx)
		return nil, errors.NewForbiddenError("provider profile is deactivated")
	}

	service, err := aggregate.NewService(
		provider.ID(), cmd.Name, cmd.Description, cmd.Category,
		cmd.HourlyRate, toCatalogueItems(cmd.Catalogue),
	)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	events := service.GetUncommittedEvents()

	if err := uow.ServiceRepository().Save(ctx, service); err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save service: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, "services:list:*")
	h.eventBus.PublishBatch(ctx, events)

	return &CreateServiceResponse{ServiceID: service.ID()}, nil
}

// UpdateServiceHandler replaces the mutable fields of a service
type UpdateServiceHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewUpdateServiceHandler creates a new update service handler
func NewUpdateServiceHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *UpdateServiceHandler {
	return &UpdateServiceHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the update service command
func (h *UpdateServiceHandler) Handle(ctx context.Context, cmd *UpdateServiceCommand) error {
	if cmd == nil || cmd.ServiceID == "" {
		return errors.NewValidationError("service_id is required")
	}

	return h.mutateService(ctx, cmd.ServiceID, cmd.UserID, func(service *aggregate.Service) error {
		return service.Update(cmd.Name, cmd.Description, cmd.Category, cmd.HourlyRate, toCatalogueItems(cmd.Catalogue))
	})
}

func (h *UpdateServiceHandler) mutateService(ctx context.Context, serviceID, userID string, mutate func(*aggregate.Service) error) error {
	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	service, err := loadOwnedService(ctx, uow, serviceID, userID)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	if err := mutate(service); err != nil {
		uow.Rollback(ctx)
		return errors.NewValidationError(err.Error())
	}

	events := service.GetUncommittedEvents()

	if err := uow.ServiceRepository().Save(ctx, service); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save service: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ServiceKey(serviceID), "services:list:*")
	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// SetImage processes the set service image command
func (h *UpdateServiceHandler) SetImage(ctx context.Context, cmd *SetServiceImageCommand) error {
	if cmd == nil || cmd.ServiceID == "" || cmd.ImageURL == "" {
		return errors.NewValidationError("service_id and image URL are required")
	}

	return h.mutateService(ctx, cmd.ServiceID, cmd.UserID, func(service *aggregate.Service) error {
		return service.SetImage(cmd.ImageURL)
	})
}

// DeactivateServiceHandler removes a service from discovery. Existing
// bookings are unaffected.
type DeactivateServiceHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewDeactivateServiceHandler creates a new deactivate service handler
func NewDeactivateServiceHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *DeactivateServiceHandler {
	return &DeactivateServiceHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the deactivate service command
func (h *DeactivateServiceHandler) Handle(ctx context.Context, cmd *DeactivateServiceCommand) error {
	if cmd == nil || cmd.ServiceID == "" {
		return errors.NewValidationError("service_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	service, err := loadOwnedService(ctx, uow, cmd.ServiceID, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	if err := service.Deactivate(); err != nil {
		uow.Rollback(ctx)
		return errors.NewUnprocessableError(err.Error())
	}

	events := service.GetUncommittedEvents()

	if err := uow.ServiceRepository().Save(ctx, service); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save service: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ServiceKey(cmd.ServiceID), "services:list:*")
	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// loadOwnedService loads a service and checks the caller's provider profile
// owns it.
func loadOwnedService(ctx context.Context, uow repository.UnitOfWork, serviceID, userID string) (*aggregate.Service, error) {
	service, err := uow.ServiceRepository().GetByID(ctx, serviceID)
	if err != nil {
		return nil, errors.NewNotFoundError("service")
	}

	provider, err := uow.ProviderRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewForbiddenError("no provider profile for this account")
	}
	if service.ProviderID() != provider.ID() {
		return nil, errors.NewForbiddenError("you do not own this service")
	}
	return service, nil
}

func toCatalogueItems(inputs []CatalogueItemInput) []aggregate.ServiceCatalogueItem {
	if len(inputs) == 0 {
		return nil
	}
	items := make([]aggregate.ServiceCatalogueItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, aggregate.ServiceCatalogueItem{
			Name:     in.Name,
			Price:    in.Price,
			Duration: in.Duration,
		})
	}
	return items
}
