package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/cache"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/pkg/errors"
)

// RegisterProviderHandler creates a provider profile for an existing user
// and promotes the user's role in the same transaction.
type RegisterProviderHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewRegisterProviderHandler creates a new register provider handler
func NewRegisterProviderHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *RegisterProviderHandler {
	return &RegisterProviderHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Handle processes the register provider command
func (h *RegisterProviderHandler) Handle(ctx context.Context, cmd *RegisterProviderCommand) (*RegisterProviderResponse, error) {
	if cmd == nil || cmd.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	userRepo := uow.UserRepository()
	user, err := userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewNotFoundError("user")
	}

	if _, err := uow.ProviderRepository().GetByUserID(ctx, cmd.UserID); err == nil {
		uow.Rollback(ctx)
		return nil, errors.NewConflictError("a provider profile already exists for this account")
	}

	provider, err := aggregate.NewProvider(cmd.UserID, cmd.BusinessName, cmd.Description, cmd.Location)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	if user.Role() == aggregate.RoleClient {
		if err := user.PromoteToProvider(); err != nil {
			uow.Rollback(ctx)
			return nil, errors.NewForbiddenError(err.Error())
		}
		if err := userRepo.Save(ctx, user); err != nil {
			uow.Rollback(ctx)
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save user: %v", err))
		}
	}

	events := provider.GetUncommittedEvents()

	if err := uow.ProviderRepository().Save(ctx, provider); err != nil {
		uow.Rollback(ctx)
		if appErr, ok := err.(*errors.ApplicationError); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save provider: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)

	return &RegisterProviderResponse{ProviderID: provider.ID()}, nil
}

// UpdateProviderProfileHandler updates the provider's public profile
type UpdateProviderProfileHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewUpdateProviderProfileHandler creates a new update provider profile handler
func NewUpdateProviderProfileHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *UpdateProviderProfileHandler {
	return &UpdateProviderProfileHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the update provider profile command
func (h *UpdateProviderProfileHandler) Handle(ctx context.Context, cmd *UpdateProviderProfileCommand) error {
	if cmd == nil || cmd.ProviderID == "" {
		return errors.NewValidationError("provider_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	provider, err := loadOwnedProvider(ctx, uow, cmd.ProviderID, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	if err := provider.UpdateProfile(cmd.BusinessName, cmd.Description, cmd.Location); err != nil {
		uow.Rollback(ctx)
		return errors.NewValidationError(err.Error())
	}

	events := provider.GetUncommittedEvents()

	if err := uow.ProviderRepository().Save(ctx, provider); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save provider: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ProviderKey(provider.ID()), "providers:list:*")
	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// SetProviderPhotoHandler stores the uploaded profile photo URL
type SetProviderPhotoHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewSetProviderPhotoHandler creates a new set provider photo handler
func NewSetProviderPhotoHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *SetProviderPhotoHandler {
	return &SetProviderPhotoHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the set provider photo command
func (h *SetProviderPhotoHandler) Handle(ctx context.Context, cmd *SetProviderPhotoCommand) error {
	if cmd == nil || cmd.ProviderID == "" || cmd.PhotoURL == "" {
		return errors.NewValidationError("provider_id and photo URL are required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	provider, err := loadOwnedProvider(ctx, uow, cmd.ProviderID, cmd.UserID)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	if err := provider.SetPhoto(cmd.PhotoURL); err != nil {
		uow.Rollback(ctx)
		return errors.NewValidationError(err.Error())
	}

	events := provider.GetUncommittedEvents()

	if err := uow.ProviderRepository().Save(ctx, provider); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save provider: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ProviderKey(provider.ID()), "providers:list:*")
	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// UpdateBankAccountHandler sets the provider's payout destination. The bank
// details are registered with the gateway first; the returned recipient code
// is what transfers are later sent to.
type UpdateBankAccountHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	gateway    paystack.Gateway
	cache      *cache.Cache
}

// NewUpdateBankAccountHandler creates a new update bank account handler
func NewUpdateBankAccountHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, gateway paystack.Gateway, c *cache.Cache) *UpdateBankAccountHandler {
	return &UpdateBankAccountHandler{uowFactory: uowFactory, eventBus: eventBus, gateway: gateway, cache: c}
}

// Handle processes the update bank account command
func (h *UpdateBankAccountHandler) Handle(ctx context.Context, cmd *UpdateBankAccountCommand) error {
	if cmd == nil || cmd.ProviderID == "" {
		return errors.NewValidationError("provider_id is required")
	}

	bank := aggregate.BankAccount{
		BankCode:      cmd.BankCode,
		BankName:      cmd.BankName,
		AccountNumber: cmd.AccountNumber,
		AccountName:   cmd.AccountName,
	}
	if err := bank.Validate(); err != nil {
		return errors.NewValidationError(err.Error())
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	provider, err := loadOwnedProvider(ctx, uow, cmd.ProviderID, cmd.UserID)
	if err != nil {
		return err
	}

	recipientCode, err := h.gateway.CreateTransferRecipient(ctx, &paystack.RecipientRequest{
		Name:          cmd.AccountName,
		AccountNumber: cmd.AccountNumber,
		BankCode:      cmd.BankCode,
	})
	if err != nil {
		if paystack.IsClientError(err) {
			return errors.NewUnprocessableError("the gateway rejected these bank details")
		}
		return errors.NewInternalError(fmt.Sprintf("failed to register transfer recipient: %v", err))
	}
	bank.RecipientCode = recipientCode

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	if err := provider.SetBankAccount(bank); err != nil {
		uow.Rollback(ctx)
		return errors.NewValidationError(err.Error())
	}

	events := provider.GetUncommittedEvents()

	if err := uow.ProviderRepository().Save(ctx, provider); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save provider: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ProviderKey(provider.ID()))
	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// loadOwnedProvider loads a provider and checks the caller owns the profile.
func loadOwnedProvider(ctx context.Context, uow repository.UnitOfWork, providerID, userID string) (*aggregate.Provider, error) {
	provider, err := uow.ProviderRepository().GetByID(ctx, providerID)
	if err != nil {
		return nil, errors.NewNotFoundError("provider")
	}
	if provider.UserID() != userID {
		return nil, errors.NewForbiddenError("you do not own this provider profile")
	}
	return provider, nil
}
