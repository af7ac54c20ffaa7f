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

// SubmitReviewHandler records a review for a completed booking and folds the
// rating into the provider's running average in the same transaction. The
// unique index on booking_id keeps it to one review per booking.
type SubmitReviewHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	cache      *cache.Cache
}

// NewSubmitReviewHandler creates a new submit review handler
func NewSubmitReviewHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, c *cache.Cache) *SubmitReviewHandler {
	return &SubmitReviewHandler{uowFactory: uowFactory, eventBus: eventBus, cache: c}
}

// Handle processes the submit review command
func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd *SubmitReviewCommand) (*SubmitReviewResponse, error) {
	if cmd == nil || cmd.BookingID == "" {
		return nil, errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	booking, err := uow.BookingRepository().GetByID(ctx, cmd.BookingID)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewNotFoundError("booking")
	}
	if booking.ClientID() != cmd.ClientID {
		uow.Rollback(ctx)
		return nil, errors.NewForbiddenError("only the client who booked can review it")
	}
	if booking.Status() != aggregate.BookingStatusCompleted {
		uow.Rollback(ctx)
		return nil, errors.NewUnprocessableError("only completed bookings can be reviewed")
	}

	review, err := aggregate.NewReview(booking.ID(), cmd.ClientID, booking.ProviderID(), cmd.Rating, cmd.Comment)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	providerRepo := uow.ProviderRepository()
	provider, err := providerRepo.GetByID(ctx, booking.ProviderID())
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load provider: %v", err))
	}
	if err := provider.AddRating(booking.ID(), cmd.Rating); err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	events := append(review.GetUncommittedEvents(), provider.GetUncommittedEvents()...)

	if err := uow.ReviewRepository().Save(ctx, review); err != nil {
		uow.Rollback(ctx)
		if appErr, ok := err.(*errors.ApplicationError); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save review: %v", err))
	}

	if err := providerRepo.Save(ctx, provider); err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save provider: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.cache.Invalidate(ctx, cache.ProviderKey(provider.ID()), "providers:list:*")
	h.eventBus.PublishBatch(ctx, events)

	return &SubmitReviewResponse{ReviewID: review.ID()}, nil
}
