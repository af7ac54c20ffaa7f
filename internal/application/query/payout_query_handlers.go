package query

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/pkg/errors"
)

// ListPayoutsQuery lists payouts for the admin dashboard, optionally
// filtered by status
type ListPayoutsQuery struct {
	Status string `json:"status,omitempty"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListPayoutsHandler handles admin payout listing
type ListPayoutsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListPayoutsHandler creates a new list payouts handler
func NewListPayoutsHandler(uowFactory repository.UnitOfWorkFactory) *ListPayoutsHandler {
	return &ListPayoutsHandler{uowFactory: uowFactory}
}

// Handle processes the list payouts query
func (h *ListPayoutsHandler) Handle(ctx context.Context, query *ListPayoutsQuery) ([]*PayoutView, error) {
	if query == nil {
		query = &ListPayoutsQuery{}
	}
	offset, limit := clampPage(query.Offset, query.Limit)

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	var payouts []*aggregate.Payout
	var err error

	if query.Status != "" {
		payouts, err = uow.PayoutRepository().GetByStatus(ctx, aggregate.PayoutStatus(query.Status))
	} else {
		payouts, err = uow.PayoutRepository().GetAll(ctx, offset, limit)
	}
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list payouts: %v", err))
	}

	views := make([]*PayoutView, 0, len(payouts))
	for _, p := range payouts {
		views = append(views, NewPayoutView(p))
	}
	return views, nil
}

// ListProviderPayoutsQuery lists the caller's own payouts
type ListProviderPayoutsQuery struct {
	UserID string `json:"-"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListProviderPayoutsHandler handles provider payout listing
type ListProviderPayoutsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListProviderPayoutsHandler creates a new list provider payouts handler
func NewListProviderPayoutsHandler(uowFactory repository.UnitOfWorkFactory) *ListProviderPayoutsHandler {
	return &ListProviderPayoutsHandler{uowFactory: uowFactory}
}

// Handle processes the list provider payouts query
func (h *ListProviderPayoutsHandler) Handle(ctx context.Context, query *ListProviderPayoutsQuery) ([]*PayoutView, error) {
	if query == nil || query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}

	offset, limit := clampPage(query.Offset, query.Limit)

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	provider, err := uow.ProviderRepository().GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, errors.NewForbiddenError("no provider profile for this account")
	}

	payouts, err := uow.PayoutRepository().GetByProviderID(ctx, provider.ID(), offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list payouts: %v", err))
	}

	views := make([]*PayoutView, 0, len(payouts))
	for _, p := range payouts {
		views = append(views, NewPayoutView(p))
	}
	return views, nil
}

// GetPayoutReceiptQuery fetches the money breakdown behind one payout
type GetPayoutReceiptQuery struct {
	PayoutID      string `json:"payout_id"`
	RequesterID   string `json:"-"`
	RequesterRole string `json:"-"`
}

// GetPayoutReceiptHandler builds the receipt for a payout: the booking
// total, the platform fee kept and the net amount the provider gets.
type GetPayoutReceiptHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewGetPayoutReceiptHandler creates a new get payout receipt handler
func NewGetPayoutReceiptHandler(uowFactory repository.UnitOfWorkFactory) *GetPayoutReceiptHandler {
	return &GetPayoutReceiptHandler{uowFactory: uowFactory}
}

// Handle processes the get payout receipt query
func (h *GetPayoutReceiptHandler) Handle(ctx context.Context, query *GetPayoutReceiptQuery) (*PayoutReceipt, error) {
	if query == nil || query.PayoutID == "" {
		return nil, errors.NewValidationError("payout_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	payout, err := uow.PayoutRepository().GetByID(ctx, query.PayoutID)
	if err != nil {
		return nil, errors.NewNotFoundError("payout")
	}

	payment, err := uow.PaymentRepository().GetByID(ctx, payout.PaymentID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}

	booking, err := uow.BookingRepository().GetByID(ctx, payout.BookingID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load booking: %v", err))
	}

	// Both parties to the booking may see the breakdown, besides admins.
	if query.RequesterRole != aggregate.RoleAdmin && booking.ClientID() != query.RequesterID {
		provider, err := uow.ProviderRepository().GetByID(ctx, payout.ProviderID())
		if err != nil || provider.UserID() != query.RequesterID {
			return nil, errors.NewForbiddenError("this payout does not belong to you")
		}
	}

	return &PayoutReceipt{
		Payout:      NewPayoutView(payout),
		TotalAmount: payment.Amount(),
		PlatformFee: payment.PlatformFee(),
		NetAmount:   payment.ProviderAmount(),
		BookingDate: booking.ScheduledDate(),
		ServiceID:   booking.ServiceID(),
	}, nil
}
