package query

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/pkg/errors"
)

// GetBookingQuery fetches one booking. RequesterID and RequesterRole drive
// the ownership check: clients and providers only see their own bookings,
// admins see everything.
type GetBookingQuery struct {
	BookingID     string `json:"booking_id"`
	RequesterID   string `json:"-"`
	RequesterRole string `json:"-"`
}

// GetBookingHandler handles get booking queries
type GetBookingHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewGetBookingHandler creates a new get booking handler
func NewGetBookingHandler(uowFactory repository.UnitOfWorkFactory) *GetBookingHandler {
	return &GetBookingHandler{uowFactory: uowFactory}
}

// Handle processes the get booking query
func (h *GetBookingHandler) Handle(ctx context.Context, query *GetBookingQuery) (*BookingView, error) {
	if query == nil || query.BookingID == "" {
		return nil, errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	booking, err := uow.BookingRepository().GetByID(ctx, query.BookingID)
	if err != nil {
		return nil, errors.NewNotFoundError("booking")
	}

	if !mayViewBooking(ctx, uow, booking, query.RequesterID, query.RequesterRole) {
		return nil, errors.NewForbiddenError("you are not a party to this booking")
	}

	return NewBookingView(booking), nil
}

// ListClientBookingsQuery lists a client's bookings, newest first
type ListClientBookingsQuery struct {
	ClientID string `json:"-"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// ListClientBookingsHandler handles list client bookings queries
type ListClientBookingsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListClientBookingsHandler creates a new list client bookings handler
func NewListClientBookingsHandler(uowFactory repository.UnitOfWorkFactory) *ListClientBookingsHandler {
	return &ListClientBookingsHandler{uowFactory: uowFactory}
}

// Handle processes the list client bookings query
func (h *ListClientBookingsHandler) Handle(ctx context.Context, query *ListClientBookingsQuery) ([]*BookingView, error) {
	if query == nil || query.ClientID == "" {
		return nil, errors.NewValidationError("client_id is required")
	}

	offset, limit := clampPage(query.Offset, query.Limit)

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	bookings, err := uow.BookingRepository().GetByClientID(ctx, query.ClientID, offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list bookings: %v", err))
	}

	views := make([]*BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b))
	}
	return views, nil
}

// ListProviderBookingsQuery lists bookings assigned to the caller's
// provider profile
type ListProviderBookingsQuery struct {
	UserID string `json:"-"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListProviderBookingsHandler handles list provider bookings queries
type ListProviderBookingsHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewListProviderBookingsHandler creates a new list provider bookings handler
func NewListProviderBookingsHandler(uowFactory repository.UnitOfWorkFactory) *ListProviderBookingsHandler {
	return &ListProviderBookingsHandler{uowFactory: uowFactory}
}

// Handle processes the list provider bookings query
func (h *ListProviderBookingsHandler) Handle(ctx context.Context, query *ListProviderBookingsQuery) ([]*BookingView, error) {
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

	bookings, err := uow.BookingRepository().GetByProviderID(ctx, provider.ID(), offset, limit)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to list bookings: %v", err))
	}

	views := make([]*BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b))
	}
	return views, nil
}

// GetBookingPaymentQuery fetches the payment behind a booking
type GetBookingPaymentQuery struct {
	BookingID     string `json:"booking_id"`
	RequesterID   string `json:"-"`
	RequesterRole string `json:"-"`
}

// GetBookingPaymentHandler handles get booking payment queries
type GetBookingPaymentHandler struct {
	uowFactory repository.UnitOfWorkFactory
}

// NewGetBookingPaymentHandler creates a new get booking payment handler
func NewGetBookingPaymentHandler(uowFactory repository.UnitOfWorkFactory) *GetBookingPaymentHandler {
	return &GetBookingPaymentHandler{uowFactory: uowFactory}
}

// Handle processes the get booking payment query
func (h *GetBookingPaymentHandler) Handle(ctx context.Context, query *GetBookingPaymentQuery) (*PaymentView, error) {
	if query == nil || query.BookingID == "" {
		return nil, errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	booking, err := uow.BookingRepository().GetByID(ctx, query.BookingID)
	if err != nil {
		return nil, errors.NewNotFoundError("booking")
	}
	if !mayViewBooking(ctx, uow, booking, query.RequesterID, query.RequesterRole) {
		return nil, errors.NewForbiddenError("you are not a party to this booking")
	}

	payment, err := uow.PaymentRepository().GetByBookingID(ctx, query.BookingID)
	if err != nil {
		return nil, errors.NewNotFoundError("payment")
	}

	return NewPaymentView(payment), nil
}

// mayViewBooking reports whether the requester is the client, the assigned
// provider's user, or an admin.
func mayViewBooking(ctx context.Context, uow repository.UnitOfWork, booking *aggregate.Booking, requesterID, role string) bool {
	if role == aggregate.RoleAdmin {
		return true
	}
	if booking.ClientID() == requesterID {
		return true
	}
	if booking.ProviderID() == "" {
		return false
	}
	provider, err := uow.ProviderRepository().GetByID(ctx, booking.ProviderID())
	if err != nil {
		return false
	}
	return provider.UserID() == requesterID
}
