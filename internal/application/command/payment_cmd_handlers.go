package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/notification"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/internal/metrics"
	"servicehub/pkg/errors"
)

// InitializePaymentHandler starts a gateway checkout for a booking's online
// payment. The payment ID is used as the gateway reference, so retrying the
// call for the same payment reuses the reference instead of opening a second
// checkout.
type InitializePaymentHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	gateway    paystack.Gateway
}

// NewInitializePaymentHandler creates a new initialize payment handler
func NewInitializePaymentHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, gateway paystack.Gateway) *InitializePaymentHandler {
	return &InitializePaymentHandler{uowFactory: uowFactory, eventBus: eventBus, gateway: gateway}
}

// Handle processes the initialize payment command
func (h *InitializePaymentHandler) Handle(ctx context.Context, cmd *InitializePaymentCommand) (*InitializePaymentResponse, error) {
	if cmd == nil || cmd.BookingID == "" {
		return nil, errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	booking, err := uow.BookingRepository().GetByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, errors.NewNotFoundError("booking")
	}
	if booking.ClientID() != cmd.ClientID {
		return nil, errors.NewForbiddenError("only the client who booked can pay for this booking")
	}
	if booking.PaymentMethod() != aggregate.PaymentMethodOnline {
		return nil, errors.NewValidationError("this booking is paid in cash")
	}

	payment, err := uow.PaymentRepository().GetByBookingID(ctx, booking.ID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}
	if payment.Status() != aggregate.PaymentStatusPending {
		return nil, errors.NewUnprocessableError(fmt.Sprintf("payment is not awaiting checkout (status: %s)", payment.Status()))
	}

	// A checkout that was already opened is returned as is. The client may
	// have closed the tab and come back.
	if payment.AuthorizationURL() != "" {
		return &InitializePaymentResponse{
			PaymentID:        payment.ID(),
			Reference:        payment.PaystackRef(),
			AuthorizationURL: payment.AuthorizationURL(),
		}, nil
	}

	client, err := uow.UserRepository().GetByID(ctx, cmd.ClientID)
	if err != nil {
		return nil, errors.NewNotFoundError("user")
	}

	data, err := h.gateway.InitializeTransaction(ctx, &paystack.InitializeRequest{
		Email:       client.Email(),
		Amount:      payment.Amount(),
		Reference:   payment.ID(),
		CallbackURL: cmd.CallbackURL,
	})
	if err != nil {
		if apiErr, ok := err.(*paystack.APIError); ok {
			return nil, errors.NewUnprocessableError(fmt.Sprintf("gateway rejected checkout: %s", apiErr.Message))
		}
		return nil, errors.NewInternalError(fmt.Sprintf("failed to initialize checkout: %v", err))
	}

	if err := payment.AttachCheckout(data.Reference, data.AuthorizationURL); err != nil {
		return nil, errors.NewUnprocessableError(err.Error())
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	events := payment.GetUncommittedEvents()

	if err := uow.PaymentRepository().Save(ctx, payment); err != nil {
		uow.Rollback(ctx)
		if appErr, ok := err.(*errors.ApplicationError); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)

	return &InitializePaymentResponse{
		PaymentID:        payment.ID(),
		Reference:        payment.PaystackRef(),
		AuthorizationURL: payment.AuthorizationURL(),
	}, nil
}

// VerifyPaymentHandler settles a payment against the gateway's verify API.
// The charge webhook and the client's callback redirect both land here, and
// the webhook payload itself is never trusted: the verify call decides.
type VerifyPaymentHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	gateway    paystack.Gateway
	alerter    *notification.TelegramAlerter
}

// NewVerifyPaymentHandler creates a new verify payment handler
func NewVerifyPaymentHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, gateway paystack.Gateway, alerter *notification.TelegramAlerter) *VerifyPaymentHandler {
	return &VerifyPaymentHandler{uowFactory: uowFactory, eventBus: eventBus, gateway: gateway, alerter: alerter}
}

// Handle processes the verify payment command. Replayed webhooks are
// harmless: a payment that already left PENDING is left untouched.
func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd *VerifyPaymentCommand) error {
	if cmd == nil || cmd.Reference == "" {
		return errors.NewValidationError("reference is required")
	}

	data, err := h.gateway.VerifyTransaction(ctx, cmd.Reference)
	if err != nil {
		if paystack.IsNotFound(err) {
			return errors.NewNotFoundError("transaction")
		}
		return errors.NewInternalError(fmt.Sprintf("failed to verify transaction: %v", err))
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByPaystackRef(ctx, cmd.Reference)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("payment")
	}

	if payment.Status() != aggregate.PaymentStatusPending {
		uow.Rollback(ctx)
		return nil
	}

	from := payment.Status()

	switch data.Status {
	case paystack.TransactionSuccess:
		if data.Amount != payment.Amount() {
			uow.Rollback(ctx)
			h.alerter.WebhookMismatch("charge", cmd.Reference,
				fmt.Sprintf("charged %d but payment expects %d", data.Amount, payment.Amount()))
			return errors.NewUnprocessableError("charged amount does not match the payment")
		}
		if err := payment.MarkEscrowed(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
	case paystack.TransactionFailed:
		if err := payment.MarkFailed(data.GatewayResponse); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
	case paystack.TransactionAbandoned:
		if err := payment.MarkAbandoned(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
	default:
		// Still pending at the gateway. Nothing to apply yet.
		uow.Rollback(ctx)
		return nil
	}

	metrics.IncPaymentTransition(string(from), string(payment.Status()))

	events := payment.GetUncommittedEvents()

	if err := paymentRepo.Save(ctx, payment); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}
