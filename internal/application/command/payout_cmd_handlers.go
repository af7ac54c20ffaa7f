package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/event"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/notification"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/internal/metrics"
	"servicehub/pkg/errors"
)

// ProcessPayoutHandler initiates the gateway transfer for a pending payout.
// Admin only. The payout ID is sent as the transfer reference, so a retried
// command cannot pay the provider twice.
type ProcessPayoutHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	gateway    paystack.Gateway
}

// NewProcessPayoutHandler creates a new process payout handler
func NewProcessPayoutHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, gateway paystack.Gateway) *ProcessPayoutHandler {
	return &ProcessPayoutHandler{uowFactory: uowFactory, eventBus: eventBus, gateway: gateway}
}

// Handle processes the process payout command
func (h *ProcessPayoutHandler) Handle(ctx context.Context, cmd *ProcessPayoutCommand) error {
	if cmd == nil || cmd.PayoutID == "" {
		return errors.NewValidationError("payout_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	payout, err := uow.PayoutRepository().GetByID(ctx, cmd.PayoutID)
	if err != nil {
		return errors.NewNotFoundError("payout")
	}

	switch payout.Status() {
	case aggregate.PayoutStatusPending, aggregate.PayoutStatusFailed:
	case aggregate.PayoutStatusProcessing:
		return errors.NewConflictError("a transfer for this payout is already in flight")
	default:
		return errors.NewConflictError("payout is already settled")
	}

	bank := payout.Bank()
	if bank.RecipientCode == "" {
		return errors.NewUnprocessableError("no transfer recipient is registered for this payout")
	}

	// The payment must still be releasable before any money moves. A FAILED
	// payout usually means its last transfer was compensated and the payment
	// sits back in escrow; the release is re-applied below so the settlement
	// finds the states it expects.
	payment, err := uow.PaymentRepository().GetByID(ctx, payout.PaymentID())
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}
	switch payment.Status() {
	case aggregate.PaymentStatusProcessingRelease, aggregate.PaymentStatusEscrow:
	default:
		return errors.NewConflictError(fmt.Sprintf("payment is not releasable (status: %s)", payment.Status()))
	}

	data, err := h.gateway.InitiateTransfer(ctx, &paystack.TransferRequest{
		Amount:    payout.Amount(),
		Recipient: bank.RecipientCode,
		Reason:    "booking payout " + payout.BookingID(),
		Reference: payout.ID(),
	})
	if err != nil {
		return h.recordTransferFailure(ctx, uow, payout, err)
	}

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	var events []event.DomainEvent

	if payment.Status() == aggregate.PaymentStatusEscrow {
		releaseEvents, err := reapplyRelease(ctx, uow, payout, payment)
		if err != nil {
			uow.Rollback(ctx)
			return err
		}
		events = append(events, releaseEvents...)
	}

	if err := payout.MarkAsProcessing(data.TransferCode); err != nil {
		uow.Rollback(ctx)
		return errors.NewUnprocessableError(err.Error())
	}

	// Small transfers can settle synchronously. Finish the release now
	// instead of waiting for a webhook that already fired.
	var settleEvents []event.DomainEvent
	if data.Status == paystack.TransferSuccess {
		if err := payout.MarkAsCompleted(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
		settleEvents, err = settleReleasedPayment(ctx, uow, payout)
		if err != nil {
			uow.Rollback(ctx)
			return err
		}
	}

	events = append(events, payout.GetUncommittedEvents()...)
	events = append(events, settleEvents...)

	if err := uow.PayoutRepository().Save(ctx, payout); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save payout: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// recordTransferFailure marks the payout FAILED so the admin dashboard shows
// it, then surfaces the gateway error to the caller.
func (h *ProcessPayoutHandler) recordTransferFailure(ctx context.Context, uow repository.UnitOfWork, payout *aggregate.Payout, gatewayErr error) error {
	reason := gatewayErr.Error()
	if apiErr, ok := gatewayErr.(*paystack.APIError); ok {
		reason = apiErr.Message
	}

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}
	if err := payout.MarkAsFailed(reason); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("transfer failed and could not be recorded: %v", gatewayErr))
	}

	events := payout.GetUncommittedEvents()

	if err := uow.PayoutRepository().Save(ctx, payout); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save payout: %v", err))
	}
	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)

	if paystack.IsClientError(gatewayErr) {
		return errors.NewUnprocessableError(fmt.Sprintf("gateway rejected transfer: %s", reason))
	}
	return errors.NewInternalError(fmt.Sprintf("failed to initiate transfer: %s", reason))
}

// MarkPayoutPaidHandler settles a payout the admin paid outside the gateway,
// by hand. The payment and booking are closed out in the same transaction.
type MarkPayoutPaidHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewMarkPayoutPaidHandler creates a new mark payout paid handler
func NewMarkPayoutPaidHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *MarkPayoutPaidHandler {
	return &MarkPayoutPaidHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Handle processes the mark payout paid command
func (h *MarkPayoutPaidHandler) Handle(ctx context.Context, cmd *MarkPayoutPaidCommand) error {
	if cmd == nil || cmd.PayoutID == "" {
		return errors.NewValidationError("payout_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	payoutRepo := uow.PayoutRepository()
	payout, err := payoutRepo.GetByID(ctx, cmd.PayoutID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("payout")
	}
	if payout.Status() == aggregate.PayoutStatusCompleted {
		uow.Rollback(ctx)
		return errors.NewConflictError("payout is already settled")
	}

	payment, err := uow.PaymentRepository().GetByID(ctx, payout.PaymentID())
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}

	var events []event.DomainEvent

	// A compensated transfer leaves the payment back in escrow; settling the
	// payout by hand re-applies the release first so all three rows close.
	if payment.Status() == aggregate.PaymentStatusEscrow {
		releaseEvents, err := reapplyRelease(ctx, uow, payout, payment)
		if err != nil {
			uow.Rollback(ctx)
			return err
		}
		events = append(events, releaseEvents...)
	}

	if err := payout.MarkAsPaidManually(); err != nil {
		uow.Rollback(ctx)
		return errors.NewUnprocessableError(err.Error())
	}

	settleEvents, err := settleReleasedPayment(ctx, uow, payout)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	events = append(events, payout.GetUncommittedEvents()...)
	events = append(events, settleEvents...)

	if err := payoutRepo.Save(ctx, payout); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save payout: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// SettleTransferHandler applies a transfer webhook outcome. Success finishes
// the release; failure or reversal compensates it, returning the payment to
// escrow so the release can be retried.
type SettleTransferHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
	alerter    *notification.TelegramAlerter
}

// NewSettleTransferHandler creates a new settle transfer handler
func NewSettleTransferHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus, alerter *notification.TelegramAlerter) *SettleTransferHandler {
	return &SettleTransferHandler{uowFactory: uowFactory, eventBus: eventBus, alerter: alerter}
}

// Handle processes the settle transfer command. Replayed webhooks for an
// already settled payout are ignored.
func (h *SettleTransferHandler) Handle(ctx context.Context, cmd *SettleTransferCommand) error {
	if cmd == nil || cmd.TransferCode == "" {
		return errors.NewValidationError("transfer_code is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	payoutRepo := uow.PayoutRepository()
	payout, err := payoutRepo.GetByTransferCode(ctx, cmd.TransferCode)
	if err != nil {
		uow.Rollback(ctx)
		h.alerter.WebhookMismatch("transfer", cmd.TransferCode, "no payout for this transfer code")
		return errors.NewNotFoundError("payout")
	}

	if payout.Status() == aggregate.PayoutStatusCompleted || payout.Status() == aggregate.PayoutStatusFailed {
		uow.Rollback(ctx)
		return nil
	}

	var events []event.DomainEvent
	var rolledBack bool

	switch cmd.Status {
	case paystack.TransferSuccess:
		if err := payout.MarkAsCompleted(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
		settleEvents, err := settleReleasedPayment(ctx, uow, payout)
		if err != nil {
			uow.Rollback(ctx)
			return err
		}
		events = append(payout.GetUncommittedEvents(), settleEvents...)

	case paystack.TransferFailed, paystack.TransferReversed:
		if err := payout.MarkAsFailed(cmd.Reason); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
		rollbackEvents, err := rollbackRelease(ctx, uow, payout, cmd.Reason)
		if err != nil {
			uow.Rollback(ctx)
			return err
		}
		events = append(payout.GetUncommittedEvents(), rollbackEvents...)
		rolledBack = true

	default:
		// Still pending at the gateway.
		uow.Rollback(ctx)
		return nil
	}

	if err := payoutRepo.Save(ctx, payout); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save payout: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	if rolledBack {
		h.alerter.ReleaseRolledBack(payout.PaymentID(), cmd.Reason)
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// settleReleasedPayment closes out the payment and booking behind a payout
// that just settled. Events are captured before the saves commit them.
func settleReleasedPayment(ctx context.Context, uow repository.UnitOfWork, payout *aggregate.Payout) ([]event.DomainEvent, error) {
	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByID(ctx, payout.PaymentID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}

	var events []event.DomainEvent

	if payment.Status() == aggregate.PaymentStatusProcessingRelease {
		if err := payment.MarkReleased(); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncPaymentTransition(string(aggregate.PaymentStatusProcessingRelease), string(payment.Status()))

		events = append(events, payment.GetUncommittedEvents()...)
		if err := paymentRepo.Save(ctx, payment); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
		}
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, payout.BookingID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load booking: %v", err))
	}

	if booking.Status() == aggregate.BookingStatusPaymentProcessing {
		if err := booking.Complete(); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncBookingTransition(string(aggregate.BookingStatusPaymentProcessing), string(booking.Status()))

		events = append(events, booking.GetUncommittedEvents()...)
		if err := bookingRepo.Save(ctx, booking); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
		}
	}

	return events, nil
}

// reapplyRelease puts a compensated release back in flight before a payout
// retry: the payment returns to PROCESSING_RELEASE and the booking to
// PAYMENT_PROCESSING so the transfer settlement finds them where it expects.
func reapplyRelease(ctx context.Context, uow repository.UnitOfWork, payout *aggregate.Payout, payment *aggregate.Payment) ([]event.DomainEvent, error) {
	if err := payment.BeginRelease(); err != nil {
		return nil, errors.NewUnprocessableError(err.Error())
	}
	metrics.IncPaymentTransition(string(aggregate.PaymentStatusEscrow), string(payment.Status()))

	events := append([]event.DomainEvent(nil), payment.GetUncommittedEvents()...)
	if err := uow.PaymentRepository().Save(ctx, payment); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, payout.BookingID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load booking: %v", err))
	}

	if booking.Status() == aggregate.BookingStatusAwaitingConfirmation {
		if err := booking.BeginPaymentProcessing(); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncBookingTransition(string(aggregate.BookingStatusAwaitingConfirmation), string(booking.Status()))

		events = append(events, booking.GetUncommittedEvents()...)
		if err := bookingRepo.Save(ctx, booking); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
		}
	}

	return events, nil
}

// rollbackRelease compensates a failed transfer: the payment returns to
// escrow and the booking to awaiting confirmation, so the client's next
// confirmation retries the release.
func rollbackRelease(ctx context.Context, uow repository.UnitOfWork, payout *aggregate.Payout, reason string) ([]event.DomainEvent, error) {
	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByID(ctx, payout.PaymentID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}

	var events []event.DomainEvent

	if payment.Status() == aggregate.PaymentStatusProcessingRelease {
		if err := payment.RollbackRelease(reason); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncPaymentTransition(string(aggregate.PaymentStatusProcessingRelease), string(payment.Status()))

		events = append(events, payment.GetUncommittedEvents()...)
		if err := paymentRepo.Save(ctx, payment); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
		}
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, payout.BookingID())
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to load booking: %v", err))
	}

	if booking.Status() == aggregate.BookingStatusPaymentProcessing {
		if err := booking.RevertToAwaitingConfirmation(reason); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncBookingTransition(string(aggregate.BookingStatusPaymentProcessing), string(booking.Status()))

		events = append(events, booking.GetUncommittedEvents()...)
		if err := bookingRepo.Save(ctx, booking); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
		}
	}

	return events, nil
}
