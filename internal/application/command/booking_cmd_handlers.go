package command

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/event"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/metrics"
	"servicehub/pkg/errors"
)

// CreateBookingHandler creates a booking together with its payment record.
// Both rows land in one transaction so a booking can never exist without a
// payment to settle it.
type CreateBookingHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewCreateBookingHandler creates a new create booking handler
func NewCreateBookingHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *CreateBookingHandler {
	return &CreateBookingHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Handle processes the create booking command
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd *CreateBookingCommand) (*CreateBookingResponse, error) {
	if cmd == nil {
		return nil, errors.NewValidationError("command cannot be nil")
	}
	if cmd.ServiceID == "" {
		return nil, errors.NewValidationError("service_id is required")
	}
	if cmd.ScheduledDate.IsZero() {
		return nil, errors.NewValidationError("scheduled_date is required")
	}

	method := aggregate.PaymentMethod(cmd.PaymentMethod)
	if method != aggregate.PaymentMethodOnline && method != aggregate.PaymentMethodCash {
		return nil, errors.NewValidationError("payment_method must be ONLINE or CASH")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	service, err := uow.ServiceRepository().GetByID(ctx, cmd.ServiceID)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewNotFoundError("service")
	}
	if !service.IsActive() {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError("service is no longer available")
	}

	provider, err := uow.ProviderRepository().GetByID(ctx, service.ProviderID())
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewNotFoundError("provider")
	}
	if provider.UserID() == cmd.ClientID {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError("you cannot book your own service")
	}

	amount, duration, err := service.PriceFor(cmd.CatalogueItemID, cmd.Duration)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	// An online booking must leave the provider a transferable payout after
	// the fee, otherwise the release would fail at the very end.
	if method == aggregate.PaymentMethodOnline && aggregate.ProviderAmount(amount) < aggregate.MinPayoutAmount {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError("booking total is too small for online payment, choose cash instead")
	}

	booking, err := aggregate.NewBooking(
		cmd.ClientID, provider.ID(), service.ID(), cmd.CatalogueItemID,
		cmd.ScheduledDate, duration, cmd.Address, cmd.Notes, amount, method,
	)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	// Slot conflict check happens inside the transaction, after the price
	// is fixed, so two clients racing for the same window cannot both win.
	overlapping, err := uow.BookingRepository().FindOverlapping(ctx, provider.ID(), booking.ScheduledDate(), booking.EndTime())
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewInternalError(fmt.Sprintf("failed to check availability: %v", err))
	}
	if len(overlapping) > 0 {
		uow.Rollback(ctx)
		return nil, errors.NewConflictError("the provider is already booked for this time slot")
	}

	payment, err := aggregate.NewPayment(booking.ID(), cmd.ClientID, provider.ID(), amount, method)
	if err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewValidationError(err.Error())
	}

	// Capture events before Save; a successful save commits them.
	events := append(booking.GetUncommittedEvents(), payment.GetUncommittedEvents()...)

	if err := uow.BookingRepository().Save(ctx, booking); err != nil {
		uow.Rollback(ctx)
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
	}

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

	return &CreateBookingResponse{
		BookingID:   booking.ID(),
		PaymentID:   payment.ID(),
		TotalAmount: booking.TotalAmount(),
		PlatformFee: booking.PlatformFee(),
		Status:      string(booking.Status()),
	}, nil
}

// ProviderBookingHandler groups the provider-side booking transitions:
// accept, decline, start, finish and cash confirmation.
type ProviderBookingHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewProviderBookingHandler creates a new provider booking handler
func NewProviderBookingHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *ProviderBookingHandler {
	return &ProviderBookingHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Accept processes the accept booking command
func (h *ProviderBookingHandler) Accept(ctx context.Context, cmd *AcceptBookingCommand) error {
	return h.withBooking(ctx, cmd.BookingID, cmd.UserID, func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error) {
		if err := booking.Accept(providerID); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}

		// Online bookings wait for escrow funds before work may start.
		if booking.PaymentMethod() == aggregate.PaymentMethodOnline {
			payment, err := uow.PaymentRepository().GetByBookingID(ctx, booking.ID())
			if err != nil {
				return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
			}
			if payment.Status() != aggregate.PaymentStatusEscrow {
				if err := booking.MarkPendingExecution(); err != nil {
					return nil, errors.NewUnprocessableError(err.Error())
				}
			}
		}
		return nil, nil
	})
}

// Decline processes the decline booking command
func (h *ProviderBookingHandler) Decline(ctx context.Context, cmd *DeclineBookingCommand) error {
	return h.withBooking(ctx, cmd.BookingID, cmd.UserID, func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error) {
		if err := booking.Decline(providerID, cmd.Reason); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		return settleCancelledPayment(ctx, uow, booking)
	})
}

// Start processes the start job command. Online jobs cannot start until the
// payment is safely in escrow.
func (h *ProviderBookingHandler) Start(ctx context.Context, cmd *StartJobCommand) error {
	return h.withBooking(ctx, cmd.BookingID, cmd.UserID, func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error) {
		if booking.PaymentMethod() == aggregate.PaymentMethodOnline {
			payment, err := uow.PaymentRepository().GetByBookingID(ctx, booking.ID())
			if err != nil {
				return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
			}
			if payment.Status() != aggregate.PaymentStatusEscrow {
				return nil, errors.NewUnprocessableError("payment must be in escrow before the job can start")
			}
		}

		if err := booking.Start(providerID); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		return nil, nil
	})
}

// Finish processes the finish job command
func (h *ProviderBookingHandler) Finish(ctx context.Context, cmd *FinishJobCommand) error {
	return h.withBooking(ctx, cmd.BookingID, cmd.UserID, func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error) {
		if err := booking.Finish(providerID); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		return nil, nil
	})
}

// ConfirmCashReceived processes the cash receipt confirmation
func (h *ProviderBookingHandler) ConfirmCashReceived(ctx context.Context, cmd *ConfirmCashReceivedCommand) error {
	return h.withBooking(ctx, cmd.BookingID, cmd.UserID, func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error) {
		if booking.ProviderID() != providerID {
			return nil, errors.NewForbiddenError("only the assigned provider can confirm cash receipt")
		}

		paymentRepo := uow.PaymentRepository()
		payment, err := paymentRepo.GetByBookingID(ctx, booking.ID())
		if err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
		}

		from := payment.Status()
		if err := payment.ConfirmCashReceived(); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
		metrics.IncPaymentTransition(string(from), string(payment.Status()))

		events := payment.GetUncommittedEvents()
		if err := paymentRepo.Save(ctx, payment); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
		}
		return events, nil
	})
}

// withBooking runs fn against a booking inside a transaction, resolving the
// caller's provider profile first, then saves the booking, commits and
// publishes the events. fn may return extra events from other aggregates
// it touched.
func (h *ProviderBookingHandler) withBooking(
	ctx context.Context,
	bookingID, userID string,
	fn func(uow repository.UnitOfWork, booking *aggregate.Booking, providerID string) ([]event.DomainEvent, error),
) error {
	if bookingID == "" {
		return errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	provider, err := uow.ProviderRepository().GetByUserID(ctx, userID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewForbiddenError("no provider profile for this account")
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("booking")
	}

	from := booking.Status()
	extraEvents, err := fn(uow, booking, provider.ID())
	if err != nil {
		uow.Rollback(ctx)
		return err
	}
	if booking.Status() != from {
		metrics.IncBookingTransition(string(from), string(booking.Status()))
	}

	events := append(booking.GetUncommittedEvents(), extraEvents...)

	if err := bookingRepo.Save(ctx, booking); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}

// CancelBookingHandler cancels a booking on behalf of its client or provider
type CancelBookingHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewCancelBookingHandler creates a new cancel booking handler
func NewCancelBookingHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *CancelBookingHandler {
	return &CancelBookingHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Handle processes the cancel booking command
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd *CancelBookingCommand) error {
	if cmd == nil || cmd.BookingID == "" {
		return errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, cmd.BookingID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("booking")
	}

	if !h.mayCancel(ctx, uow, booking, cmd.UserID) {
		uow.Rollback(ctx)
		return errors.NewForbiddenError("you are not a party to this booking")
	}

	from := booking.Status()
	if err := booking.Cancel(cmd.Reason); err != nil {
		uow.Rollback(ctx)
		return errors.NewUnprocessableError(err.Error())
	}
	metrics.IncBookingTransition(string(from), string(booking.Status()))

	paymentEvents, err := settleCancelledPayment(ctx, uow, booking)
	if err != nil {
		uow.Rollback(ctx)
		return err
	}

	events := append(booking.GetUncommittedEvents(), paymentEvents...)

	if err := bookingRepo.Save(ctx, booking); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}

func (h *CancelBookingHandler) mayCancel(ctx context.Context, uow repository.UnitOfWork, booking *aggregate.Booking, userID string) bool {
	if booking.ClientID() == userID {
		return true
	}
	provider, err := uow.ProviderRepository().GetByUserID(ctx, userID)
	if err != nil {
		return false
	}
	return booking.ProviderID() == provider.ID()
}

// settleCancelledPayment closes out the payment of a cancelled booking and
// returns its events. Pending checkouts are abandoned; escrowed or
// cash-pending payments are marked refunded for the admin ledger.
func settleCancelledPayment(ctx context.Context, uow repository.UnitOfWork, booking *aggregate.Booking) ([]event.DomainEvent, error) {
	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByBookingID(ctx, booking.ID())
	if err != nil {
		// Legacy bookings may predate payment records.
		return nil, nil
	}

	from := payment.Status()
	switch payment.Status() {
	case aggregate.PaymentStatusPending:
		if err := payment.MarkAbandoned(); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
	case aggregate.PaymentStatusEscrow, aggregate.PaymentStatusCashPending:
		if err := payment.MarkRefunded("booking cancelled"); err != nil {
			return nil, errors.NewUnprocessableError(err.Error())
		}
	default:
		return nil, nil
	}
	metrics.IncPaymentTransition(string(from), string(payment.Status()))

	events := payment.GetUncommittedEvents()
	if err := paymentRepo.Save(ctx, payment); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
	}
	return events, nil
}

// ConfirmCompletionHandler is the client's confirmation that the job was
// done. For cash bookings it completes the booking; for online bookings it
// runs the consolidated escrow release: payment to PROCESSING_RELEASE,
// booking to PAYMENT_PROCESSING and a pending payout, all in one
// transaction.
type ConfirmCompletionHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewConfirmCompletionHandler creates a new confirm completion handler
func NewConfirmCompletionHandler(uowFactory repository.UnitOfWorkFactory, eventBus bus.EventBus) *ConfirmCompletionHandler {
	return &ConfirmCompletionHandler{uowFactory: uowFactory, eventBus: eventBus}
}

// Handle processes the confirm completion command
func (h *ConfirmCompletionHandler) Handle(ctx context.Context, cmd *ConfirmCompletionCommand) error {
	if cmd == nil || cmd.BookingID == "" {
		return errors.NewValidationError("booking_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to begin transaction: %v", err))
	}

	bookingRepo := uow.BookingRepository()
	booking, err := bookingRepo.GetByID(ctx, cmd.BookingID)
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewNotFoundError("booking")
	}
	if booking.ClientID() != cmd.ClientID {
		uow.Rollback(ctx)
		return errors.NewForbiddenError("only the client who booked can confirm completion")
	}

	paymentRepo := uow.PaymentRepository()
	payment, err := paymentRepo.GetByBookingID(ctx, booking.ID())
	if err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to load payment: %v", err))
	}

	var events []event.DomainEvent

	bookingFrom := booking.Status()
	paymentFrom := payment.Status()

	if booking.PaymentMethod() == aggregate.PaymentMethodCash {
		if payment.Status() != aggregate.PaymentStatusCashPaid {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError("the provider has not confirmed cash receipt yet")
		}
		if err := booking.Complete(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
	} else {
		switch payment.Status() {
		case aggregate.PaymentStatusProcessingRelease, aggregate.PaymentStatusReleased:
			// An identical retry. The release is already under way (or
			// settled) and its payout exists, so there is nothing to redo.
			uow.Rollback(ctx)
			return nil
		case aggregate.PaymentStatusEscrow:
		default:
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(fmt.Sprintf("payment is not in escrow (status: %s)", payment.Status()))
		}

		provider, err := uow.ProviderRepository().GetByID(ctx, booking.ProviderID())
		if err != nil {
			uow.Rollback(ctx)
			return errors.NewInternalError(fmt.Sprintf("failed to load provider: %v", err))
		}
		bank := provider.BankAccount()
		if bank == nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError("the provider has not set up a payout bank account")
		}

		if err := payment.BeginRelease(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}
		if err := booking.BeginPaymentProcessing(); err != nil {
			uow.Rollback(ctx)
			return errors.NewUnprocessableError(err.Error())
		}

		events = append(events, payment.GetUncommittedEvents()...)

		// A payout may already exist if an earlier transfer failed and was
		// rolled back. It stays FAILED and the admin retries it; only the
		// first confirmation creates one.
		if _, err := uow.PayoutRepository().GetByPaymentID(ctx, payment.ID()); err != nil {
			payout, err := aggregate.NewPayout(
				provider.ID(), payment.ID(), booking.ID(),
				payment.ProviderAmount(), *bank,
			)
			if err != nil {
				uow.Rollback(ctx)
				return errors.NewValidationError(err.Error())
			}

			events = append(events, payout.GetUncommittedEvents()...)

			if err := uow.PayoutRepository().Save(ctx, payout); err != nil {
				uow.Rollback(ctx)
				if appErr, ok := err.(*errors.ApplicationError); ok {
					return appErr
				}
				return errors.NewInternalError(fmt.Sprintf("failed to save payout: %v", err))
			}
		}

		if err := paymentRepo.Save(ctx, payment); err != nil {
			uow.Rollback(ctx)
			return errors.NewInternalError(fmt.Sprintf("failed to save payment: %v", err))
		}
	}

	events = append(events, booking.GetUncommittedEvents()...)

	if err := bookingRepo.Save(ctx, booking); err != nil {
		uow.Rollback(ctx)
		return errors.NewInternalError(fmt.Sprintf("failed to save booking: %v", err))
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to commit transaction: %v", err))
	}

	metrics.IncBookingTransition(string(bookingFrom), string(booking.Status()))
	if payment.Status() != paymentFrom {
		metrics.IncPaymentTransition(string(paymentFrom), string(payment.Status()))
	}

	h.eventBus.PublishBatch(ctx, events)
	return nil
}
