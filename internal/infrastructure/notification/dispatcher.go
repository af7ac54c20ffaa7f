package notification

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain/event"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher turns domain events into per-user notification rows. It runs
// off the async bus after commit; a failed insert is logged and dropped,
// never surfaced to the request that produced the event.
type Dispatcher struct {
	notifications repository.NotificationRepository
	alerter       *TelegramAlerter
	logger        zerolog.Logger
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(notifications repository.NotificationRepository, alerter *TelegramAlerter, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		alerter:       alerter,
		logger:        logger,
	}
}

// Register subscribes the dispatcher to the events it renders
func (d *Dispatcher) Register(eventBus bus.EventBus) {
	subscriptions := map[string]bus.EventHandlerFunc{
		"BookingCreated":       d.onBookingCreated,
		"BookingStatusChanged": d.onBookingStatusChanged,
		"PaymentStatusChanged": d.onPaymentStatusChanged,
		"PayoutCompleted":      d.onPayoutCompleted,
		"PayoutFailed":         d.onPayoutFailed,
		"ReviewSubmitted":      d.onReviewSubmitted,
	}
	for eventType, handler := range subscriptions {
		eventBus.Subscribe(eventType, handler)
	}
}

func (d *Dispatcher) onBookingCreated(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.BookingCreated)
	if !ok {
		return nil
	}

	d.insert(ctx, e.ClientID, "booking", "Booking created",
		"Your booking has been created and is awaiting the provider's response.", e.BookingID)
	if e.ProviderID != "" {
		d.insert(ctx, e.ProviderID, "booking", "New booking request",
			"You have a new booking request waiting for your response.", e.BookingID)
	}
	return nil
}

func (d *Dispatcher) onBookingStatusChanged(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.BookingStatusChanged)
	if !ok {
		return nil
	}

	body := fmt.Sprintf("Booking status changed from %s to %s.", e.OldStatus, e.NewStatus)
	if e.Reason != "" {
		body = fmt.Sprintf("%s Reason: %s", body, e.Reason)
	}

	d.insert(ctx, e.ClientID, "booking", "Booking update", body, e.BookingID)
	if e.ProviderID != "" {
		d.insert(ctx, e.ProviderID, "booking", "Booking update", body, e.BookingID)
	}
	return nil
}

func (d *Dispatcher) onPaymentStatusChanged(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.PaymentStatusChanged)
	if !ok {
		return nil
	}

	var title, body string
	switch e.NewStatus {
	case "ESCROW":
		title = "Payment received"
		body = "Your payment is held securely until you confirm the job is done."
	case "RELEASED":
		title = "Payment released"
		body = "Your payment has been released to the provider."
	case "REFUNDED":
		title = "Payment refunded"
		body = "Your payment has been refunded."
	case "FAILED":
		title = "Payment failed"
		body = "Your payment could not be processed."
	default:
		return nil
	}

	d.insert(ctx, e.ClientID, "payment", title, body, e.PaymentID)
	return nil
}

func (d *Dispatcher) onPayoutCompleted(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.PayoutCompleted)
	if !ok {
		return nil
	}

	d.insert(ctx, e.ProviderID, "payout", "Payout sent",
		fmt.Sprintf("A payout of %d has been sent to your bank account.", e.Amount), e.PayoutID)
	return nil
}

func (d *Dispatcher) onPayoutFailed(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.PayoutFailed)
	if !ok {
		return nil
	}

	d.insert(ctx, e.ProviderID, "payout", "Payout failed",
		"A payout to your bank account failed. Our team has been notified.", e.PayoutID)

	if d.alerter != nil {
		d.alerter.PayoutFailed(e.PayoutID, e.ProviderID, e.Amount, e.Reason)
	}
	return nil
}

func (d *Dispatcher) onReviewSubmitted(ctx context.Context, evt event.DomainEvent) error {
	e, ok := evt.(*event.ReviewSubmitted)
	if !ok {
		return nil
	}

	d.insert(ctx, e.ProviderID, "review", "New review",
		fmt.Sprintf("A client left you a %d-star review.", e.Rating), e.BookingID)
	return nil
}

func (d *Dispatcher) insert(ctx context.Context, userID, kind, title, body, refID string) {
	if userID == "" {
		return
	}

	err := d.notifications.Insert(ctx, &repository.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		RefID:     refID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", userID).Str("type", kind).Msg("failed to store notification")
	}
}
