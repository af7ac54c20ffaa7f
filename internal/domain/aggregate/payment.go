package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusCashPending       PaymentStatus = "CASH_PENDING"
	PaymentStatusCashPaid          PaymentStatus = "CASH_PAID"
	PaymentStatusEscrow            PaymentStatus = "ESCROW"
	PaymentStatusProcessingRelease PaymentStatus = "PROCESSING_RELEASE"
	PaymentStatusReleased          PaymentStatus = "RELEASED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusAbandoned         PaymentStatus = "ABANDONED"
)

// Payment represents a payment aggregate root. Online payments are held in
// escrow until the client confirms job completion; cash payments only track
// that the provider received the money.
type Payment struct {
	id               string
	bookingID        string
	clientID         string
	providerID       string
	amount           int64
	platformFee      int64
	method           PaymentMethod
	status           PaymentStatus
	paystackRef      string
	authorizationURL string
	paidAt           time.Time
	releasedAt       time.Time
	version          int
	createdAt        time.Time
	updatedAt        time.Time

	uncommittedEvents []event.DomainEvent
}

// NewPayment creates a payment for a booking. Online payments start PENDING,
// cash payments start CASH_PENDING.
func NewPayment(bookingID, clientID, providerID string, amount int64, method PaymentMethod) (*Payment, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("bookingID cannot be empty")
	}
	if clientID == "" {
		return nil, fmt.Errorf("clientID cannot be empty")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	var status PaymentStatus
	switch method {
	case PaymentMethodOnline:
		status = PaymentStatusPending
	case PaymentMethodCash:
		status = PaymentStatusCashPending
	default:
		return nil, fmt.Errorf("unknown payment method: %s", method)
	}

	now := time.Now()
	payment := &Payment{
		id:          uuid.New().String(),
		bookingID:   bookingID,
		clientID:    clientID,
		providerID:  providerID,
		amount:      amount,
		platformFee: PlatformFee(amount),
		method:      method,
		status:      status,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	payment.raiseEvent(&event.PaymentCreated{
		PaymentID:   payment.id,
		BookingID:   bookingID,
		ClientID:    clientID,
		Amount:      amount,
		PlatformFee: payment.platformFee,
		Method:      string(method),
		Status:      string(status),
		Timestamp:   now,
	})

	return payment, nil
}

// ReconstructPayment rebuilds a payment from database state.
func ReconstructPayment(
	id, bookingID, clientID, providerID string,
	amount, platformFee int64,
	method PaymentMethod,
	status PaymentStatus,
	paystackRef, authorizationURL string,
	paidAt, releasedAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:               id,
		bookingID:        bookingID,
		clientID:         clientID,
		providerID:       providerID,
		amount:           amount,
		platformFee:      platformFee,
		method:           method,
		status:           status,
		paystackRef:      paystackRef,
		authorizationURL: authorizationURL,
		paidAt:           paidAt,
		releasedAt:       releasedAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// AttachCheckout records the gateway reference and checkout URL after
// transaction initialization.
func (p *Payment) AttachCheckout(paystackRef, authorizationURL string) error {
	if p.status != PaymentStatusPending {
		return fmt.Errorf("payment must be PENDING to attach checkout (current status: %s)", p.status)
	}
	if paystackRef == "" {
		return fmt.Errorf("paystackRef cannot be empty")
	}

	p.paystackRef = paystackRef
	p.authorizationURL = authorizationURL
	p.touch()

	p.raiseEvent(&event.PaymentInitialized{
		PaymentID:        p.id,
		PaystackRef:      paystackRef,
		AuthorizationURL: authorizationURL,
		Timestamp:        p.updatedAt,
	})

	return nil
}

// MarkEscrowed records that gateway funds landed and are now held in escrow.
func (p *Payment) MarkEscrowed() error {
	if p.method != PaymentMethodOnline {
		return fmt.Errorf("only online payments can enter escrow")
	}
	if err := p.changeStatus(PaymentStatusEscrow, "gateway charge verified"); err != nil {
		return err
	}
	p.paidAt = p.updatedAt
	return nil
}

// BeginRelease moves an escrowed payment into PROCESSING_RELEASE. This is
// the only way out of escrow besides a refund.
func (p *Payment) BeginRelease() error {
	if p.status != PaymentStatusEscrow {
		return fmt.Errorf("payment must be in ESCROW to release (current status: %s)", p.status)
	}
	return p.changeStatus(PaymentStatusProcessingRelease, "release started")
}

// MarkReleased finishes a release that was in flight.
func (p *Payment) MarkReleased() error {
	if p.status != PaymentStatusProcessingRelease {
		return fmt.Errorf("payment must be PROCESSING_RELEASE to complete release (current status: %s)", p.status)
	}
	if err := p.changeStatus(PaymentStatusReleased, "funds released to provider"); err != nil {
		return err
	}
	p.releasedAt = p.updatedAt
	return nil
}

// RollbackRelease compensates a failed release attempt, returning the funds
// to escrow so the release can be retried.
func (p *Payment) RollbackRelease(reason string) error {
	if p.status != PaymentStatusProcessingRelease {
		return fmt.Errorf("payment is not in PROCESSING_RELEASE (current status: %s)", p.status)
	}
	if reason == "" {
		reason = "release rolled back"
	}
	return p.changeStatus(PaymentStatusEscrow, reason)
}

// MarkFailed records a payment that failed at the gateway.
func (p *Payment) MarkFailed(reason string) error {
	if reason == "" {
		reason = "gateway reported failure"
	}
	return p.changeStatus(PaymentStatusFailed, reason)
}

// MarkRefunded records a refund to the client.
func (p *Payment) MarkRefunded(reason string) error {
	if reason == "" {
		reason = "refunded to client"
	}
	return p.changeStatus(PaymentStatusRefunded, reason)
}

// MarkAbandoned closes a pending payment whose checkout was never completed.
func (p *Payment) MarkAbandoned() error {
	if p.status != PaymentStatusPending {
		return fmt.Errorf("only PENDING payments can be abandoned (current status: %s)", p.status)
	}
	return p.changeStatus(PaymentStatusAbandoned, "checkout never completed")
}

// ConfirmCashReceived records that the provider collected a cash payment.
func (p *Payment) ConfirmCashReceived() error {
	if p.method != PaymentMethodCash {
		return fmt.Errorf("payment is not a cash payment")
	}
	if err := p.changeStatus(PaymentStatusCashPaid, "cash received by provider"); err != nil {
		return err
	}
	p.paidAt = p.updatedAt
	return nil
}

// IsSettled reports whether money has finished moving for this payment.
func (p *Payment) IsSettled() bool {
	return p.status == PaymentStatusReleased || p.status == PaymentStatusCashPaid
}

func (p *Payment) changeStatus(to PaymentStatus, reason string) error {
	if !CanTransitionPayment(p.status, to) {
		return fmt.Errorf("invalid payment transition %s -> %s", p.status, to)
	}

	old := p.status
	p.status = to
	p.touch()

	p.raiseEvent(&event.PaymentStatusChanged{
		PaymentID:    p.id,
		BookingID:    p.bookingID,
		ClientID:     p.clientID,
		OldStatus:    string(old),
		NewStatus:    string(to),
		Reason:       reason,
		EventVersion: p.version,
		Timestamp:    p.updatedAt,
	})

	return nil
}

func (p *Payment) touch() {
	p.version++
	p.updatedAt = time.Now()
}

func (p *Payment) raiseEvent(evt event.DomainEvent) {
	p.uncommittedEvents = append(p.uncommittedEvents, evt)
}

// Getters
func (p *Payment) ID() string                   { return p.id }
func (p *Payment) BookingID() string            { return p.bookingID }
func (p *Payment) ClientID() string             { return p.clientID }
func (p *Payment) ProviderID() string           { return p.providerID }
func (p *Payment) Amount() int64                { return p.amount }
func (p *Payment) PlatformFee() int64           { return p.platformFee }
func (p *Payment) ProviderAmount() int64        { return p.amount - p.platformFee }
func (p *Payment) Method() PaymentMethod        { return p.method }
func (p *Payment) Status() PaymentStatus        { return p.status }
func (p *Payment) PaystackRef() string          { return p.paystackRef }
func (p *Payment) AuthorizationURL() string     { return p.authorizationURL }
func (p *Payment) PaidAt() time.Time            { return p.paidAt }
func (p *Payment) ReleasedAt() time.Time        { return p.releasedAt }
func (p *Payment) Version() int                 { return p.version }
func (p *Payment) CreatedAt() time.Time         { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time         { return p.updatedAt }

// Entity interface implementation
func (p *Payment) GetID() string    { return p.id }
func (p *Payment) GetVersion() int  { return p.version }
func (p *Payment) SetVersion(v int) { p.version = v }

// AggregateRoot interface implementation
func (p *Payment) GetUncommittedEvents() []event.DomainEvent {
	return p.uncommittedEvents
}

func (p *Payment) MarkEventsAsCommitted() {
	p.uncommittedEvents = nil
}
