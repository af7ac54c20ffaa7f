package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// PayoutStatus represents the status of a payout
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

// MinPayoutAmount is the smallest transferable amount in minor units (100 NGN).
const MinPayoutAmount int64 = 10000

// BankAccount is the snapshot of the provider's bank details taken when the
// payout is created. Later edits to the provider profile do not touch it.
type BankAccount struct {
	BankCode      string
	BankName      string
	AccountNumber string
	AccountName   string
	RecipientCode string
}

// Validate checks the bank account snapshot is complete enough to transfer to.
func (b BankAccount) Validate() error {
	if b.BankCode == "" {
		return fmt.Errorf("bank code cannot be empty")
	}
	if b.AccountNumber == "" {
		return fmt.Errorf("account number cannot be empty")
	}
	if b.AccountName == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	return nil
}

// Payout represents a payout aggregate root. Exactly one payout exists per
// released payment.
type Payout struct {
	id           string
	providerID   string
	paymentID    string
	bookingID    string
	amount       int64
	bankAccount  BankAccount
	status       PayoutStatus
	transferCode string
	failReason   string
	processedAt  time.Time
	completedAt  time.Time
	version      int
	createdAt    time.Time
	updatedAt    time.Time

	uncommittedEvents []event.DomainEvent
}

// NewPayout creates a payout for a released payment. The amount is the
// provider's share after the platform fee.
func NewPayout(providerID, paymentID, bookingID string, amount int64, bank BankAccount) (*Payout, error) {
	if providerID == "" {
		return nil, fmt.Errorf("providerID cannot be empty")
	}
	if paymentID == "" {
		return nil, fmt.Errorf("paymentID cannot be empty")
	}
	if amount < MinPayoutAmount {
		return nil, fmt.Errorf("payout amount %d is below the minimum %d", amount, MinPayoutAmount)
	}
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bank account: %w", err)
	}

	now := time.Now()
	payout := &Payout{
		id:          uuid.New().String(),
		providerID:  providerID,
		paymentID:   paymentID,
		bookingID:   bookingID,
		amount:      amount,
		bankAccount: bank,
		status:      PayoutStatusPending,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	payout.raiseEvent(&event.PayoutRequested{
		PayoutID:      payout.id,
		ProviderID:    providerID,
		PaymentID:     paymentID,
		BookingID:     bookingID,
		Amount:        amount,
		BankCode:      bank.BankCode,
		BankName:      bank.BankName,
		AccountNumber: bank.AccountNumber,
		AccountName:   bank.AccountName,
		RecipientCode: bank.RecipientCode,
		Timestamp:     now,
	})

	return payout, nil
}

// ReconstructPayout rebuilds a payout from database state.
func ReconstructPayout(
	id, providerID, paymentID, bookingID string,
	amount int64,
	bank BankAccount,
	status PayoutStatus,
	transferCode, failReason string,
	processedAt, completedAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Payout {
	return &Payout{
		id:           id,
		providerID:   providerID,
		paymentID:    paymentID,
		bookingID:    bookingID,
		amount:       amount,
		bankAccount:  bank,
		status:       status,
		transferCode: transferCode,
		failReason:   failReason,
		processedAt:  processedAt,
		completedAt:  completedAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// MarkAsProcessing records that a gateway transfer was initiated.
func (p *Payout) MarkAsProcessing(transferCode string) error {
	if transferCode == "" {
		return fmt.Errorf("transferCode cannot be empty")
	}
	if err := p.changeStatus(PayoutStatusProcessing); err != nil {
		return err
	}

	p.transferCode = transferCode
	p.failReason = ""
	p.processedAt = p.updatedAt

	p.raiseEvent(&event.PayoutProcessing{
		PayoutID:     p.id,
		ProviderID:   p.providerID,
		Amount:       p.amount,
		TransferCode: transferCode,
		ProcessedAt:  p.processedAt,
		EventVersion: p.version,
		Timestamp:    p.updatedAt,
	})

	return nil
}

// MarkAsCompleted records that the transfer settled.
func (p *Payout) MarkAsCompleted() error {
	if err := p.changeStatus(PayoutStatusCompleted); err != nil {
		return err
	}

	p.completedAt = p.updatedAt

	p.raiseEvent(&event.PayoutCompleted{
		PayoutID:     p.id,
		ProviderID:   p.providerID,
		Amount:       p.amount,
		TransferCode: p.transferCode,
		CompletedAt:  p.completedAt,
		EventVersion: p.version,
		Timestamp:    p.updatedAt,
	})

	return nil
}

// MarkAsPaidManually records an admin settling the payout outside the
// gateway (bank transfer done by hand).
func (p *Payout) MarkAsPaidManually() error {
	if err := p.changeStatus(PayoutStatusCompleted); err != nil {
		return err
	}

	p.completedAt = p.updatedAt
	p.failReason = ""

	p.raiseEvent(&event.PayoutCompleted{
		PayoutID:     p.id,
		ProviderID:   p.providerID,
		Amount:       p.amount,
		TransferCode: p.transferCode,
		CompletedAt:  p.completedAt,
		EventVersion: p.version,
		Timestamp:    p.updatedAt,
	})

	return nil
}

// MarkAsFailed records a transfer failure. Failed payouts stay retryable.
func (p *Payout) MarkAsFailed(reason string) error {
	if err := p.changeStatus(PayoutStatusFailed); err != nil {
		return err
	}

	if reason == "" {
		reason = "transfer failed"
	}
	p.failReason = reason

	p.raiseEvent(&event.PayoutFailed{
		PayoutID:     p.id,
		ProviderID:   p.providerID,
		Amount:       p.amount,
		Reason:       reason,
		EventVersion: p.version,
		Timestamp:    p.updatedAt,
	})

	return nil
}

func (p *Payout) changeStatus(to PayoutStatus) error {
	if !CanTransitionPayout(p.status, to) {
		return fmt.Errorf("invalid payout transition %s -> %s", p.status, to)
	}

	p.status = to
	p.touch()
	return nil
}

func (p *Payout) touch() {
	p.version++
	p.updatedAt = time.Now()
}

func (p *Payout) raiseEvent(evt event.DomainEvent) {
	p.uncommittedEvents = append(p.uncommittedEvents, evt)
}

// Getters
func (p *Payout) ID() string               { return p.id }
func (p *Payout) ProviderID() string       { return p.providerID }
func (p *Payout) PaymentID() string        { return p.paymentID }
func (p *Payout) BookingID() string        { return p.bookingID }
func (p *Payout) Amount() int64            { return p.amount }
func (p *Payout) Bank() BankAccount        { return p.bankAccount }
func (p *Payout) Status() PayoutStatus     { return p.status }
func (p *Payout) TransferCode() string     { return p.transferCode }
func (p *Payout) FailReason() string       { return p.failReason }
func (p *Payout) ProcessedAt() time.Time   { return p.processedAt }
func (p *Payout) CompletedAt() time.Time   { return p.completedAt }
func (p *Payout) Version() int             { return p.version }
func (p *Payout) CreatedAt() time.Time     { return p.createdAt }
func (p *Payout) UpdatedAt() time.Time     { return p.updatedAt }

// Entity interface implementation
func (p *Payout) GetID() string    { return p.id }
func (p *Payout) GetVersion() int  { return p.version }
func (p *Payout) SetVersion(v int) { p.version = v }

// AggregateRoot interface implementation
func (p *Payout) GetUncommittedEvents() []event.DomainEvent {
	return p.uncommittedEvents
}

func (p *Payout) MarkEventsAsCommitted() {
	p.uncommittedEvents = nil
}
