package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// Provider represents a service provider aggregate root.
type Provider struct {
	id           string
	userID       string
	businessName string
	description  string
	location     string
	photoURL     string
	bankAccount  *BankAccount
	ratingSum    int64
	ratingCount  int64
	active       bool
	version      int
	createdAt    time.Time
	updatedAt    time.Time

	uncommittedEvents []event.DomainEvent
}

// NewProvider creates a provider profile for an existing user.
func NewProvider(userID, businessName, description, location string) (*Provider, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	if businessName == "" {
		return nil, fmt.Errorf("businessName cannot be empty")
	}
	if location == "" {
		return nil, fmt.Errorf("location cannot be empty")
	}

	now := time.Now()
	provider := &Provider{
		id:           uuid.New().String(),
		userID:       userID,
		businessName: businessName,
		description:  description,
		location:     location,
		active:       true,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}

	provider.raiseEvent(&event.ProviderRegistered{
		ProviderID:   provider.id,
		UserID:       userID,
		BusinessName: businessName,
		Location:     location,
		Timestamp:    now,
	})

	return provider, nil
}

// ReconstructProvider rebuilds a provider from database state.
func ReconstructProvider(
	id, userID, businessName, description, location, photoURL string,
	bank *BankAccount,
	ratingSum, ratingCount int64,
	active bool,
	version int,
	createdAt, updatedAt time.Time,
) *Provider {
	return &Provider{
		id:           id,
		userID:       userID,
		businessName: businessName,
		description:  description,
		location:     location,
		photoURL:     photoURL,
		bankAccount:  bank,
		ratingSum:    ratingSum,
		ratingCount:  ratingCount,
		active:       active,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// UpdateProfile updates the mutable profile fields.
func (p *Provider) UpdateProfile(businessName, description, location string) error {
	if businessName == "" {
		return fmt.Errorf("businessName cannot be empty")
	}
	if location == "" {
		return fmt.Errorf("location cannot be empty")
	}

	p.businessName = businessName
	p.description = description
	p.location = location
	p.touch()
	return nil
}

// SetBankAccount stores the provider's payout destination. The recipient
// code comes back from the gateway when the recipient is created there.
func (p *Provider) SetBankAccount(bank BankAccount) error {
	if err := bank.Validate(); err != nil {
		return err
	}

	p.bankAccount = &bank
	p.touch()

	p.raiseEvent(&event.ProviderBankAccountUpdated{
		ProviderID:    p.id,
		BankCode:      bank.BankCode,
		BankName:      bank.BankName,
		AccountNumber: bank.AccountNumber,
		AccountName:   bank.AccountName,
		RecipientCode: bank.RecipientCode,
		Timestamp:     p.updatedAt,
	})

	return nil
}

// SetPhoto stores the uploaded profile photo URL.
func (p *Provider) SetPhoto(photoURL string) error {
	if photoURL == "" {
		return fmt.Errorf("photoURL cannot be empty")
	}

	p.photoURL = photoURL
	p.touch()

	p.raiseEvent(&event.ProviderPhotoUpdated{
		ProviderID: p.id,
		PhotoURL:   photoURL,
		Timestamp:  p.updatedAt,
	})

	return nil
}

// AddRating folds a new review rating into the running average.
func (p *Provider) AddRating(bookingID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	p.ratingSum += int64(rating)
	p.ratingCount++
	p.touch()

	p.raiseEvent(&event.ProviderRated{
		ProviderID: p.id,
		BookingID:  bookingID,
		Rating:     rating,
		Timestamp:  p.updatedAt,
	})

	return nil
}

// Deactivate hides the provider from discovery.
func (p *Provider) Deactivate() {
	p.active = false
	p.touch()
}

// Activate restores the provider to discovery.
func (p *Provider) Activate() {
	p.active = true
	p.touch()
}

// AverageRating returns the mean rating in hundredths (e.g. 450 = 4.50),
// or 0 when unrated.
func (p *Provider) AverageRating() int64 {
	if p.ratingCount == 0 {
		return 0
	}
	return (p.ratingSum*100 + p.ratingCount/2) / p.ratingCount
}

// HasPayoutDestination reports whether payouts can be sent to this provider.
func (p *Provider) HasPayoutDestination() bool {
	return p.bankAccount != nil && p.bankAccount.Validate() == nil
}

func (p *Provider) touch() {
	p.version++
	p.updatedAt = time.Now()
}

func (p *Provider) raiseEvent(evt event.DomainEvent) {
	p.uncommittedEvents = append(p.uncommittedEvents, evt)
}

// Getters
func (p *Provider) ID() string                { return p.id }
func (p *Provider) UserID() string            { return p.userID }
func (p *Provider) BusinessName() string      { return p.businessName }
func (p *Provider) Description() string       { return p.description }
func (p *Provider) Location() string          { return p.location }
func (p *Provider) PhotoURL() string          { return p.photoURL }
func (p *Provider) RatingSum() int64          { return p.ratingSum }
func (p *Provider) RatingCount() int64        { return p.ratingCount }
func (p *Provider) IsActive() bool            { return p.active }
func (p *Provider) Version() int              { return p.version }
func (p *Provider) CreatedAt() time.Time      { return p.createdAt }
func (p *Provider) UpdatedAt() time.Time      { return p.updatedAt }

// BankAccount returns a copy of the payout destination, or nil when unset.
func (p *Provider) BankAccount() *BankAccount {
	if p.bankAccount == nil {
		return nil
	}
	bank := *p.bankAccount
	return &bank
}

// Entity interface implementation
func (p *Provider) GetID() string    { return p.id }
func (p *Provider) GetVersion() int  { return p.version }
func (p *Provider) SetVersion(v int) { p.version = v }

// AggregateRoot interface implementation
func (p *Provider) GetUncommittedEvents() []event.DomainEvent {
	return p.uncommittedEvents
}

func (p *Provider) MarkEventsAsCommitted() {
	p.uncommittedEvents = nil
}
