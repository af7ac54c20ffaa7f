package event

import "time"

// ProviderRegistered event
type ProviderRegistered struct {
	ProviderID   string    `json:"provider_id"`
	UserID       string    `json:"user_id"`
	BusinessName string    `json:"business_name"`
	Location     string    `json:"location"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *ProviderRegistered) EventType() string     { return "ProviderRegistered" }
func (e *ProviderRegistered) AggregateID() string   { return e.ProviderID }
func (e *ProviderRegistered) OccurredAt() time.Time { return e.Timestamp }
func (e *ProviderRegistered) Version() int          { return 1 }

// ProviderBankAccountUpdated event
type ProviderBankAccountUpdated struct {
	ProviderID    string    `json:"provider_id"`
	BankCode      string    `json:"bank_code"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	RecipientCode string    `json:"recipient_code"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *ProviderBankAccountUpdated) EventType() string     { return "ProviderBankAccountUpdated" }
func (e *ProviderBankAccountUpdated) AggregateID() string   { return e.ProviderID }
func (e *ProviderBankAccountUpdated) OccurredAt() time.Time { return e.Timestamp }
func (e *ProviderBankAccountUpdated) Version() int          { return 1 }

// ProviderPhotoUpdated event
type ProviderPhotoUpdated struct {
	ProviderID string    `json:"provider_id"`
	PhotoURL   string    `json:"photo_url"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ProviderPhotoUpdated) EventType() string     { return "ProviderPhotoUpdated" }
func (e *ProviderPhotoUpdated) AggregateID() string   { return e.ProviderID }
func (e *ProviderPhotoUpdated) OccurredAt() time.Time { return e.Timestamp }
func (e *ProviderPhotoUpdated) Version() int          { return 1 }

// ProviderRated event
type ProviderRated struct {
	ProviderID string    `json:"provider_id"`
	BookingID  string    `json:"booking_id"`
	Rating     int       `json:"rating"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ProviderRated) EventType() string     { return "ProviderRated" }
func (e *ProviderRated) AggregateID() string   { return e.ProviderID }
func (e *ProviderRated) OccurredAt() time.Time { return e.Timestamp }
func (e *ProviderRated) Version() int          { return 1 }
