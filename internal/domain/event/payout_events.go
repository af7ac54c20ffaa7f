package event

import "time"

// PayoutRequested event
type PayoutRequested struct {
	PayoutID      string    `json:"payout_id"`
	ProviderID    string    `json:"provider_id"`
	PaymentID     string    `json:"payment_id"`
	BookingID     string    `json:"booking_id"`
	Amount        int64     `json:"amount"`
	BankCode      string    `json:"bank_code"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	RecipientCode string    `json:"recipient_code"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *PayoutRequested) EventType() string     { return "PayoutRequested" }
func (e *PayoutRequested) AggregateID() string   { return e.PayoutID }
func (e *PayoutRequested) OccurredAt() time.Time { return e.Timestamp }
func (e *PayoutRequested) Version() int          { return 1 }

// PayoutProcessing event
type PayoutProcessing struct {
	PayoutID     string    `json:"payout_id"`
	ProviderID   string    `json:"provider_id"`
	Amount       int64     `json:"amount"`
	TransferCode string    `json:"transfer_code"`
	ProcessedAt  time.Time `json:"processed_at"`
	EventVersion int       `json:"event_version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *PayoutProcessing) EventType() string     { return "PayoutProcessing" }
func (e *PayoutProcessing) AggregateID() string   { return e.PayoutID }
func (e *PayoutProcessing) OccurredAt() time.Time { return e.Timestamp }
func (e *PayoutProcessing) Version() int          { return e.EventVersion }

// PayoutCompleted event
type PayoutCompleted struct {
	PayoutID     string    `json:"payout_id"`
	ProviderID   string    `json:"provider_id"`
	Amount       int64     `json:"amount"`
	TransferCode string    `json:"transfer_code"`
	CompletedAt  time.Time `json:"completed_at"`
	EventVersion int       `json:"event_version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *PayoutCompleted) EventType() string     { return "PayoutCompleted" }
func (e *PayoutCompleted) AggregateID() string   { return e.PayoutID }
func (e *PayoutCompleted) OccurredAt() time.Time { return e.Timestamp }
func (e *PayoutCompleted) Version() int          { return e.EventVersion }

// PayoutFailed event
type PayoutFailed struct {
	PayoutID     string    `json:"payout_id"`
	ProviderID   string    `json:"provider_id"`
	Amount       int64     `json:"amount"`
	Reason       string    `json:"reason"`
	EventVersion int       `json:"event_version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *PayoutFailed) EventType() string     { return "PayoutFailed" }
func (e *PayoutFailed) AggregateID() string   { return e.PayoutID }
func (e *PayoutFailed) OccurredAt() time.Time { return e.Timestamp }
func (e *PayoutFailed) Version() int          { return e.EventVersion }
