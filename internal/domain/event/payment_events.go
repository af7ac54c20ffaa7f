package event

import "time"

// PaymentCreated event
type PaymentCreated struct {
	PaymentID   string    `json:"payment_id"`
	BookingID   string    `json:"booking_id"`
	ClientID    string    `json:"client_id"`
	Amount      int64     `json:"amount"`
	PlatformFee int64     `json:"platform_fee"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e *PaymentCreated) EventType() string     { return "PaymentCreated" }
func (e *PaymentCreated) AggregateID() string   { return e.PaymentID }
func (e *PaymentCreated) OccurredAt() time.Time { return e.Timestamp }
func (e *PaymentCreated) Version() int          { return 1 }

// PaymentInitialized event records gateway checkout details.
type PaymentInitialized struct {
	PaymentID        string    `json:"payment_id"`
	PaystackRef      string    `json:"paystack_ref"`
	AuthorizationURL string    `json:"authorization_url"`
	Timestamp        time.Time `json:"timestamp"`
}

func (e *PaymentInitialized) EventType() string     { return "PaymentInitialized" }
func (e *PaymentInitialized) AggregateID() string   { return e.PaymentID }
func (e *PaymentInitialized) OccurredAt() time.Time { return e.Timestamp }
func (e *PaymentInitialized) Version() int          { return 1 }

// PaymentStatusChanged event covers every payment transition.
type PaymentStatusChanged struct {
	PaymentID    string    `json:"payment_id"`
	BookingID    string    `json:"booking_id"`
	ClientID     string    `json:"client_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	Reason       string    `json:"reason,omitempty"`
	EventVersion int       `json:"event_version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *PaymentStatusChanged) EventType() string     { return "PaymentStatusChanged" }
func (e *PaymentStatusChanged) AggregateID() string   { return e.PaymentID }
func (e *PaymentStatusChanged) OccurredAt() time.Time { return e.Timestamp }
func (e *PaymentStatusChanged) Version() int          { return e.EventVersion }
