package event

import "time"

// BookingCreated event
type BookingCreated struct {
	BookingID     string    `json:"booking_id"`
	ClientID      string    `json:"client_id"`
	ProviderID    string    `json:"provider_id"`
	ServiceID     string    `json:"service_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Duration      int       `json:"duration"`
	TotalAmount   int64     `json:"total_amount"`
	PlatformFee   int64     `json:"platform_fee"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	Address       string    `json:"address"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *BookingCreated) EventType() string     { return "BookingCreated" }
func (e *BookingCreated) AggregateID() string   { return e.BookingID }
func (e *BookingCreated) OccurredAt() time.Time { return e.Timestamp }
func (e *BookingCreated) Version() int          { return 1 }

// BookingStatusChanged event covers every booking transition.
type BookingStatusChanged struct {
	BookingID    string    `json:"booking_id"`
	ClientID     string    `json:"client_id"`
	ProviderID   string    `json:"provider_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	Reason       string    `json:"reason,omitempty"`
	EventVersion int       `json:"event_version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *BookingStatusChanged) EventType() string     { return "BookingStatusChanged" }
func (e *BookingStatusChanged) AggregateID() string   { return e.BookingID }
func (e *BookingStatusChanged) OccurredAt() time.Time { return e.Timestamp }
func (e *BookingStatusChanged) Version() int          { return e.EventVersion }
