package event

import "time"

// ReviewSubmitted event
type ReviewSubmitted struct {
	ReviewID   string    `json:"review_id"`
	BookingID  string    `json:"booking_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ReviewSubmitted) EventType() string     { return "ReviewSubmitted" }
func (e *ReviewSubmitted) AggregateID() string   { return e.ReviewID }
func (e *ReviewSubmitted) OccurredAt() time.Time { return e.Timestamp }
func (e *ReviewSubmitted) Version() int          { return 1 }
