package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// Review represents a client's review of a completed booking.
type Review struct {
	id         string
	bookingID  string
	clientID   string
	providerID string
	rating     int
	comment    string
	version    int
	createdAt  time.Time

	uncommittedEvents []event.DomainEvent
}

// NewReview creates a review. One review per booking; the repository
// enforces uniqueness.
func NewReview(bookingID, clientID, providerID string, rating int, comment string) (*Review, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("bookingID cannot be empty")
	}
	if clientID == "" {
		return nil, fmt.Errorf("clientID cannot be empty")
	}
	if providerID == "" {
		return nil, fmt.Errorf("providerID cannot be empty")
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}
	if len(comment) > 2000 {
		return nil, fmt.Errorf("comment is too long")
	}

	now := time.Now()
	review := &Review{
		id:         uuid.New().String(),
		bookingID:  bookingID,
		clientID:   clientID,
		providerID: providerID,
		rating:     rating,
		comment:    comment,
		version:    1,
		createdAt:  now,
	}

	review.raiseEvent(&event.ReviewSubmitted{
		ReviewID:   review.id,
		BookingID:  bookingID,
		ClientID:   clientID,
		ProviderID: providerID,
		Rating:     rating,
		Comment:    comment,
		Timestamp:  now,
	})

	return review, nil
}

// ReconstructReview rebuilds a review from database state.
func ReconstructReview(id, bookingID, clientID, providerID string, rating int, comment string, version int, createdAt time.Time) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		clientID:   clientID,
		providerID: providerID,
		rating:     rating,
		comment:    comment,
		version:    version,
		createdAt:  createdAt,
	}
}

func (r *Review) raiseEvent(evt event.DomainEvent) {
	r.uncommittedEvents = append(r.uncommittedEvents, evt)
}

// Getters
func (r *Review) ID() string           { return r.id }
func (r *Review) BookingID() string    { return r.bookingID }
func (r *Review) ClientID() string     { return r.clientID }
func (r *Review) ProviderID() string   { return r.providerID }
func (r *Review) Rating() int          { return r.rating }
func (r *Review) Comment() string      { return r.comment }
func (r *Review) Version() int         { return r.version }
func (r *Review) CreatedAt() time.Time { return r.createdAt }

// Entity interface implementation
func (r *Review) GetID() string    { return r.id }
func (r *Review) GetVersion() int  { return r.version }
func (r *Review) SetVersion(v int) { r.version = v }

// AggregateRoot interface implementation
func (r *Review) GetUncommittedEvents() []event.DomainEvent {
	return r.uncommittedEvents
}

func (r *Review) MarkEventsAsCommitted() {
	r.uncommittedEvents = nil
}
