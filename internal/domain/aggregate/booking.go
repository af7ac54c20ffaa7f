package aggregate

import (
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending              BookingStatus = "PENDING"
	BookingStatusWaitingForProvider   BookingStatus = "WAITING_FOR_PROVIDER"
	BookingStatusConfirmed            BookingStatus = "CONFIRMED"
	BookingStatusPendingExecution     BookingStatus = "PENDING_EXECUTION"
	BookingStatusInProgress           BookingStatus = "IN_PROGRESS"
	BookingStatusAwaitingConfirmation BookingStatus = "AWAITING_CONFIRMATION"
	BookingStatusPaymentProcessing    BookingStatus = "PAYMENT_PROCESSING"
	BookingStatusCompleted            BookingStatus = "COMPLETED"
	BookingStatusCancelled            BookingStatus = "CANCELLED"
)

// PaymentMethod represents how the client pays for a booking
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCash   PaymentMethod = "CASH"
)

// Booking represents a booking aggregate root
type Booking struct {
	id              string
	clientID        string
	providerID      string
	serviceID       string
	catalogueItemID string
	scheduledDate   time.Time
	duration        int // minutes
	address         string
	notes           string
	totalAmount     int64
	platformFee     int64
	paymentMethod   PaymentMethod
	status          BookingStatus
	version         int
	createdAt       time.Time
	updatedAt       time.Time

	uncommittedEvents []event.DomainEvent
}

// NewBooking creates a new booking aggregate. The platform fee is derived
// from the total amount; callers never pass it in.
func NewBooking(clientID, providerID, serviceID, catalogueItemID string, scheduledDate time.Time, duration int, address, notes string, totalAmount int64, method PaymentMethod) (*Booking, error) {
	if clientID == "" {
		return nil, fmt.Errorf("clientID cannot be empty")
	}
	if serviceID == "" {
		return nil, fmt.Errorf("serviceID cannot be empty")
	}
	if scheduledDate.IsZero() {
		return nil, fmt.Errorf("scheduledDate cannot be empty")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}
	if totalAmount <= 0 {
		return nil, fmt.Errorf("totalAmount must be positive")
	}
	if method != PaymentMethodOnline && method != PaymentMethodCash {
		return nil, fmt.Errorf("unknown payment method: %s", method)
	}

	status := BookingStatusPending
	if providerID != "" {
		status = BookingStatusWaitingForProvider
	}

	now := time.Now()
	booking := &Booking{
		id:              uuid.New().String(),
		clientID:        clientID,
		providerID:      providerID,
		serviceID:       serviceID,
		catalogueItemID: catalogueItemID,
		scheduledDate:   scheduledDate,
		duration:        duration,
		address:         address,
		notes:           notes,
		totalAmount:     totalAmount,
		platformFee:     PlatformFee(totalAmount),
		paymentMethod:   method,
		status:          status,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}

	booking.raiseEvent(&event.BookingCreated{
		BookingID:     booking.id,
		ClientID:      clientID,
		ProviderID:    providerID,
		ServiceID:     serviceID,
		ScheduledDate: scheduledDate,
		Duration:      duration,
		TotalAmount:   totalAmount,
		PlatformFee:   booking.platformFee,
		PaymentMethod: string(method),
		Status:        string(status),
		Address:       address,
		Timestamp:     now,
	})

	return booking, nil
}

// ReconstructBooking rebuilds a booking from database state.
func ReconstructBooking(
	id, clientID, providerID, serviceID, catalogueItemID string,
	scheduledDate time.Time,
	duration int,
	address, notes string,
	totalAmount, platformFee int64,
	method PaymentMethod,
	status BookingStatus,
	version int,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		clientID:        clientID,
		providerID:      providerID,
		serviceID:       serviceID,
		catalogueItemID: catalogueItemID,
		scheduledDate:   scheduledDate,
		duration:        duration,
		address:         address,
		notes:           notes,
		totalAmount:     totalAmount,
		platformFee:     platformFee,
		paymentMethod:   method,
		status:          status,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// AssignProvider assigns a provider to an unassigned booking.
func (b *Booking) AssignProvider(providerID string) error {
	if providerID == "" {
		return fmt.Errorf("providerID cannot be empty")
	}
	if b.providerID != "" && b.providerID != providerID {
		return fmt.Errorf("booking already assigned to another provider")
	}
	if b.status != BookingStatusPending && b.status != BookingStatusWaitingForProvider {
		return fmt.Errorf("cannot assign provider in status %s", b.status)
	}

	b.providerID = providerID
	if b.status == BookingStatusPending {
		return b.changeStatus(BookingStatusWaitingForProvider, "provider assigned")
	}
	b.touch()
	return nil
}

// Accept moves the booking to CONFIRMED after the provider accepts it.
func (b *Booking) Accept(providerID string) error {
	if b.providerID != providerID {
		return fmt.Errorf("only the assigned provider can accept this booking")
	}
	return b.changeStatus(BookingStatusConfirmed, "accepted by provider")
}

// Decline cancels the booking when the provider turns it down.
func (b *Booking) Decline(providerID, reason string) error {
	if b.providerID != providerID {
		return fmt.Errorf("only the assigned provider can decline this booking")
	}
	if reason == "" {
		reason = "declined by provider"
	}
	return b.changeStatus(BookingStatusCancelled, reason)
}

// MarkPendingExecution parks a confirmed online booking until escrow funds land.
func (b *Booking) MarkPendingExecution() error {
	return b.changeStatus(BookingStatusPendingExecution, "awaiting escrow funding")
}

// Start moves the booking to IN_PROGRESS when the provider begins the job.
func (b *Booking) Start(providerID string) error {
	if b.providerID != providerID {
		return fmt.Errorf("only the assigned provider can start this booking")
	}
	if b.status != BookingStatusConfirmed && b.status != BookingStatusPendingExecution {
		return fmt.Errorf("booking must be CONFIRMED or PENDING_EXECUTION to start (current status: %s)", b.status)
	}
	return b.changeStatus(BookingStatusInProgress, "job started")
}

// Finish moves the booking to AWAITING_CONFIRMATION when the provider is done.
func (b *Booking) Finish(providerID string) error {
	if b.providerID != providerID {
		return fmt.Errorf("only the assigned provider can finish this booking")
	}
	if b.status != BookingStatusInProgress {
		return fmt.Errorf("booking must be IN_PROGRESS to finish (current status: %s)", b.status)
	}
	return b.changeStatus(BookingStatusAwaitingConfirmation, "awaiting client confirmation")
}

// BeginPaymentProcessing marks the booking while its escrow release is in flight.
func (b *Booking) BeginPaymentProcessing() error {
	if b.status != BookingStatusAwaitingConfirmation {
		return fmt.Errorf("booking must be AWAITING_CONFIRMATION to process payment (current status: %s)", b.status)
	}
	return b.changeStatus(BookingStatusPaymentProcessing, "payment release started")
}

// Complete finishes the booking.
func (b *Booking) Complete() error {
	if b.status != BookingStatusAwaitingConfirmation && b.status != BookingStatusPaymentProcessing {
		return fmt.Errorf("booking cannot be completed from status %s", b.status)
	}
	return b.changeStatus(BookingStatusCompleted, "completed")
}

// RevertToAwaitingConfirmation compensates a failed release.
func (b *Booking) RevertToAwaitingConfirmation(reason string) error {
	if b.status != BookingStatusPaymentProcessing {
		return fmt.Errorf("booking is not in PAYMENT_PROCESSING (current status: %s)", b.status)
	}
	return b.changeStatus(BookingStatusAwaitingConfirmation, reason)
}

// Cancel cancels the booking.
func (b *Booking) Cancel(reason string) error {
	if reason == "" {
		reason = "cancelled"
	}
	return b.changeStatus(BookingStatusCancelled, reason)
}

func (b *Booking) changeStatus(to BookingStatus, reason string) error {
	if !CanTransitionBooking(b.status, to) {
		return fmt.Errorf("invalid booking transition %s -> %s", b.status, to)
	}

	old := b.status
	b.status = to
	b.touch()

	b.raiseEvent(&event.BookingStatusChanged{
		BookingID:    b.id,
		ClientID:     b.clientID,
		ProviderID:   b.providerID,
		OldStatus:    string(old),
		NewStatus:    string(to),
		Reason:       reason,
		EventVersion: b.version,
		Timestamp:    b.updatedAt,
	})

	return nil
}

func (b *Booking) touch() {
	b.version++
	b.updatedAt = time.Now()
}

func (b *Booking) raiseEvent(evt event.DomainEvent) {
	b.uncommittedEvents = append(b.uncommittedEvents, evt)
}

// Getters
func (b *Booking) ID() string                   { return b.id }
func (b *Booking) ClientID() string             { return b.clientID }
func (b *Booking) ProviderID() string           { return b.providerID }
func (b *Booking) ServiceID() string            { return b.serviceID }
func (b *Booking) CatalogueItemID() string      { return b.catalogueItemID }
func (b *Booking) ScheduledDate() time.Time     { return b.scheduledDate }
func (b *Booking) Duration() int                { return b.duration }
func (b *Booking) Address() string              { return b.address }
func (b *Booking) Notes() string                { return b.notes }
func (b *Booking) TotalAmount() int64           { return b.totalAmount }
func (b *Booking) PlatformFee() int64           { return b.platformFee }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) Version() int                 { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// EndTime returns when the booked slot ends.
func (b *Booking) EndTime() time.Time {
	return b.scheduledDate.Add(time.Duration(b.duration) * time.Minute)
}

// Entity interface implementation
func (b *Booking) GetID() string    { return b.id }
func (b *Booking) GetVersion() int  { return b.version }
func (b *Booking) SetVersion(v int) { b.version = v }

// AggregateRoot interface implementation
func (b *Booking) GetUncommittedEvents() []event.DomainEvent {
	return b.uncommittedEvents
}

func (b *Booking) MarkEventsAsCommitted() {
	b.uncommittedEvents = nil
}
