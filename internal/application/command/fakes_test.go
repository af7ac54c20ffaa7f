package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/domain/event"
	"servicehub/internal/domain/repository"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/pkg/errors"
)

// In-memory repositories mirroring the persistence contracts the handlers
// rely on: Save commits the aggregate's events, lookups error when nothing
// matches, and the payout store enforces one payout per payment.

type memStore struct {
	mu        sync.Mutex
	users     map[string]*aggregate.User
	providers map[string]*aggregate.Provider
	services  map[string]*aggregate.Service
	bookings  map[string]*aggregate.Booking
	payments  map[string]*aggregate.Payment
	payouts   map[string]*aggregate.Payout
	reviews   map[string]*aggregate.Review
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*aggregate.User),
		providers: make(map[string]*aggregate.Provider),
		services:  make(map[string]*aggregate.Service),
		bookings:  make(map[string]*aggregate.Booking),
		payments:  make(map[string]*aggregate.Payment),
		payouts:   make(map[string]*aggregate.Payout),
		reviews:   make(map[string]*aggregate.Review),
	}
}

func (s *memStore) putUser(u *aggregate.User)         { u.MarkEventsAsCommitted(); s.users[u.ID()] = u }
func (s *memStore) putProvider(p *aggregate.Provider) { p.MarkEventsAsCommitted(); s.providers[p.ID()] = p }
func (s *memStore) putService(sv *aggregate.Service)  { sv.MarkEventsAsCommitted(); s.services[sv.ID()] = sv }
func (s *memStore) putBooking(b *aggregate.Booking)   { b.MarkEventsAsCommitted(); s.bookings[b.ID()] = b }
func (s *memStore) putPayment(p *aggregate.Payment)   { p.MarkEventsAsCommitted(); s.payments[p.ID()] = p }
func (s *memStore) putPayout(p *aggregate.Payout)     { p.MarkEventsAsCommitted(); s.payouts[p.ID()] = p }

type memUnitOfWork struct {
	store *memStore
	inTx  bool
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) CreateUnitOfWork() repository.UnitOfWork {
	return &memUnitOfWork{store: f.store}
}

func (u *memUnitOfWork) Begin(ctx context.Context) error {
	u.inTx = true
	return nil
}

func (u *memUnitOfWork) Commit(ctx context.Context) error {
	u.inTx = false
	return nil
}

func (u *memUnitOfWork) Rollback(ctx context.Context) error {
	u.inTx = false
	return nil
}

func (u *memUnitOfWork) Close() error         { return nil }
func (u *memUnitOfWork) IsInTransaction() bool { return u.inTx }

func (u *memUnitOfWork) UserRepository() repository.UserRepository {
	return &memUserRepo{store: u.store}
}
func (u *memUnitOfWork) ProviderRepository() repository.ProviderRepository {
	return &memProviderRepo{store: u.store}
}
func (u *memUnitOfWork) ServiceRepository() repository.ServiceRepository {
	return &memServiceRepo{store: u.store}
}
func (u *memUnitOfWork) BookingRepository() repository.BookingRepository {
	return &memBookingRepo{store: u.store}
}
func (u *memUnitOfWork) PaymentRepository() repository.PaymentRepository {
	return &memPaymentRepo{store: u.store}
}
func (u *memUnitOfWork) PayoutRepository() repository.PayoutRepository {
	return &memPayoutRepo{store: u.store}
}
func (u *memUnitOfWork) ReviewRepository() repository.ReviewRepository {
	return &memReviewRepo{store: u.store}
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) Save(ctx context.Context, user *aggregate.User) error {
	for _, existing := range r.store.users {
		if existing.ID() != user.ID() && existing.Email() == user.Email() {
			return errors.NewConflictError("email is already registered")
		}
	}
	r.store.users[user.ID()] = user
	user.MarkEventsAsCommitted()
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*aggregate.User, error) {
	if u, ok := r.store.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found")
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*aggregate.User, error) {
	for _, u := range r.store.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]*aggregate.User, error) {
	out := make([]*aggregate.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		out = append(out, u)
	}
	return out, nil
}

type memProviderRepo struct{ store *memStore }

func (r *memProviderRepo) Save(ctx context.Context, provider *aggregate.Provider) error {
	for _, existing := range r.store.providers {
		if existing.ID() != provider.ID() && existing.UserID() == provider.UserID() {
			return errors.NewConflictError("a provider profile already exists for this user")
		}
	}
	r.store.providers[provider.ID()] = provider
	provider.MarkEventsAsCommitted()
	return nil
}

func (r *memProviderRepo) GetByID(ctx context.Context, id string) (*aggregate.Provider, error) {
	if p, ok := r.store.providers[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider not found")
}

func (r *memProviderRepo) GetByUserID(ctx context.Context, userID string) (*aggregate.Provider, error) {
	for _, p := range r.store.providers {
		if p.UserID() == userID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("provider not found")
}

func (r *memProviderRepo) List(ctx context.Context, location string, offset, limit int) ([]*aggregate.Provider, error) {
	out := make([]*aggregate.Provider, 0, len(r.store.providers))
	for _, p := range r.store.providers {
		if location == "" || p.Location() == location {
			out = append(out, p)
		}
	}
	return out, nil
}

type memServiceRepo struct{ store *memStore }

func (r *memServiceRepo) Save(ctx context.Context, service *aggregate.Service) error {
	r.store.services[service.ID()] = service
	service.MarkEventsAsCommitted()
	return nil
}

func (r *memServiceRepo) GetByID(ctx context.Context, id string) (*aggregate.Service, error) {
	if s, ok := r.store.services[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("service not found")
}

func (r *memServiceRepo) GetByProviderID(ctx context.Context, providerID string) ([]*aggregate.Service, error) {
	var out []*aggregate.Service
	for _, s := range r.store.services {
		if s.ProviderID() == providerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memServiceRepo) List(ctx context.Context, category string, offset, limit int) ([]*aggregate.Service, error) {
	var out []*aggregate.Service
	for _, s := range r.store.services {
		if category == "" || s.Category() == category {
			out = append(out, s)
		}
	}
	return out, nil
}

type memBookingRepo struct{ store *memStore }

func (r *memBookingRepo) Save(ctx context.Context, booking *aggregate.Booking) error {
	r.store.bookings[booking.ID()] = booking
	booking.MarkEventsAsCommitted()
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*aggregate.Booking, error) {
	if b, ok := r.store.bookings[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("booking not found")
}

func (r *memBookingRepo) GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Booking, error) {
	var out []*aggregate.Booking
	for _, b := range r.store.bookings {
		if b.ClientID() == clientID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Booking, error) {
	var out []*aggregate.Booking
	for _, b := range r.store.bookings {
		if b.ProviderID() == providerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) GetByStatus(ctx context.Context, status aggregate.BookingStatus) ([]*aggregate.Booking, error) {
	var out []*aggregate.Booking
	for _, b := range r.store.bookings {
		if b.Status() == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindOverlapping(ctx context.Context, providerID string, start, end time.Time) ([]*aggregate.Booking, error) {
	var out []*aggregate.Booking
	for _, b := range r.store.bookings {
		if b.ProviderID() != providerID || aggregate.IsTerminalBookingStatus(b.Status()) {
			continue
		}
		if b.ScheduledDate().Before(end) && start.Before(b.EndTime()) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memPaymentRepo struct{ store *memStore }

func (r *memPaymentRepo) Save(ctx context.Context, payment *aggregate.Payment) error {
	for _, existing := range r.store.payments {
		if existing.ID() != payment.ID() && existing.BookingID() == payment.BookingID() {
			return errors.NewConflictError("a payment already exists for this booking")
		}
	}
	r.store.payments[payment.ID()] = payment
	payment.MarkEventsAsCommitted()
	return nil
}

func (r *memPaymentRepo) GetByID(ctx context.Context, id string) (*aggregate.Payment, error) {
	if p, ok := r.store.payments[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("payment not found")
}

func (r *memPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Payment, error) {
	for _, p := range r.store.payments {
		if p.BookingID() == bookingID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payment not found")
}

func (r *memPaymentRepo) GetByPaystackRef(ctx context.Context, reference string) (*aggregate.Payment, error) {
	for _, p := range r.store.payments {
		if p.PaystackRef() == reference && reference != "" {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payment not found")
}

func (r *memPaymentRepo) GetByClientID(ctx context.Context, clientID string, offset, limit int) ([]*aggregate.Payment, error) {
	var out []*aggregate.Payment
	for _, p := range r.store.payments {
		if p.ClientID() == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) GetByStatus(ctx context.Context, status aggregate.PaymentStatus) ([]*aggregate.Payment, error) {
	var out []*aggregate.Payment
	for _, p := range r.store.payments {
		if p.Status() == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) GetStalePending(ctx context.Context, cutoff time.Time) ([]*aggregate.Payment, error) {
	var out []*aggregate.Payment
	for _, p := range r.store.payments {
		if p.Status() == aggregate.PaymentStatusPending && p.CreatedAt().Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPayoutRepo struct{ store *memStore }

func (r *memPayoutRepo) Save(ctx context.Context, payout *aggregate.Payout) error {
	for _, existing := range r.store.payouts {
		if existing.ID() != payout.ID() && existing.PaymentID() == payout.PaymentID() {
			return errors.NewConflictError("a payout already exists for this payment")
		}
	}
	r.store.payouts[payout.ID()] = payout
	payout.MarkEventsAsCommitted()
	return nil
}

func (r *memPayoutRepo) GetByID(ctx context.Context, id string) (*aggregate.Payout, error) {
	if p, ok := r.store.payouts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("payout not found")
}

func (r *memPayoutRepo) GetByPaymentID(ctx context.Context, paymentID string) (*aggregate.Payout, error) {
	for _, p := range r.store.payouts {
		if p.PaymentID() == paymentID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payout not found")
}

func (r *memPayoutRepo) GetByTransferCode(ctx context.Context, transferCode string) (*aggregate.Payout, error) {
	for _, p := range r.store.payouts {
		if p.TransferCode() == transferCode && transferCode != "" {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payout not found")
}

func (r *memPayoutRepo) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Payout, error) {
	var out []*aggregate.Payout
	for _, p := range r.store.payouts {
		if p.ProviderID() == providerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPayoutRepo) GetByStatus(ctx context.Context, status aggregate.PayoutStatus) ([]*aggregate.Payout, error) {
	var out []*aggregate.Payout
	for _, p := range r.store.payouts {
		if p.Status() == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPayoutRepo) GetAll(ctx context.Context, offset, limit int) ([]*aggregate.Payout, error) {
	out := make([]*aggregate.Payout, 0, len(r.store.payouts))
	for _, p := range r.store.payouts {
		out = append(out, p)
	}
	return out, nil
}

type memReviewRepo struct{ store *memStore }

func (r *memReviewRepo) Save(ctx context.Context, review *aggregate.Review) error {
	for _, existing := range r.store.reviews {
		if existing.ID() != review.ID() && existing.BookingID() == review.BookingID() {
			return errors.NewConflictError("this booking is already reviewed")
		}
	}
	r.store.reviews[review.ID()] = review
	review.MarkEventsAsCommitted()
	return nil
}

func (r *memReviewRepo) GetByID(ctx context.Context, id string) (*aggregate.Review, error) {
	if rev, ok := r.store.reviews[id]; ok {
		return rev, nil
	}
	return nil, fmt.Errorf("review not found")
}

func (r *memReviewRepo) GetByBookingID(ctx context.Context, bookingID string) (*aggregate.Review, error) {
	for _, rev := range r.store.reviews {
		if rev.BookingID() == bookingID {
			return rev, nil
		}
	}
	return nil, fmt.Errorf("review not found")
}

func (r *memReviewRepo) GetByProviderID(ctx context.Context, providerID string, offset, limit int) ([]*aggregate.Review, error) {
	var out []*aggregate.Review
	for _, rev := range r.store.reviews {
		if rev.ProviderID() == providerID {
			out = append(out, rev)
		}
	}
	return out, nil
}

// recordingBus captures published events for assertions
type recordingBus struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (b *recordingBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) PublishBatch(ctx context.Context, events []event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingBus) Subscribe(eventType string, handler bus.EventHandler) error {
	return nil
}

func (b *recordingBus) Start(ctx context.Context) error { return nil }
func (b *recordingBus) Stop() error                     { return nil }

func (b *recordingBus) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, evt := range b.events {
		out = append(out, evt.EventType())
	}
	return out
}

// stubGateway implements the gateway surface with pluggable responses
type stubGateway struct {
	initializeFn func(ctx context.Context, req *paystack.InitializeRequest) (*paystack.TransactionData, error)
	verifyFn     func(ctx context.Context, reference string) (*paystack.TransactionData, error)
	recipientFn  func(ctx context.Context, req *paystack.RecipientRequest) (string, error)
	transferFn   func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error)
	fetchFn      func(ctx context.Context, transferCode string) (*paystack.TransferData, error)
}

func (g *stubGateway) InitializeTransaction(ctx context.Context, req *paystack.InitializeRequest) (*paystack.TransactionData, error) {
	if g.initializeFn == nil {
		return nil, fmt.Errorf("unexpected InitializeTransaction call")
	}
	return g.initializeFn(ctx, req)
}

func (g *stubGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error) {
	if g.verifyFn == nil {
		return nil, fmt.Errorf("unexpected VerifyTransaction call")
	}
	return g.verifyFn(ctx, reference)
}

func (g *stubGateway) CreateTransferRecipient(ctx context.Context, req *paystack.RecipientRequest) (string, error) {
	if g.recipientFn == nil {
		return "", fmt.Errorf("unexpected CreateTransferRecipient call")
	}
	return g.recipientFn(ctx, req)
}

func (g *stubGateway) InitiateTransfer(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
	if g.transferFn == nil {
		return nil, fmt.Errorf("unexpected InitiateTransfer call")
	}
	return g.transferFn(ctx, req)
}

func (g *stubGateway) FetchTransfer(ctx context.Context, transferCode string) (*paystack.TransferData, error) {
	if g.fetchFn == nil {
		return nil, fmt.Errorf("unexpected FetchTransfer call")
	}
	return g.fetchFn(ctx, transferCode)
}

func (g *stubGateway) VerifyWebhookSignature(body []byte, signature string) bool { return true }
