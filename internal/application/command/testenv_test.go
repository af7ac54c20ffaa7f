package command

import (
	"testing"
	"time"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *memStore
	factory *memFactory
	bus     *recordingBus
}

func newTestEnv() *testEnv {
	store := newMemStore()
	return &testEnv{
		store:   store,
		factory: &memFactory{store: store},
		bus:     &recordingBus{},
	}
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *errors.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func testBank() aggregate.BankAccount {
	return aggregate.BankAccount{
		BankCode:      "058",
		BankName:      "GTBank",
		AccountNumber: "0123456789",
		AccountName:   "Chidi Eze",
		RecipientCode: "RCP_test",
	}
}

// bookingFixture is a client, a provider with a bank account and a booking
// with its payment, seeded straight into the store.
type bookingFixture struct {
	client   *aggregate.User
	provUser *aggregate.User
	provider *aggregate.Provider
	service  *aggregate.Service
	booking  *aggregate.Booking
	payment  *aggregate.Payment
}

// seedMarketplace seeds a client, a provider with a bank account and one
// hourly service, without any booking yet
func seedMarketplace(t *testing.T, store *memStore) *bookingFixture {
	t.Helper()

	client, err := aggregate.NewUser("Ada Obi", "ada@example.com", "", "password123", aggregate.RoleClient)
	require.NoError(t, err)
	provUser, err := aggregate.NewUser("Chidi Eze", "chidi@example.com", "", "password123", aggregate.RoleProvider)
	require.NoError(t, err)

	provider, err := aggregate.NewProvider(provUser.ID(), "Chidi's Cleaning", "Home cleaning", "Lagos")
	require.NoError(t, err)
	require.NoError(t, provider.SetBankAccount(testBank()))

	service, err := aggregate.NewService(provider.ID(), "Deep cleaning", "", "cleaning", 50000, nil)
	require.NoError(t, err)

	store.putUser(client)
	store.putUser(provUser)
	store.putProvider(provider)
	store.putService(service)

	return &bookingFixture{
		client:   client,
		provUser: provUser,
		provider: provider,
		service:  service,
	}
}

func seedBooking(t *testing.T, store *memStore, method aggregate.PaymentMethod) *bookingFixture {
	t.Helper()

	f := seedMarketplace(t, store)

	booking, err := aggregate.NewBooking(
		f.client.ID(), f.provider.ID(), f.service.ID(), "",
		time.Now().Add(24*time.Hour), 120,
		"12 Allen Avenue, Ikeja", "", 100000, method,
	)
	require.NoError(t, err)

	payment, err := aggregate.NewPayment(booking.ID(), f.client.ID(), f.provider.ID(), 100000, method)
	require.NoError(t, err)

	store.putBooking(booking)
	store.putPayment(payment)

	f.booking = booking
	f.payment = payment
	return f
}

// fundEscrow attaches a checkout and marks the online payment escrowed
func (f *bookingFixture) fundEscrow(t *testing.T) {
	t.Helper()
	require.NoError(t, f.payment.AttachCheckout(f.payment.ID(), "https://checkout.paystack.com/abc"))
	require.NoError(t, f.payment.MarkEscrowed())
	f.payment.MarkEventsAsCommitted()
}

// toAwaitingConfirmation walks the booking through the provider lifecycle
// until the client's confirmation is the next step
func (f *bookingFixture) toAwaitingConfirmation(t *testing.T) {
	t.Helper()
	require.NoError(t, f.booking.Accept(f.provider.ID()))
	require.NoError(t, f.booking.Start(f.provider.ID()))
	require.NoError(t, f.booking.Finish(f.provider.ID()))
	f.booking.MarkEventsAsCommitted()
}

// toReleaseInFlight puts the fixture in the consolidated-release state: the
// payment is PROCESSING_RELEASE, the booking PAYMENT_PROCESSING and a
// pending payout exists for the provider's amount.
func (f *bookingFixture) toReleaseInFlight(t *testing.T, store *memStore) *aggregate.Payout {
	t.Helper()
	f.fundEscrow(t)
	f.toAwaitingConfirmation(t)

	require.NoError(t, f.payment.BeginRelease())
	require.NoError(t, f.booking.BeginPaymentProcessing())
	f.payment.MarkEventsAsCommitted()
	f.booking.MarkEventsAsCommitted()

	payout, err := aggregate.NewPayout(
		f.provider.ID(), f.payment.ID(), f.booking.ID(),
		f.payment.ProviderAmount(), testBank(),
	)
	require.NoError(t, err)
	store.putPayout(payout)
	return payout
}
