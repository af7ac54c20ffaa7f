package command

import (
	"context"
	"testing"
	"time"

	"servicehub/internal/domain/aggregate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	resp, err := handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      f.client.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      120,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "ONLINE",
	})
	require.NoError(t, err)

	// 120 minutes at 50000/hr
	assert.Equal(t, int64(100000), resp.TotalAmount)
	assert.Equal(t, int64(10000), resp.PlatformFee)
	assert.Equal(t, string(aggregate.BookingStatusWaitingForProvider), resp.Status)

	booking := env.store.bookings[resp.BookingID]
	require.NotNil(t, booking)
	assert.Equal(t, f.provider.ID(), booking.ProviderID())

	payment := env.store.payments[resp.PaymentID]
	require.NotNil(t, payment)
	assert.Equal(t, aggregate.PaymentStatusPending, payment.Status())
	assert.Equal(t, booking.ID(), payment.BookingID())

	assert.Contains(t, env.bus.eventTypes(), "BookingCreated")
	assert.Contains(t, env.bus.eventTypes(), "PaymentCreated")
}

func TestCreateBookingCashStartsCashPending(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	resp, err := handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      f.client.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      60,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, aggregate.PaymentStatusCashPending, env.store.payments[resp.PaymentID].Status())
}

func TestCreateBookingRejectsOwnService(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	_, err := handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      f.provUser.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      60,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "CASH",
	})
	assertAppCode(t, err, "VALIDATION_ERROR")
}

func TestCreateBookingSlotConflict(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	// A second client wants the same window.
	other, err := aggregate.NewUser("Bola Ade", "bola@example.com", "", "password123", aggregate.RoleClient)
	require.NoError(t, err)
	env.store.putUser(other)

	_, err = handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      other.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: f.booking.ScheduledDate().Add(30 * time.Minute),
		Duration:      60,
		Address:       "1 Marina Road",
		PaymentMethod: "ONLINE",
	})
	assertAppCode(t, err, "CONFLICT")
}

func TestCreateBookingInactiveService(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	require.NoError(t, f.service.Deactivate())
	handler := NewCreateBookingHandler(env.factory, env.bus)

	_, err := handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      f.client.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      60,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "CASH",
	})
	assertAppCode(t, err, "VALIDATION_ERROR")
}

func TestCreateBookingOnlineBelowPayoutMinimum(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	// 10 minutes at 50000/hr nets the provider 7500 after the fee, under
	// the transfer floor.
	cmd := &CreateBookingCommand{
		ClientID:      f.client.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      10,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "ONLINE",
	}
	_, err := handler.Handle(context.Background(), cmd)
	assertAppCode(t, err, "VALIDATION_ERROR")

	// The same job paid in cash needs no payout and goes through.
	cmd.PaymentMethod = "CASH"
	_, err = handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
}

func TestCreateBookingUnknownPaymentMethod(t *testing.T) {
	env := newTestEnv()
	f := seedMarketplace(t, env.store)
	handler := NewCreateBookingHandler(env.factory, env.bus)

	_, err := handler.Handle(context.Background(), &CreateBookingCommand{
		ClientID:      f.client.ID(),
		ServiceID:     f.service.ID(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Duration:      60,
		Address:       "12 Allen Avenue, Ikeja",
		PaymentMethod: "BARTER",
	})
	assertAppCode(t, err, "VALIDATION_ERROR")
}

func TestAcceptOnlineBookingBeforeEscrow(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewProviderBookingHandler(env.factory, env.bus)

	err := handler.Accept(context.Background(), &AcceptBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
	})
	require.NoError(t, err)

	// Funds are not in escrow yet, so the job is parked.
	assert.Equal(t, aggregate.BookingStatusPendingExecution, env.store.bookings[f.booking.ID()].Status())
}

func TestAcceptEscrowedOnlineBooking(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	handler := NewProviderBookingHandler(env.factory, env.bus)

	err := handler.Accept(context.Background(), &AcceptBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, aggregate.BookingStatusConfirmed, env.store.bookings[f.booking.ID()].Status())
}

func TestAcceptRequiresProviderProfile(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)
	handler := NewProviderBookingHandler(env.factory, env.bus)

	err := handler.Accept(context.Background(), &AcceptBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.client.ID(),
	})
	assertAppCode(t, err, "FORBIDDEN")
}

func TestDeclineCancelsBookingAndPayment(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewProviderBookingHandler(env.factory, env.bus)

	err := handler.Decline(context.Background(), &DeclineBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
		Reason:    "fully booked that day",
	})
	require.NoError(t, err)

	assert.Equal(t, aggregate.BookingStatusCancelled, env.store.bookings[f.booking.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusAbandoned, env.store.payments[f.payment.ID()].Status())
}

func TestStartOnlineJobRequiresEscrow(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewProviderBookingHandler(env.factory, env.bus)

	require.NoError(t, handler.Accept(context.Background(), &AcceptBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
	}))

	err := handler.Start(context.Background(), &StartJobCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
	})
	assertAppCode(t, err, "UNPROCESSABLE")

	f.fundEscrow(t)

	require.NoError(t, handler.Start(context.Background(), &StartJobCommand{
		BookingID: f.booking.ID(),
		UserID:    f.provUser.ID(),
	}))
	assert.Equal(t, aggregate.BookingStatusInProgress, env.store.bookings[f.booking.ID()].Status())
}

func TestCashLifecycle(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)
	provider := NewProviderBookingHandler(env.factory, env.bus)
	confirm := NewConfirmCompletionHandler(env.factory, env.bus)
	ctx := context.Background()

	require.NoError(t, provider.Accept(ctx, &AcceptBookingCommand{BookingID: f.booking.ID(), UserID: f.provUser.ID()}))
	require.NoError(t, provider.Start(ctx, &StartJobCommand{BookingID: f.booking.ID(), UserID: f.provUser.ID()}))
	require.NoError(t, provider.Finish(ctx, &FinishJobCommand{BookingID: f.booking.ID(), UserID: f.provUser.ID()}))

	// The client cannot confirm before the provider has the cash in hand.
	err := confirm.Handle(ctx, &ConfirmCompletionCommand{BookingID: f.booking.ID(), ClientID: f.client.ID()})
	assertAppCode(t, err, "UNPROCESSABLE")

	require.NoError(t, provider.ConfirmCashReceived(ctx, &ConfirmCashReceivedCommand{BookingID: f.booking.ID(), UserID: f.provUser.ID()}))
	assert.Equal(t, aggregate.PaymentStatusCashPaid, env.store.payments[f.payment.ID()].Status())

	require.NoError(t, confirm.Handle(ctx, &ConfirmCompletionCommand{BookingID: f.booking.ID(), ClientID: f.client.ID()}))
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())

	// No payout for cash: the provider was paid directly.
	assert.Empty(t, env.store.payouts)
}

func TestCancelAbandonsPendingCheckout(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewCancelBookingHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &CancelBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.client.ID(),
		Reason:    "change of plans",
	})
	require.NoError(t, err)

	assert.Equal(t, aggregate.BookingStatusCancelled, env.store.bookings[f.booking.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusAbandoned, env.store.payments[f.payment.ID()].Status())
}

func TestCancelRefundsEscrowedPayment(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	handler := NewCancelBookingHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &CancelBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.client.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, aggregate.PaymentStatusRefunded, env.store.payments[f.payment.ID()].Status())
}

func TestCancelForbiddenForStranger(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	handler := NewCancelBookingHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &CancelBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    "someone-else",
	})
	assertAppCode(t, err, "FORBIDDEN")
}

func TestCancelTooLateInLifecycle(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	f.toAwaitingConfirmation(t)
	handler := NewCancelBookingHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &CancelBookingCommand{
		BookingID: f.booking.ID(),
		UserID:    f.client.ID(),
	})
	assertAppCode(t, err, "UNPROCESSABLE")
}

func TestConfirmCompletionStartsRelease(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	f.toAwaitingConfirmation(t)
	handler := NewConfirmCompletionHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &ConfirmCompletionCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.client.ID(),
	})
	require.NoError(t, err)

	assert.Equal(t, aggregate.PaymentStatusProcessingRelease, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusPaymentProcessing, env.store.bookings[f.booking.ID()].Status())

	require.Len(t, env.store.payouts, 1)
	for _, payout := range env.store.payouts {
		assert.Equal(t, aggregate.PayoutStatusPending, payout.Status())
		assert.Equal(t, int64(90000), payout.Amount())
		assert.Equal(t, f.payment.ID(), payout.PaymentID())
		assert.Equal(t, "RCP_test", payout.Bank().RecipientCode)
	}

	assert.Contains(t, env.bus.eventTypes(), "PayoutRequested")
}

func TestConfirmCompletionRetryIsIdempotent(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	f.toAwaitingConfirmation(t)
	handler := NewConfirmCompletionHandler(env.factory, env.bus)
	ctx := context.Background()

	cmd := &ConfirmCompletionCommand{BookingID: f.booking.ID(), ClientID: f.client.ID()}
	require.NoError(t, handler.Handle(ctx, cmd))
	published := len(env.bus.eventTypes())

	// A repeated confirmation succeeds without duplicating the payout or
	// moving any state.
	require.NoError(t, handler.Handle(ctx, cmd))
	require.Len(t, env.store.payouts, 1)
	assert.Len(t, env.bus.eventTypes(), published)
	assert.Equal(t, aggregate.PaymentStatusProcessingRelease, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusPaymentProcessing, env.store.bookings[f.booking.ID()].Status())
}

func TestConfirmCompletionOnlyByClient(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.fundEscrow(t)
	f.toAwaitingConfirmation(t)
	handler := NewConfirmCompletionHandler(env.factory, env.bus)

	err := handler.Handle(context.Background(), &ConfirmCompletionCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.provUser.ID(),
	})
	assertAppCode(t, err, "FORBIDDEN")
}

func TestConfirmCompletionRequiresBankAccount(t *testing.T) {
	env := newTestEnv()

	client, err := aggregate.NewUser("Ada Obi", "ada@example.com", "", "password123", aggregate.RoleClient)
	require.NoError(t, err)
	provUser, err := aggregate.NewUser("Chidi Eze", "chidi@example.com", "", "password123", aggregate.RoleProvider)
	require.NoError(t, err)
	provider, err := aggregate.NewProvider(provUser.ID(), "Chidi's Cleaning", "", "Lagos")
	require.NoError(t, err)

	booking, err := aggregate.NewBooking(client.ID(), provider.ID(), "service-1", "",
		time.Now().Add(24*time.Hour), 60, "12 Allen Avenue, Ikeja", "", 100000, aggregate.PaymentMethodOnline)
	require.NoError(t, err)
	payment, err := aggregate.NewPayment(booking.ID(), client.ID(), provider.ID(), 100000, aggregate.PaymentMethodOnline)
	require.NoError(t, err)

	require.NoError(t, payment.AttachCheckout(payment.ID(), "https://checkout.paystack.com/abc"))
	require.NoError(t, payment.MarkEscrowed())
	require.NoError(t, booking.Accept(provider.ID()))
	require.NoError(t, booking.Start(provider.ID()))
	require.NoError(t, booking.Finish(provider.ID()))

	env.store.putUser(client)
	env.store.putUser(provUser)
	env.store.putProvider(provider)
	env.store.putBooking(booking)
	env.store.putPayment(payment)

	handler := NewConfirmCompletionHandler(env.factory, env.bus)
	err = handler.Handle(context.Background(), &ConfirmCompletionCommand{
		BookingID: booking.ID(),
		ClientID:  client.ID(),
	})
	assertAppCode(t, err, "UNPROCESSABLE")

	// Nothing moved: the client can confirm again once the account is set.
	assert.Equal(t, aggregate.PaymentStatusEscrow, env.store.payments[payment.ID()].Status())
	assert.Empty(t, env.store.payouts)
}

func TestConfirmCompletionReusesFailedPayout(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	// A transfer went out and bounced; the release was compensated.
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	require.NoError(t, payout.MarkAsFailed("insufficient balance"))
	payout.MarkEventsAsCommitted()
	require.NoError(t, f.payment.RollbackRelease("transfer failed"))
	require.NoError(t, f.booking.RevertToAwaitingConfirmation("transfer failed"))
	f.payment.MarkEventsAsCommitted()
	f.booking.MarkEventsAsCommitted()

	handler := NewConfirmCompletionHandler(env.factory, env.bus)
	err := handler.Handle(context.Background(), &ConfirmCompletionCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.client.ID(),
	})
	require.NoError(t, err)

	// The failed payout is kept for the admin to retry; no duplicate row.
	require.Len(t, env.store.payouts, 1)
	assert.Equal(t, aggregate.PayoutStatusFailed, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusProcessingRelease, env.store.payments[f.payment.ID()].Status())
}
