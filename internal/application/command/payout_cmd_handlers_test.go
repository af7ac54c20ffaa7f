package command

import (
	"context"
	"fmt"
	"testing"

	"servicehub/internal/domain/aggregate"
	"servicehub/internal/infrastructure/paystack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessPayout(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	var sent *paystack.TransferRequest
	gateway := &stubGateway{
		transferFn: func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
			sent = req
			return &paystack.TransferData{
				TransferCode: "TRF_9",
				Reference:    req.Reference,
				Status:       paystack.TransferPending,
				Amount:       req.Amount,
			}, nil
		},
	}

	handler := NewProcessPayoutHandler(env.factory, env.bus, gateway)
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, int64(90000), sent.Amount)
	assert.Equal(t, "RCP_test", sent.Recipient)
	assert.Equal(t, payout.ID(), sent.Reference)

	got := env.store.payouts[payout.ID()]
	assert.Equal(t, aggregate.PayoutStatusProcessing, got.Status())
	assert.Equal(t, "TRF_9", got.TransferCode())

	// Settlement waits for the transfer webhook.
	assert.Equal(t, aggregate.PaymentStatusProcessingRelease, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusPaymentProcessing, env.store.bookings[f.booking.ID()].Status())
}

func TestProcessPayoutSynchronousSuccess(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	gateway := &stubGateway{
		transferFn: func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
			return &paystack.TransferData{TransferCode: "TRF_9", Status: paystack.TransferSuccess}, nil
		},
	}

	handler := NewProcessPayoutHandler(env.factory, env.bus, gateway)
	require.NoError(t, handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()}))

	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusReleased, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())
}

func TestProcessPayoutAlreadyInFlight(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	payout.MarkEventsAsCommitted()

	handler := NewProcessPayoutHandler(env.factory, env.bus, &stubGateway{})
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "CONFLICT")
}

func TestProcessPayoutAlreadySettled(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	require.NoError(t, payout.MarkAsCompleted())
	payout.MarkEventsAsCommitted()

	handler := NewProcessPayoutHandler(env.factory, env.bus, &stubGateway{})
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "CONFLICT")
}

func TestProcessPayoutGatewayClientError(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	gateway := &stubGateway{
		transferFn: func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
			return nil, &paystack.APIError{StatusCode: 400, Message: "Invalid recipient"}
		},
	}

	handler := NewProcessPayoutHandler(env.factory, env.bus, gateway)
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "UNPROCESSABLE")

	// The failure lands on the admin dashboard instead of vanishing.
	got := env.store.payouts[payout.ID()]
	assert.Equal(t, aggregate.PayoutStatusFailed, got.Status())
	assert.Equal(t, "Invalid recipient", got.FailReason())
	assert.Contains(t, env.bus.eventTypes(), "PayoutFailed")
}

func TestProcessPayoutGatewayOutage(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	gateway := &stubGateway{
		transferFn: func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	handler := NewProcessPayoutHandler(env.factory, env.bus, gateway)
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "INTERNAL_ERROR")
	assert.Equal(t, aggregate.PayoutStatusFailed, env.store.payouts[payout.ID()].Status())
}

func TestProcessPayoutRetryAfterRollbackReappliesRelease(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	payout.MarkEventsAsCommitted()

	// First transfer bounces; the webhook compensates the release.
	settle := NewSettleTransferHandler(env.factory, env.bus, nil)
	require.NoError(t, settle.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_1",
		Status:       paystack.TransferFailed,
		Reason:       "insufficient balance",
	}))
	require.Equal(t, aggregate.PaymentStatusEscrow, env.store.payments[f.payment.ID()].Status())

	gateway := &stubGateway{
		transferFn: func(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error) {
			return &paystack.TransferData{TransferCode: "TRF_2", Status: paystack.TransferPending}, nil
		},
	}
	process := NewProcessPayoutHandler(env.factory, env.bus, gateway)
	require.NoError(t, process.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()}))

	// The retry puts the release back in flight alongside the new transfer.
	assert.Equal(t, aggregate.PayoutStatusProcessing, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusProcessingRelease, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusPaymentProcessing, env.store.bookings[f.booking.ID()].Status())

	// So the success webhook settles everything, not just the payout.
	require.NoError(t, settle.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_2",
		Status:       paystack.TransferSuccess,
	}))
	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusReleased, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())
}

func TestProcessPayoutRejectsUnreleasablePayment(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, f.payment.MarkReleased())
	f.payment.MarkEventsAsCommitted()

	// No transferFn: reaching the gateway would fail the test.
	handler := NewProcessPayoutHandler(env.factory, env.bus, &stubGateway{})
	err := handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "CONFLICT")
}

func TestProcessPayoutWithoutRecipientCode(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	f.toReleaseInFlight(t, env.store)

	bank := testBank()
	bank.RecipientCode = ""
	payout, err := aggregate.NewPayout("provider-2", "payment-2", "booking-2", 90000, bank)
	require.NoError(t, err)
	env.store.putPayout(payout)

	handler := NewProcessPayoutHandler(env.factory, env.bus, &stubGateway{})
	err = handler.Handle(context.Background(), &ProcessPayoutCommand{PayoutID: payout.ID()})
	assertAppCode(t, err, "UNPROCESSABLE")
}

func TestMarkPayoutPaid(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	handler := NewMarkPayoutPaidHandler(env.factory, env.bus)
	require.NoError(t, handler.Handle(context.Background(), &MarkPayoutPaidCommand{PayoutID: payout.ID()}))

	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusReleased, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())
}

func TestMarkPayoutPaidAfterRollbackSettlesEverything(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	payout.MarkEventsAsCommitted()

	settle := NewSettleTransferHandler(env.factory, env.bus, nil)
	require.NoError(t, settle.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_1",
		Status:       paystack.TransferFailed,
		Reason:       "insufficient balance",
	}))

	// The admin pays the provider outside the gateway. The escrowed payment
	// and the booking close out with the payout, not just the payout row.
	handler := NewMarkPayoutPaidHandler(env.factory, env.bus)
	require.NoError(t, handler.Handle(context.Background(), &MarkPayoutPaidCommand{PayoutID: payout.ID()}))

	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusReleased, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())
}

func TestMarkPayoutPaidTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)

	handler := NewMarkPayoutPaidHandler(env.factory, env.bus)
	cmd := &MarkPayoutPaidCommand{PayoutID: payout.ID()}
	require.NoError(t, handler.Handle(context.Background(), cmd))

	err := handler.Handle(context.Background(), cmd)
	assertAppCode(t, err, "CONFLICT")
}

func TestSettleTransferSuccess(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_9"))
	payout.MarkEventsAsCommitted()

	handler := NewSettleTransferHandler(env.factory, env.bus, nil)
	err := handler.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_9",
		Status:       paystack.TransferSuccess,
	})
	require.NoError(t, err)

	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusReleased, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusCompleted, env.store.bookings[f.booking.ID()].Status())
	assert.Contains(t, env.bus.eventTypes(), "PayoutCompleted")
}

func TestSettleTransferFailureRollsBackRelease(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_9"))
	payout.MarkEventsAsCommitted()

	handler := NewSettleTransferHandler(env.factory, env.bus, nil)
	err := handler.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_9",
		Status:       paystack.TransferFailed,
		Reason:       "insufficient balance",
	})
	require.NoError(t, err)

	// The money never left: payment returns to escrow so the client's next
	// confirmation can retry the release.
	assert.Equal(t, aggregate.PayoutStatusFailed, env.store.payouts[payout.ID()].Status())
	assert.Equal(t, aggregate.PaymentStatusEscrow, env.store.payments[f.payment.ID()].Status())
	assert.Equal(t, aggregate.BookingStatusAwaitingConfirmation, env.store.bookings[f.booking.ID()].Status())
}

func TestSettleTransferReversedRollsBackRelease(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_9"))
	payout.MarkEventsAsCommitted()

	handler := NewSettleTransferHandler(env.factory, env.bus, nil)
	err := handler.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_9",
		Status:       paystack.TransferReversed,
		Reason:       "bank rejected the credit",
	})
	require.NoError(t, err)
	assert.Equal(t, aggregate.PaymentStatusEscrow, env.store.payments[f.payment.ID()].Status())
}

func TestSettleTransferReplayIsNoOp(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_9"))
	payout.MarkEventsAsCommitted()

	handler := NewSettleTransferHandler(env.factory, env.bus, nil)
	cmd := &SettleTransferCommand{TransferCode: "TRF_9", Status: paystack.TransferSuccess}
	require.NoError(t, handler.Handle(context.Background(), cmd))
	published := len(env.bus.eventTypes())

	require.NoError(t, handler.Handle(context.Background(), cmd))
	assert.Len(t, env.bus.eventTypes(), published)
	assert.Equal(t, aggregate.PayoutStatusCompleted, env.store.payouts[payout.ID()].Status())
}

func TestSettleTransferUnknownCode(t *testing.T) {
	env := newTestEnv()
	handler := NewSettleTransferHandler(env.factory, env.bus, nil)

	err := handler.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_ghost",
		Status:       paystack.TransferSuccess,
	})
	assertAppCode(t, err, "NOT_FOUND")
}

func TestSettleTransferStillPending(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodOnline)
	payout := f.toReleaseInFlight(t, env.store)
	require.NoError(t, payout.MarkAsProcessing("TRF_9"))
	payout.MarkEventsAsCommitted()

	handler := NewSettleTransferHandler(env.factory, env.bus, nil)
	err := handler.Handle(context.Background(), &SettleTransferCommand{
		TransferCode: "TRF_9",
		Status:       paystack.TransferPending,
	})
	require.NoError(t, err)
	assert.Equal(t, aggregate.PayoutStatusProcessing, env.store.payouts[payout.ID()].Status())
}
