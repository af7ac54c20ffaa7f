package aggregate

import (
	"testing"
	"time"

	"servicehub/internal/domain/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T, providerID string, method PaymentMethod) *Booking {
	t.Helper()
	booking, err := NewBooking(
		"client-1", providerID, "service-1", "item-1",
		time.Now().Add(24*time.Hour), 60,
		"12 Allen Avenue, Ikeja", "",
		100000, method,
	)
	require.NoError(t, err)
	return booking
}

func TestNewBooking(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodOnline)

	assert.NotEmpty(t, booking.ID())
	assert.Equal(t, BookingStatusWaitingForProvider, booking.Status())
	assert.Equal(t, int64(100000), booking.TotalAmount())
	assert.Equal(t, int64(10000), booking.PlatformFee())
	assert.Equal(t, 1, booking.Version())

	events := booking.GetUncommittedEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*event.BookingCreated)
	require.True(t, ok)
	assert.Equal(t, booking.ID(), created.BookingID)
	assert.Equal(t, "ONLINE", created.PaymentMethod)
}

func TestNewBookingWithoutProviderStartsPending(t *testing.T) {
	booking := newTestBooking(t, "", PaymentMethodCash)
	assert.Equal(t, BookingStatusPending, booking.Status())
}

func TestNewBookingValidation(t *testing.T) {
	date := time.Now().Add(time.Hour)

	_, err := NewBooking("", "p", "s", "", date, 60, "addr", "", 100000, PaymentMethodCash)
	assert.Error(t, err)

	_, err = NewBooking("c", "p", "", "", date, 60, "addr", "", 100000, PaymentMethodCash)
	assert.Error(t, err)

	_, err = NewBooking("c", "p", "s", "", date, 0, "addr", "", 100000, PaymentMethodCash)
	assert.Error(t, err)

	_, err = NewBooking("c", "p", "s", "", date, 60, "addr", "", 0, PaymentMethodCash)
	assert.Error(t, err)

	_, err = NewBooking("c", "p", "s", "", date, 60, "addr", "", 100000, PaymentMethod("CARD"))
	assert.Error(t, err)
}

func TestBookingAcceptOnlyByAssignedProvider(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)

	err := booking.Accept("provider-2")
	assert.Error(t, err)
	assert.Equal(t, BookingStatusWaitingForProvider, booking.Status())

	require.NoError(t, booking.Accept("provider-1"))
	assert.Equal(t, BookingStatusConfirmed, booking.Status())
}

func TestBookingCashLifecycle(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)

	require.NoError(t, booking.Accept("provider-1"))
	require.NoError(t, booking.Start("provider-1"))
	assert.Equal(t, BookingStatusInProgress, booking.Status())
	require.NoError(t, booking.Finish("provider-1"))
	assert.Equal(t, BookingStatusAwaitingConfirmation, booking.Status())
	require.NoError(t, booking.Complete())
	assert.Equal(t, BookingStatusCompleted, booking.Status())
}

func TestBookingOnlineLifecycleWithRelease(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodOnline)

	require.NoError(t, booking.Accept("provider-1"))
	require.NoError(t, booking.MarkPendingExecution())
	require.NoError(t, booking.Start("provider-1"))
	require.NoError(t, booking.Finish("provider-1"))
	require.NoError(t, booking.BeginPaymentProcessing())
	assert.Equal(t, BookingStatusPaymentProcessing, booking.Status())
	require.NoError(t, booking.Complete())
	assert.Equal(t, BookingStatusCompleted, booking.Status())
}

func TestBookingRevertToAwaitingConfirmation(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodOnline)
	require.NoError(t, booking.Accept("provider-1"))
	require.NoError(t, booking.Start("provider-1"))
	require.NoError(t, booking.Finish("provider-1"))
	require.NoError(t, booking.BeginPaymentProcessing())

	require.NoError(t, booking.RevertToAwaitingConfirmation("transfer failed"))
	assert.Equal(t, BookingStatusAwaitingConfirmation, booking.Status())

	// And the release can be retried afterwards.
	require.NoError(t, booking.BeginPaymentProcessing())
}

func TestBookingStartRequiresConfirmed(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)
	err := booking.Start("provider-1")
	assert.Error(t, err)
}

func TestBookingFinishRequiresInProgress(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)
	require.NoError(t, booking.Accept("provider-1"))
	err := booking.Finish("provider-1")
	assert.Error(t, err)
}

func TestBookingCancel(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)
	require.NoError(t, booking.Cancel("client changed plans"))
	assert.Equal(t, BookingStatusCancelled, booking.Status())

	// Terminal, nothing moves it again.
	assert.Error(t, booking.Accept("provider-1"))
	assert.Error(t, booking.Cancel("again"))
}

func TestBookingCannotCancelOnceAwaitingConfirmation(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)
	require.NoError(t, booking.Accept("provider-1"))
	require.NoError(t, booking.Start("provider-1"))
	require.NoError(t, booking.Finish("provider-1"))

	assert.Error(t, booking.Cancel("too late"))
}

func TestBookingAssignProvider(t *testing.T) {
	booking := newTestBooking(t, "", PaymentMethodCash)

	require.NoError(t, booking.AssignProvider("provider-1"))
	assert.Equal(t, BookingStatusWaitingForProvider, booking.Status())
	assert.Equal(t, "provider-1", booking.ProviderID())

	err := booking.AssignProvider("provider-2")
	assert.Error(t, err)
}

func TestBookingEndTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	booking, err := NewBooking("c", "p", "s", "", start, 90, "addr", "", 100000, PaymentMethodCash)
	require.NoError(t, err)
	assert.Equal(t, start.Add(90*time.Minute), booking.EndTime())
}

func TestBookingStatusChangeRaisesEvent(t *testing.T) {
	booking := newTestBooking(t, "provider-1", PaymentMethodCash)
	booking.MarkEventsAsCommitted()

	require.NoError(t, booking.Accept("provider-1"))

	events := booking.GetUncommittedEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*event.BookingStatusChanged)
	require.True(t, ok)
	assert.Equal(t, string(BookingStatusWaitingForProvider), changed.OldStatus)
	assert.Equal(t, string(BookingStatusConfirmed), changed.NewStatus)
}

func TestIsTerminalBookingStatus(t *testing.T) {
	assert.True(t, IsTerminalBookingStatus(BookingStatusCompleted))
	assert.True(t, IsTerminalBookingStatus(BookingStatusCancelled))
	assert.False(t, IsTerminalBookingStatus(BookingStatusPending))
	assert.False(t, IsTerminalBookingStatus(BookingStatusPaymentProcessing))
}
