package aggregate

import (
	"testing"

	"servicehub/internal/domain/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, method PaymentMethod) *Payment {
	t.Helper()
	payment, err := NewPayment("booking-1", "client-1", "provider-1", 100000, method)
	require.NoError(t, err)
	return payment
}

func TestNewPayment(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)

	assert.Equal(t, PaymentStatusPending, payment.Status())
	assert.Equal(t, int64(100000), payment.Amount())
	assert.Equal(t, int64(10000), payment.PlatformFee())
	assert.Equal(t, int64(90000), payment.ProviderAmount())

	cash := newTestPayment(t, PaymentMethodCash)
	assert.Equal(t, PaymentStatusCashPending, cash.Status())
}

func TestNewPaymentValidation(t *testing.T) {
	_, err := NewPayment("", "c", "p", 100000, PaymentMethodOnline)
	assert.Error(t, err)

	_, err = NewPayment("b", "c", "p", 0, PaymentMethodOnline)
	assert.Error(t, err)

	_, err = NewPayment("b", "c", "p", 100000, PaymentMethod("WIRE"))
	assert.Error(t, err)
}

func TestPaymentAttachCheckout(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)

	require.NoError(t, payment.AttachCheckout("ref-123", "https://checkout.paystack.com/x"))
	assert.Equal(t, "ref-123", payment.PaystackRef())
	assert.Equal(t, PaymentStatusPending, payment.Status())

	assert.Error(t, payment.AttachCheckout("", "url"))
}

func TestPaymentEscrowReleaseFlow(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)

	require.NoError(t, payment.MarkEscrowed())
	assert.Equal(t, PaymentStatusEscrow, payment.Status())
	assert.False(t, payment.PaidAt().IsZero())

	require.NoError(t, payment.BeginRelease())
	assert.Equal(t, PaymentStatusProcessingRelease, payment.Status())

	require.NoError(t, payment.MarkReleased())
	assert.Equal(t, PaymentStatusReleased, payment.Status())
	assert.False(t, payment.ReleasedAt().IsZero())
	assert.True(t, payment.IsSettled())
}

func TestPaymentRollbackRelease(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, payment.MarkEscrowed())
	require.NoError(t, payment.BeginRelease())

	require.NoError(t, payment.RollbackRelease("transfer reversed"))
	assert.Equal(t, PaymentStatusEscrow, payment.Status())

	// The funds are back in escrow, so the release can run again.
	require.NoError(t, payment.BeginRelease())
	require.NoError(t, payment.MarkReleased())
}

func TestPaymentCashCannotEnterEscrow(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodCash)
	assert.Error(t, payment.MarkEscrowed())
}

func TestPaymentConfirmCashReceived(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodCash)

	require.NoError(t, payment.ConfirmCashReceived())
	assert.Equal(t, PaymentStatusCashPaid, payment.Status())
	assert.True(t, payment.IsSettled())

	assert.Error(t, payment.ConfirmCashReceived())

	online := newTestPayment(t, PaymentMethodOnline)
	assert.Error(t, online.ConfirmCashReceived())
}

func TestPaymentMarkAbandoned(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, payment.MarkAbandoned())
	assert.Equal(t, PaymentStatusAbandoned, payment.Status())

	escrowed := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, escrowed.MarkEscrowed())
	assert.Error(t, escrowed.MarkAbandoned())
}

func TestPaymentEscrowedCannotFail(t *testing.T) {
	// Once money is held, the only exits are release or refund.
	payment := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, payment.MarkEscrowed())

	assert.Error(t, payment.MarkFailed("late failure webhook"))
	assert.Error(t, payment.MarkAbandoned())
	assert.Equal(t, PaymentStatusEscrow, payment.Status())
}

func TestPaymentRefundFromEscrow(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, payment.MarkEscrowed())
	require.NoError(t, payment.MarkRefunded("booking cancelled"))
	assert.Equal(t, PaymentStatusRefunded, payment.Status())
}

func TestPaymentReleasedIsTerminal(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)
	require.NoError(t, payment.MarkEscrowed())
	require.NoError(t, payment.BeginRelease())
	require.NoError(t, payment.MarkReleased())

	assert.Error(t, payment.MarkRefunded("too late"))
	assert.Error(t, payment.BeginRelease())
	assert.Error(t, payment.RollbackRelease("no"))
}

func TestPaymentStatusChangeRaisesEvent(t *testing.T) {
	payment := newTestPayment(t, PaymentMethodOnline)
	payment.MarkEventsAsCommitted()

	require.NoError(t, payment.MarkEscrowed())

	events := payment.GetUncommittedEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*event.PaymentStatusChanged)
	require.True(t, ok)
	assert.Equal(t, string(PaymentStatusPending), changed.OldStatus)
	assert.Equal(t, string(PaymentStatusEscrow), changed.NewStatus)
}
