package aggregate

import (
	"testing"

	"servicehub/internal/domain/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBankAccount() BankAccount {
	return BankAccount{
		BankCode:      "058",
		BankName:      "GTBank",
		AccountNumber: "0123456789",
		AccountName:   "Ada Obi",
		RecipientCode: "RCP_test",
	}
}

func newTestPayout(t *testing.T) *Payout {
	t.Helper()
	payout, err := NewPayout("provider-1", "payment-1", "booking-1", 90000, testBankAccount())
	require.NoError(t, err)
	return payout
}

func TestNewPayout(t *testing.T) {
	payout := newTestPayout(t)

	assert.Equal(t, PayoutStatusPending, payout.Status())
	assert.Equal(t, int64(90000), payout.Amount())
	assert.Equal(t, "RCP_test", payout.Bank().RecipientCode)

	events := payout.GetUncommittedEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(*event.PayoutRequested)
	require.True(t, ok)
}

func TestNewPayoutBelowMinimum(t *testing.T) {
	_, err := NewPayout("provider-1", "payment-1", "booking-1", MinPayoutAmount-1, testBankAccount())
	assert.Error(t, err)

	_, err = NewPayout("provider-1", "payment-1", "booking-1", MinPayoutAmount, testBankAccount())
	assert.NoError(t, err)
}

func TestNewPayoutInvalidBank(t *testing.T) {
	bank := testBankAccount()
	bank.AccountNumber = ""
	_, err := NewPayout("provider-1", "payment-1", "booking-1", 90000, bank)
	assert.Error(t, err)
}

func TestBankAccountValidate(t *testing.T) {
	assert.NoError(t, testBankAccount().Validate())

	for _, mutate := range []func(*BankAccount){
		func(b *BankAccount) { b.BankCode = "" },
		func(b *BankAccount) { b.AccountNumber = "" },
		func(b *BankAccount) { b.AccountName = "" },
	} {
		bank := testBankAccount()
		mutate(&bank)
		assert.Error(t, bank.Validate())
	}
}

func TestPayoutProcessingToCompleted(t *testing.T) {
	payout := newTestPayout(t)

	require.NoError(t, payout.MarkAsProcessing("TRF_123"))
	assert.Equal(t, PayoutStatusProcessing, payout.Status())
	assert.Equal(t, "TRF_123", payout.TransferCode())
	assert.False(t, payout.ProcessedAt().IsZero())

	require.NoError(t, payout.MarkAsCompleted())
	assert.Equal(t, PayoutStatusCompleted, payout.Status())
	assert.False(t, payout.CompletedAt().IsZero())
}

func TestPayoutFailureIsRetryable(t *testing.T) {
	payout := newTestPayout(t)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	require.NoError(t, payout.MarkAsFailed("insufficient balance"))
	assert.Equal(t, PayoutStatusFailed, payout.Status())
	assert.Equal(t, "insufficient balance", payout.FailReason())

	// A failed payout accepts another transfer attempt.
	require.NoError(t, payout.MarkAsProcessing("TRF_2"))
	assert.Equal(t, "TRF_2", payout.TransferCode())
	assert.Empty(t, payout.FailReason())
	require.NoError(t, payout.MarkAsCompleted())
}

func TestPayoutMarkAsPaidManually(t *testing.T) {
	payout := newTestPayout(t)
	require.NoError(t, payout.MarkAsFailed("transfer failed"))

	require.NoError(t, payout.MarkAsPaidManually())
	assert.Equal(t, PayoutStatusCompleted, payout.Status())
	assert.Empty(t, payout.FailReason())
}

func TestPayoutCompletedIsTerminal(t *testing.T) {
	payout := newTestPayout(t)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	require.NoError(t, payout.MarkAsCompleted())

	assert.Error(t, payout.MarkAsProcessing("TRF_2"))
	assert.Error(t, payout.MarkAsFailed("late webhook"))
	assert.Error(t, payout.MarkAsPaidManually())
}

func TestPayoutRequiresTransferCode(t *testing.T) {
	payout := newTestPayout(t)
	assert.Error(t, payout.MarkAsProcessing(""))
	assert.Equal(t, PayoutStatusPending, payout.Status())
}

func TestPayoutFailureRaisesEvent(t *testing.T) {
	payout := newTestPayout(t)
	require.NoError(t, payout.MarkAsProcessing("TRF_1"))
	payout.MarkEventsAsCommitted()

	require.NoError(t, payout.MarkAsFailed("account blocked"))

	events := payout.GetUncommittedEvents()
	require.Len(t, events, 1)
	failed, ok := events[0].(*event.PayoutFailed)
	require.True(t, ok)
	assert.Equal(t, "account blocked", failed.Reason)
}
