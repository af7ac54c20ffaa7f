package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	provider, err := NewProvider("user-1", "Ada's Cleaning", "Home cleaning in Ikeja", "Lagos")
	require.NoError(t, err)
	return provider
}

func TestNewProvider(t *testing.T) {
	provider := newTestProvider(t)

	assert.NotEmpty(t, provider.ID())
	assert.True(t, provider.IsActive())
	assert.False(t, provider.HasPayoutDestination())
	assert.Equal(t, int64(0), provider.AverageRating())
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider("", "name", "", "Lagos")
	assert.Error(t, err)

	_, err = NewProvider("user-1", "", "", "Lagos")
	assert.Error(t, err)

	_, err = NewProvider("user-1", "name", "", "")
	assert.Error(t, err)
}

func TestProviderSetBankAccount(t *testing.T) {
	provider := newTestProvider(t)

	require.NoError(t, provider.SetBankAccount(testBankAccount()))
	assert.True(t, provider.HasPayoutDestination())
	require.NotNil(t, provider.BankAccount())
	assert.Equal(t, "0123456789", provider.BankAccount().AccountNumber)

	bank := testBankAccount()
	bank.BankCode = ""
	assert.Error(t, provider.SetBankAccount(bank))
}

func TestProviderBankAccountReturnsCopy(t *testing.T) {
	provider := newTestProvider(t)
	require.NoError(t, provider.SetBankAccount(testBankAccount()))

	copied := provider.BankAccount()
	copied.AccountNumber = "9999999999"
	assert.Equal(t, "0123456789", provider.BankAccount().AccountNumber)
}

func TestProviderAddRating(t *testing.T) {
	provider := newTestProvider(t)

	require.NoError(t, provider.AddRating("booking-1", 5))
	require.NoError(t, provider.AddRating("booking-2", 4))
	assert.Equal(t, int64(2), provider.RatingCount())
	// (5+4)/2 = 4.50
	assert.Equal(t, int64(450), provider.AverageRating())

	require.NoError(t, provider.AddRating("booking-3", 4))
	// 13/3 = 4.333..., rounded to 433
	assert.Equal(t, int64(433), provider.AverageRating())

	assert.Error(t, provider.AddRating("booking-4", 0))
	assert.Error(t, provider.AddRating("booking-4", 6))
}

func TestProviderDeactivate(t *testing.T) {
	provider := newTestProvider(t)
	provider.Deactivate()
	assert.False(t, provider.IsActive())
	provider.Activate()
	assert.True(t, provider.IsActive())
}

func TestProviderSetPhoto(t *testing.T) {
	provider := newTestProvider(t)
	require.NoError(t, provider.SetPhoto("https://cdn.example.com/p.jpg"))
	assert.Equal(t, "https://cdn.example.com/p.jpg", provider.PhotoURL())
	assert.Error(t, provider.SetPhoto(""))
}
