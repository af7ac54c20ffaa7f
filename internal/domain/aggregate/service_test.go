package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService("provider-1", "Deep cleaning", "Full home clean", "cleaning", 50000, []ServiceCatalogueItem{
		{ItemID: "item-1", Name: "Studio flat", Price: 75000, Duration: 90},
	})
	require.NoError(t, err)
	return service
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService("", "name", "", "", 1000, nil)
	assert.Error(t, err)

	_, err = NewService("provider-1", "", "", "", 1000, nil)
	assert.Error(t, err)

	// Neither an hourly rate nor a catalogue.
	_, err = NewService("provider-1", "name", "", "", 0, nil)
	assert.Error(t, err)

	_, err = NewService("provider-1", "name", "", "", 0, []ServiceCatalogueItem{
		{Name: "item", Price: 0, Duration: 60},
	})
	assert.Error(t, err)
}

func TestNewServiceAssignsCatalogueItemIDs(t *testing.T) {
	service, err := NewService("provider-1", "Plumbing", "", "repairs", 0, []ServiceCatalogueItem{
		{Name: "Tap replacement", Price: 15000, Duration: 45},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, service.Catalogue()[0].ItemID)
}

func TestPriceForHourly(t *testing.T) {
	service := newTestService(t)

	amount, duration, err := service.PriceFor("", 120)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), amount)
	assert.Equal(t, 120, duration)

	// 90 minutes at 50000/hr, rounded to the nearest unit
	amount, _, err = service.PriceFor("", 90)
	require.NoError(t, err)
	assert.Equal(t, int64(75000), amount)

	_, _, err = service.PriceFor("", 0)
	assert.Error(t, err)
}

func TestPriceForCatalogueItem(t *testing.T) {
	service := newTestService(t)

	// The item's own duration wins over whatever the client sent.
	amount, duration, err := service.PriceFor("item-1", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(75000), amount)
	assert.Equal(t, 90, duration)

	_, _, err = service.PriceFor("item-ghost", 60)
	assert.Error(t, err)
}

func TestPriceForCatalogueOnlyService(t *testing.T) {
	service, err := NewService("provider-1", "Plumbing", "", "repairs", 0, []ServiceCatalogueItem{
		{ItemID: "item-1", Name: "Tap replacement", Price: 15000, Duration: 45},
	})
	require.NoError(t, err)

	_, _, err = service.PriceFor("", 60)
	assert.Error(t, err)
}

func TestServiceDeactivate(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Deactivate())
	assert.False(t, service.IsActive())
	assert.Error(t, service.Deactivate())
}

func TestServiceUpdate(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Update("Standard cleaning", "", "cleaning", 40000, nil))
	assert.Equal(t, "Standard cleaning", service.Name())
	assert.Equal(t, int64(40000), service.HourlyRate())

	assert.Error(t, service.Update("", "", "cleaning", 40000, nil))
}
