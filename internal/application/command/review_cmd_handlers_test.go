package command

import (
	"context"
	"testing"

	"servicehub/internal/config"
	"servicehub/internal/domain/aggregate"
	"servicehub/internal/infrastructure/cache"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disabledCache() *cache.Cache {
	return cache.New(config.RedisConfig{Enabled: false}, zerolog.Nop())
}

// completeCashBooking walks the fixture to COMPLETED outside the handlers
func completeCashBooking(t *testing.T, f *bookingFixture) {
	t.Helper()
	require.NoError(t, f.booking.Accept(f.provider.ID()))
	require.NoError(t, f.booking.Start(f.provider.ID()))
	require.NoError(t, f.booking.Finish(f.provider.ID()))
	require.NoError(t, f.payment.ConfirmCashReceived())
	require.NoError(t, f.booking.Complete())
	f.booking.MarkEventsAsCommitted()
	f.payment.MarkEventsAsCommitted()
}

func TestSubmitReview(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)
	completeCashBooking(t, f)

	handler := NewSubmitReviewHandler(env.factory, env.bus, disabledCache())
	resp, err := handler.Handle(context.Background(), &SubmitReviewCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.client.ID(),
		Rating:    4,
		Comment:   "Great job, a little late",
	})
	require.NoError(t, err)

	review := env.store.reviews[resp.ReviewID]
	require.NotNil(t, review)
	assert.Equal(t, 4, review.Rating())

	// The rating folds into the provider's average in the same transaction.
	provider := env.store.providers[f.provider.ID()]
	assert.Equal(t, int64(1), provider.RatingCount())
	assert.Equal(t, int64(400), provider.AverageRating())

	assert.Contains(t, env.bus.eventTypes(), "ReviewSubmitted")
	assert.Contains(t, env.bus.eventTypes(), "ProviderRated")
}

func TestSubmitReviewTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)
	completeCashBooking(t, f)

	handler := NewSubmitReviewHandler(env.factory, env.bus, disabledCache())
	cmd := &SubmitReviewCommand{BookingID: f.booking.ID(), ClientID: f.client.ID(), Rating: 5}
	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), cmd)
	assertAppCode(t, err, "CONFLICT")
}

func TestSubmitReviewRequiresCompletedBooking(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)

	handler := NewSubmitReviewHandler(env.factory, env.bus, disabledCache())
	_, err := handler.Handle(context.Background(), &SubmitReviewCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.client.ID(),
		Rating:    5,
	})
	assertAppCode(t, err, "UNPROCESSABLE")
}

func TestSubmitReviewOnlyByClient(t *testing.T) {
	env := newTestEnv()
	f := seedBooking(t, env.store, aggregate.PaymentMethodCash)
	completeCashBooking(t, f)

	handler := NewSubmitReviewHandler(env.factory, env.bus, disabledCache())
	_, err := handler.Handle(context.Background(), &SubmitReviewCommand{
		BookingID: f.booking.ID(),
		ClientID:  f.provUser.ID(),
		Rating:    5,
	})
	assertAppCode(t, err, "FORBIDDEN")
}
