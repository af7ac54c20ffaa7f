package mongo

import (
	"testing"
	"time"

	"servicehub/internal/domain/event"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDocumentsVersioning(t *testing.T) {
	now := time.Now()
	events := []event.DomainEvent{
		&event.BookingStatusChanged{BookingID: "b-1", OldStatus: "IN_PROGRESS", NewStatus: "AWAITING_CONFIRMATION", Timestamp: now},
		&event.BookingStatusChanged{BookingID: "b-1", OldStatus: "AWAITING_CONFIRMATION", NewStatus: "PAYMENT_PROCESSING", Timestamp: now},
	}

	// Two uncommitted mutations on an aggregate now at version 5 land as
	// log entries 4 and 5.
	docs := eventDocuments("b-1", 5, events)
	require.Len(t, docs, 2)

	first := docs[0].(bson.M)
	assert.Equal(t, "b-1", first["aggregate_id"])
	assert.Equal(t, "BookingStatusChanged", first["event_type"])
	assert.Equal(t, 4, first["version"])
	assert.Equal(t, now, first["occurred_at"])
	assert.Same(t, events[0], first["event_data"])

	second := docs[1].(bson.M)
	assert.Equal(t, 5, second["version"])
}

func TestEventDocumentsEmpty(t *testing.T) {
	assert.Empty(t, eventDocuments("b-1", 3, nil))
}
