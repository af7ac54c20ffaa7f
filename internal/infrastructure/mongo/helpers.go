package mongo

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain/event"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// eventDocuments builds the documents for an aggregate's uncommitted events.
// Versions count back from the aggregate's current version so the log reads
// in mutation order.
func eventDocuments(aggregateID string, version int, events []event.DomainEvent) []interface{} {
	docs := make([]interface{}, 0, len(events))
	base := version - len(events)
	for i, evt := range events {
		docs = append(docs, bson.M{
			"aggregate_id": aggregateID,
			"event_type":   evt.EventType(),
			"event_data":   evt,
			"version":      base + i + 1,
			"occurred_at":  evt.OccurredAt(),
		})
	}
	return docs
}

// saveEvents appends an aggregate's uncommitted events to its event
// collection. Repositories call it from Save, inside the same session as the
// entity upsert.
func saveEvents(ctx context.Context, coll *mongo.Collection, aggregateID string, version int, events []event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	if _, err := coll.InsertMany(ctx, eventDocuments(aggregateID, version, events)); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	return nil
}

// BSON decode helpers shared by the repositories. Mongo hands back int32,
// int64 or DateTime depending on how the document was written, so every
// numeric read goes through these.

func getString(doc bson.M, key string) string {
	if val, ok := doc[key].(string); ok {
		return val
	}
	return ""
}

func getInt(doc bson.M, key string) int {
	switch val := doc[key].(type) {
	case int32:
		return int(val)
	case int64:
		return int(val)
	case int:
		return val
	}
	return 0
}

func getInt64(doc bson.M, key string) int64 {
	switch val := doc[key].(type) {
	case int32:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	}
	return 0
}

func getBool(doc bson.M, key string) bool {
	if val, ok := doc[key].(bool); ok {
		return val
	}
	return false
}

func getTime(doc bson.M, key string) time.Time {
	if val, ok := doc[key].(primitive.DateTime); ok {
		return val.Time()
	}
	if val, ok := doc[key].(time.Time); ok {
		return val
	}
	return time.Time{}
}

func getDoc(doc bson.M, key string) (bson.M, bool) {
	val, ok := doc[key].(bson.M)
	return val, ok
}
