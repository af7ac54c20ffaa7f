package mongo

import (
	"context"
	"fmt"

	"servicehub/internal/domain/aggregate"
	"servicehub/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoServiceRepository implements ServiceRepository with MongoDB persistence
type MongoServiceRepository struct {
	database        *mongo.Database
	collection      *mongo.Collection
	eventCollection *mongo.Collection
	session         mongo.Session
}

// NewMongoServiceRepository creates a new MongoDB service repository
func NewMongoServiceRepository(database *mongo.Database) *MongoServiceRepository {
	return &MongoServiceRepository{
		database:        database,
		collection:      database.Collection("services"),
		eventCollection: database.Collection("service_events"),
	}
}

// SetTransaction implements TransactionalRepository
func (r *MongoServiceRepository) SetTransaction(tx interface{}) {
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	} else {
		r.session = nil
	}
}

// GetTransaction implements TransactionalRepository
func (r *MongoServiceRepository) GetTransaction() interface{} {
	return r.session
}

// IsTransactional implements TransactionalRepository
func (r *MongoServiceRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoServiceRepository) getContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// Save upserts a service aggregate
func (r *MongoServiceRepository) Save(ctx context.Context, service *aggregate.Service) error {
	ctx = r.getContext(ctx)

	if err := saveEvents(ctx, r.eventCollection, service.ID(), service.Version(), service.GetUncommittedEvents()); err != nil {
		return err
	}

	catalogue := make([]bson.M, 0)
	for _, item := range service.Catalogue() {
		catalogue = append(catalogue, bson.M{
			"item_id":  item.ItemID,
			"name":     item.Name,
			"price":    item.Price,
			"duration": item.Duration,
		})
	}

	doc := bson.M{
		"_id":         service.ID(),
		"provider_id": service.ProviderID(),
		"name":        service.Name(),
		"description": service.Description(),
		"category":    service.Category(),
		"hourly_rate": service.HourlyRate(),
		"catalogue":   catalogue,
		"image_url":   service.ImageURL(),
		"active":      service.IsActive(),
		"version":     service.Version(),
		"created_at":  service.CreatedAt(),
		"updated_at":  service.UpdatedAt(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": service.ID()}, doc, opts); err != nil {
		return fmt.Errorf("failed to save service: %w", err)
	}

	service.MarkEventsAsCommitted()
	return nil
}

// GetByID retrieves a service by ID
func (r *MongoServiceRepository) GetByID(ctx context.Context, id string) (*aggregate.Service, error) {
	ctx = r.getContext(ctx)

	var doc bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFoundError("service")
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	return documentToService(doc), nil
}

// GetByProviderID retrieves all services offered by a provider
func (r *MongoServiceRepository) GetByProviderID(ctx context.Context, providerID string) ([]*aggregate.Service, error) {
	return r.find(ctx, bson.M{"provider_id": providerID}, 0, 0)
}

// List retrieves active services, optionally filtered by category
func (r *MongoServiceRepository) List(ctx context.Context, category string, offset, limit int) ([]*aggregate.Service, error) {
	filter := bson.M{"active": true}
	if category != "" {
		filter["category"] = category
	}
	return r.find(ctx, filter, offset, limit)
}

func (r *MongoServiceRepository) find(ctx context.Context, filter bson.M, offset, limit int) ([]*aggregate.Service, error) {
	ctx = r.getContext(ctx)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*aggregate.Service
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode service: %w", err)
		}
		services = append(services, documentToService(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return services, nil
}

func documentToService(doc bson.M) *aggregate.Service {
	var catalogue []aggregate.ServiceCatalogueItem
	if items, ok := doc["catalogue"].(bson.A); ok {
		for _, itemData := range items {
			itemDoc, ok := itemData.(bson.M)
			if !ok {
				continue
			}
			catalogue = append(catalogue, aggregate.ServiceCatalogueItem{
				ItemID:   getString(itemDoc, "item_id"),
				Name:     getString(itemDoc, "name"),
				Price:    getInt64(itemDoc, "price"),
				Duration: getInt(itemDoc, "duration"),
			})
		}
	}

	return aggregate.ReconstructService(
		getString(doc, "_id"),
		getString(doc, "provider_id"),
		getString(doc, "name"),
		getString(doc, "description"),
		getString(doc, "category"),
		getInt64(doc, "hourly_rate"),
		catalogue,
		getString(doc, "image_url"),
		getBool(doc, "active"),
		getInt(doc, "version"),
		getTime(doc, "created_at"),
		getTime(doc, "updated_at"),
	)
}
