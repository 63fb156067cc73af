package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IngestionEventRepository keeps the audit trail of webhook deliveries
type IngestionEventRepository interface {
	RecordEvent(ctx context.Context, event *models.IngestionEvent) error
}

// MongoIngestionEventRepository implements IngestionEventRepository for MongoDB
type MongoIngestionEventRepository struct {
	collection *mongo.Collection
}

func NewMongoIngestionEventRepository(db *mongo.Database) *MongoIngestionEventRepository {
	return &MongoIngestionEventRepository{collection: db.Collection("webhook_events")}
}

// EnsureIndexes creates the lookup indexes used when inspecting deliveries
func (r *MongoIngestionEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "received_at", Value: -1}}},
		{Keys: bson.D{{Key: "subject", Value: 1}, {Key: "received_at", Value: -1}}},
	})
	return err
}

func (r *MongoIngestionEventRepository) RecordEvent(ctx context.Context, event *models.IngestionEvent) error {
	event.ID = primitive.NewObjectID()
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}
