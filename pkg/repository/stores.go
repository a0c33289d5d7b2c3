package repository

import (
	"context"
	"time"

	"github.com/example/secondhand/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StoreRepository implements service.StoreDirectory on MongoDB. Store
// registration and approval belong to another service; only the aggregate
// rating is written from here.
type StoreRepository struct {
	col *mongo.Collection
}

func NewStoreRepository(m *MongoRepository) *StoreRepository {
	return &StoreRepository{col: m.database.Collection(colStores)}
}

func (r *StoreRepository) SetStoreRating(ctx context.Context, sellerID string, stats models.RatingStats) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"seller": sellerID}, bson.M{
		"$set": bson.M{
			"rating.average": stats.Average,
			"rating.count":   stats.Count,
			"updatedAt":      time.Now(),
		},
	})
	return err
}
