package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/secondhand/pkg/models"
	"github.com/example/secondhand/pkg/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductRepository implements service.CatalogStore on MongoDB.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(m *MongoRepository) *ProductRepository {
	return &ProductRepository{col: m.database.Collection(colProducts)}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock applies delta as a single conditional update. A decrement
// only matches while enough stock remains, which keeps stock non-negative
// under concurrent order creation.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return service.ErrStockConflict
	}
	return nil
}

func (r *ProductRepository) SetProductRating(ctx context.Context, id string, stats models.RatingStats) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"averageRating": stats.Average,
			"ratingCount":   stats.Count,
			"updatedAt":     time.Now(),
		},
	})
	return err
}
