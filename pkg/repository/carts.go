package repository

import (
	"context"
	"errors"

	"github.com/example/secondhand/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartRepository implements service.CartStore on MongoDB. One cart per
// user, enforced by a unique index on the user field.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(m *MongoRepository) *CartRepository {
	return &CartRepository{col: m.database.Collection(colCarts)}
}

func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.col.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, opts)
	return classify(err)
}
