package repository

import (
	"context"
	"time"

	"github.com/example/secondhand/pkg/config"
	"github.com/example/secondhand/pkg/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colProducts     = "products"
	colCarts        = "carts"
	colOrders       = "orders"
	colTransactions = "transactions"
	colReviews      = "reviews"
	colUsers        = "users"
	colStores       = "stores"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the workflow's retry and
// duplicate detection depend on.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colCarts: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colOrders: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "transactionNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "order", Value: 1}}},
			{Keys: bson.D{{Key: "customer", Value: 1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "order", Value: 1}, {Key: "product", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "product", Value: 1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "seller", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := m.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// classify maps driver errors onto the storage sentinels the services
// act on, so the one-retry duplicate policy is not tied to Mongo error
// codes anywhere above this package.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return service.ErrDuplicateKey
	}
	return err
}
