package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/secondhand/pkg/models"
	"github.com/example/secondhand/pkg/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransactionRepository implements service.TransactionStore on MongoDB.
type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(m *MongoRepository) *TransactionRepository {
	return &TransactionRepository{col: m.database.Collection(colTransactions)}
}

func (r *TransactionRepository) Insert(ctx context.Context, txn *models.Transaction) error {
	_, err := r.col.InsertOne(ctx, txn)
	return classify(err)
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *TransactionRepository) GetByOrder(ctx context.Context, orderID string) (*models.Transaction, error) {
	return r.findOne(ctx, bson.M{"order": orderID})
}

func (r *TransactionRepository) findOne(ctx context.Context, filter bson.M) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.col.FindOne(ctx, filter).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) Transition(ctx context.Context, id string, from models.TransactionStatus, mut service.TransactionMutation) error {
	set := bson.M{
		"status":    mut.Status,
		"updatedAt": time.Now(),
	}
	if mut.Details != nil {
		set["paymentDetails"] = *mut.Details
	}
	if mut.CompletedAt != nil {
		set["completedAt"] = *mut.CompletedAt
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return service.ErrStaleStatus
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, filter service.TransactionFilter, page service.Page) ([]models.Transaction, int64, error) {
	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer"] = filter.CustomerID
	}
	if filter.SellerID != "" {
		query["seller"] = filter.SellerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
