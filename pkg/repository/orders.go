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

// OrderRepository implements service.OrderStore on MongoDB.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(m *MongoRepository) *OrderRepository {
	return &OrderRepository{col: m.database.Collection(colOrders)}
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	_, err := r.col.InsertOne(ctx, order)
	return classify(err)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Transition updates status and related fields only while the document is
// still in from; a zero match reports ErrStaleStatus so transitions on the
// same order serialize.
func (r *OrderRepository) Transition(ctx context.Context, id string, from models.OrderStatus, mut service.OrderMutation) error {
	set := bson.M{
		"status":    mut.Status,
		"updatedAt": time.Now(),
	}
	if mut.PaymentStatus != nil {
		set["paymentStatus"] = *mut.PaymentStatus
	}
	if mut.CancelledAt != nil {
		set["cancelledAt"] = *mut.CancelledAt
		set["cancelledBy"] = mut.CancelledBy
		set["cancellationReason"] = mut.CancelReason
	}
	if mut.DeliveredAt != nil {
		set["deliveredAt"] = *mut.DeliveredAt
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

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"paymentStatus": status, "updatedAt": time.Now()},
	})
	return err
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string, status models.OrderStatus, page service.Page) ([]models.Order, int64, error) {
	filter := bson.M{"customer": customerID}
	if status != "" {
		filter["status"] = status
	}
	return r.list(ctx, filter, page)
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string, status models.OrderStatus, page service.Page) ([]models.Order, int64, error) {
	filter := bson.M{"seller": sellerID}
	if status != "" {
		filter["status"] = status
	}
	return r.list(ctx, filter, page)
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M, page service.Page) ([]models.Order, int64, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
