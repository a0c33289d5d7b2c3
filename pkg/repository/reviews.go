package repository

import (
	"context"

	"github.com/example/secondhand/pkg/models"
	"github.com/example/secondhand/pkg/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewRepository implements service.ReviewStore on MongoDB. The unique
// (order, product) index is the authority for duplicate reviews.
type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(m *MongoRepository) *ReviewRepository {
	return &ReviewRepository{col: m.database.Collection(colReviews)}
}

func (r *ReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	_, err := r.col.InsertOne(ctx, review)
	return classify(err)
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, page service.Page) ([]models.Review, int64, error) {
	return r.list(ctx, bson.M{"product": productID}, page)
}

func (r *ReviewRepository) ListBySeller(ctx context.Context, sellerID string, page service.Page) ([]models.Review, int64, error) {
	return r.list(ctx, bson.M{"seller": sellerID}, page)
}

func (r *ReviewRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Review, error) {
	cursor, err := r.col.Find(ctx, bson.M{"order": orderID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *ReviewRepository) ProductRating(ctx context.Context, productID string) (models.RatingStats, error) {
	return r.aggregate(ctx, bson.M{"product": productID})
}

func (r *ReviewRepository) SellerRating(ctx context.Context, sellerID string) (models.RatingStats, error) {
	return r.aggregate(ctx, bson.M{"seller": sellerID})
}

func (r *ReviewRepository) aggregate(ctx context.Context, match bson.M) (models.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingStats{}, err
	}
	defer cursor.Close(ctx)

	var results []models.RatingStats
	if err := cursor.All(ctx, &results); err != nil {
		return models.RatingStats{}, err
	}
	if len(results) == 0 {
		return models.RatingStats{}, nil
	}
	return results[0], nil
}

func (r *ReviewRepository) list(ctx context.Context, filter bson.M, page service.Page) ([]models.Review, int64, error) {
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

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}
