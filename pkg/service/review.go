package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/secondhand/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService gates reviews on delivered orders and keeps the product
// and store aggregate ratings in step.
type ReviewService struct {
	reviews ReviewStore
	orders  OrderStore
	catalog CatalogStore
	stores  StoreDirectory
	logger  *zap.Logger
	now     func() time.Time
}

func NewReviewService(reviews ReviewStore, orders OrderStore, catalog CatalogStore, stores StoreDirectory, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		orders:  orders,
		catalog: catalog,
		stores:  stores,
		logger:  logger,
		now:     time.Now,
	}
}

type CreateReviewInput struct {
	OrderID   string
	ProductID string
	Rating    int
	Comment   string
	Images    []string
}

// CreateReview permits one review per (order, product) pair, only by the
// order's customer and only once the order is delivered. On success the
// product's and the seller's aggregate ratings are recomputed.
func (s *ReviewService) CreateReview(ctx context.Context, customerID string, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, E(KindInvalidQuantity, "rating must be between 1 and 5")
	}

	order, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, Fatal(err, "load order %s", in.OrderID)
	}
	if order == nil {
		return nil, E(KindNotFound, "order %s not found", in.OrderID)
	}
	if order.CustomerID != customerID {
		return nil, E(KindForbidden, "only the customer may review order %s", in.OrderID)
	}
	if order.Status != models.OrderDelivered {
		return nil, E(KindOrderNotDelivered, "order %s is %q, only delivered orders can be reviewed", order.OrderNumber, order.Status)
	}
	if order.FindItem(in.ProductID) == nil {
		return nil, E(KindProductNotInOrder, "product %s is not part of order %s", in.ProductID, order.OrderNumber)
	}

	review := &models.Review{
		ID:         uuid.NewString(),
		OrderID:    in.OrderID,
		CustomerID: customerID,
		SellerID:   order.SellerID,
		ProductID:  in.ProductID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		Images:     in.Images,
		IsVerified: true,
		CreatedAt:  s.now(),
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, E(KindDuplicateReview, "product %s was already reviewed for order %s", in.ProductID, order.OrderNumber)
		}
		return nil, Fatal(err, "insert review for order %s", in.OrderID)
	}

	s.refreshRatings(ctx, in.ProductID, order.SellerID)
	s.logger.Info("review created",
		zap.String("order_number", order.OrderNumber),
		zap.String("product_id", in.ProductID),
		zap.Int("rating", in.Rating))
	return review, nil
}

// refreshRatings recomputes the arithmetic mean over all reviews for the
// product and the seller; a full recompute is fine at this scale. The
// review itself is already persisted, so failures only log.
func (s *ReviewService) refreshRatings(ctx context.Context, productID, sellerID string) {
	if stats, err := s.reviews.ProductRating(ctx, productID); err != nil {
		s.logger.Warn("product rating aggregate failed", zap.String("product_id", productID), zap.Error(err))
	} else if err := s.catalog.SetProductRating(ctx, productID, stats); err != nil {
		s.logger.Warn("product rating update failed", zap.String("product_id", productID), zap.Error(err))
	}

	if stats, err := s.reviews.SellerRating(ctx, sellerID); err != nil {
		s.logger.Warn("seller rating aggregate failed", zap.String("seller_id", sellerID), zap.Error(err))
	} else if err := s.stores.SetStoreRating(ctx, sellerID, stats); err != nil {
		s.logger.Warn("store rating update failed", zap.String("seller_id", sellerID), zap.Error(err))
	}
}

func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, page Page) ([]models.Review, int64, error) {
	reviews, total, err := s.reviews.ListByProduct(ctx, productID, page.Normalize())
	if err != nil {
		return nil, 0, Fatal(err, "list reviews for product %s", productID)
	}
	return reviews, total, nil
}

// SellerReviews bundles a seller's review page with their live average.
type SellerReviews struct {
	Reviews []models.Review    `json:"reviews"`
	Rating  models.RatingStats `json:"rating"`
	Total   int64              `json:"totalReviews"`
}

func (s *ReviewService) ListSellerReviews(ctx context.Context, sellerID string, page Page) (*SellerReviews, error) {
	reviews, total, err := s.reviews.ListBySeller(ctx, sellerID, page.Normalize())
	if err != nil {
		return nil, Fatal(err, "list reviews for seller %s", sellerID)
	}
	stats, err := s.reviews.SellerRating(ctx, sellerID)
	if err != nil {
		return nil, Fatal(err, "aggregate rating for seller %s", sellerID)
	}
	return &SellerReviews{Reviews: reviews, Rating: stats, Total: total}, nil
}

func (s *ReviewService) ListOrderReviews(ctx context.Context, actor models.Actor, orderID string) ([]models.Review, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "load order %s", orderID)
	}
	if order == nil {
		return nil, E(KindNotFound, "order %s not found", orderID)
	}
	if order.CustomerID != actor.ID && order.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, E(KindForbidden, "no access to order %s", orderID)
	}
	reviews, err := s.reviews.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "list reviews for order %s", orderID)
	}
	return reviews, nil
}

// ProductReviewState marks one order line with its reviewed flag.
type ProductReviewState struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"price"`
	IsReviewed   bool    `json:"isReviewed"`
}

type OrderReviewStatus struct {
	CanReview   bool                 `json:"canReview"`
	OrderStatus models.OrderStatus   `json:"orderStatus"`
	Products    []ProductReviewState `json:"products"`
	AllReviewed bool                 `json:"allReviewed"`
}

// CheckOrderReviewStatus reports, per order line, whether a review exists
// and whether the order is reviewable at all.
func (s *ReviewService) CheckOrderReviewStatus(ctx context.Context, customerID, orderID string) (*OrderReviewStatus, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "load order %s", orderID)
	}
	if order == nil {
		return nil, E(KindNotFound, "order %s not found", orderID)
	}
	if order.CustomerID != customerID {
		return nil, E(KindForbidden, "no access to order %s", orderID)
	}

	reviews, err := s.reviews.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "list reviews for order %s", orderID)
	}
	reviewed := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		reviewed[r.ProductID] = true
	}

	status := &OrderReviewStatus{
		CanReview:   order.Status == models.OrderDelivered,
		OrderStatus: order.Status,
		AllReviewed: true,
	}
	for _, item := range order.Items {
		state := ProductReviewState{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			IsReviewed:   reviewed[item.ProductID],
		}
		if !state.IsReviewed {
			status.AllReviewed = false
		}
		status.Products = append(status.Products, state)
	}
	return status, nil
}
