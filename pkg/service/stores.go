package service

import (
	"context"
	"errors"
	"time"

	"github.com/example/secondhand/pkg/models"
)

// Storage contracts consumed by the workflow services. Implementations
// translate backend-specific failures into the sentinel errors below so
// the retry and compensation policies survive a storage swap.
var (
	// ErrDuplicateKey signals a unique-index conflict (order number,
	// transaction number, review (order, product) pair).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStockConflict signals that a conditional stock decrement found
	// fewer units than requested.
	ErrStockConflict = errors.New("insufficient stock for adjustment")

	// ErrStaleStatus signals that a conditional status update matched no
	// document: the entity moved on under a concurrent request.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// Page is a 1-based pagination request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	return p
}

func (p Page) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// CatalogStore is the narrow product contract. AdjustStock must be atomic:
// a negative delta only applies when at least -delta units remain,
// otherwise ErrStockConflict and no change.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) error
	SetProductRating(ctx context.Context, id string, stats models.RatingStats) error
}

type CartStore interface {
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

// OrderMutation is the closed set of order fields mutable after creation.
// Item snapshots are immutable by construction: no mutation reaches them.
type OrderMutation struct {
	Status        models.OrderStatus
	PaymentStatus *models.PaymentStatus
	CancelledAt   *time.Time
	CancelledBy   string
	CancelReason  string
	DeliveredAt   *time.Time
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Order, error)
	// Transition applies mut only if the order is still in from,
	// returning ErrStaleStatus otherwise.
	Transition(ctx context.Context, id string, from models.OrderStatus, mut OrderMutation) error
	SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	ListByCustomer(ctx context.Context, customerID string, status models.OrderStatus, page Page) ([]models.Order, int64, error)
	ListBySeller(ctx context.Context, sellerID string, status models.OrderStatus, page Page) ([]models.Order, int64, error)
}

type TransactionMutation struct {
	Status      models.TransactionStatus
	Details     *models.PaymentDetails
	CompletedAt *time.Time
}

// TransactionFilter scopes listing by actor role; empty fields match all.
type TransactionFilter struct {
	CustomerID string
	SellerID   string
	Status     models.TransactionStatus
}

type TransactionStore interface {
	Insert(ctx context.Context, txn *models.Transaction) error
	Get(ctx context.Context, id string) (*models.Transaction, error)
	GetByOrder(ctx context.Context, orderID string) (*models.Transaction, error)
	Transition(ctx context.Context, id string, from models.TransactionStatus, mut TransactionMutation) error
	List(ctx context.Context, filter TransactionFilter, page Page) ([]models.Transaction, int64, error)
}

type ReviewStore interface {
	Insert(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID string, page Page) ([]models.Review, int64, error)
	ListBySeller(ctx context.Context, sellerID string, page Page) ([]models.Review, int64, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.Review, error)
	ProductRating(ctx context.Context, productID string) (models.RatingStats, error)
	SellerRating(ctx context.Context, sellerID string) (models.RatingStats, error)
}

// UserDirectory resolves display names for created orders.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// StoreDirectory receives seller aggregate ratings from the review gate.
type StoreDirectory interface {
	SetStoreRating(ctx context.Context, sellerID string, stats models.RatingStats) error
}

// OrderCache holds hot orders in front of the order store; all methods
// are best effort and callers only log failures.
type OrderCache interface {
	CacheOrder(ctx context.Context, order *models.Order) error
	GetOrderCache(ctx context.Context, id string) (*models.Order, error)
	InvalidateOrder(ctx context.Context, id string) error
}
