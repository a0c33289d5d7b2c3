package service

import (
	"context"
	"time"

	"github.com/example/secondhand/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService owns the single pending-items container per user.
type CartService struct {
	catalog CatalogStore
	carts   CartStore
	logger  *zap.Logger
	now     func() time.Time
}

func NewCartService(catalog CatalogStore, carts CartStore, logger *zap.Logger) *CartService {
	return &CartService{
		catalog: catalog,
		carts:   carts,
		logger:  logger,
		now:     time.Now,
	}
}

// CartLine is a cart item joined with its live product for display.
type CartLine struct {
	ID       string  `json:"id"`
	Product  LineRef `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

type LineRef struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Condition string  `json:"condition,omitempty"`
	Stock     int     `json:"stock"`
}

type CartView struct {
	ID        string     `json:"id"`
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// GetCart returns the user's cart, creating an empty one on first access.
// Lines whose product is gone, inactive or out of stock are dropped and
// the pruned cart persisted.
func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: []CartLine{}}
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, Fatal(err, "load product %s", item.ProductID)
		}
		if product == nil || !product.Purchasable() {
			continue
		}
		kept = append(kept, item)
		view.Items = append(view.Items, CartLine{
			ID: item.ID,
			Product: LineRef{
				ID:        product.ID,
				Title:     product.Title,
				Price:     product.Price,
				Image:     product.FirstImage(),
				Condition: product.Condition,
				Stock:     product.Stock,
			},
			Quantity: item.Quantity,
			Subtotal: product.Price * float64(item.Quantity),
		})
		view.Total += product.Price * float64(item.Quantity)
	}

	if len(kept) != len(cart.Items) {
		cart.Items = kept
		cart.UpdatedAt = s.now()
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, Fatal(err, "prune cart for user %s", userID)
		}
	}
	view.ItemCount = len(view.Items)
	return view, nil
}

// AddItem merges quantity into an existing line for the product or appends
// a new one.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, E(KindInvalidQuantity, "quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, Fatal(err, "load product %s", productID)
	}
	if product == nil {
		return nil, E(KindNotFound, "product %s not found", productID)
	}
	if product.Status != models.ProductActive {
		return nil, E(KindProductUnavailable, "product %s is not available", product.Title)
	}
	if product.SellerID == userID {
		return nil, E(KindSelfPurchase, "cannot buy your own product")
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := quantity
	if existing := cart.FindItemByProduct(productID); existing != nil {
		wanted += existing.Quantity
	}
	if wanted > product.Stock {
		return nil, E(KindInsufficientStock, "product %s has only %d in stock", product.Title, product.Stock)
	}

	if existing := cart.FindItemByProduct(productID); existing != nil {
		existing.Quantity = wanted
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   s.now(),
		})
	}
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, Fatal(err, "save cart for user %s", userID)
	}
	return cart, nil
}

// UpdateItemQuantity re-checks stock against the live product, never a
// cached copy.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, E(KindInvalidQuantity, "quantity must be at least 1")
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	item := cart.FindItem(itemID)
	if item == nil {
		return nil, E(KindNotFound, "cart item %s not found", itemID)
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, Fatal(err, "load product %s", item.ProductID)
	}
	if product == nil {
		return nil, E(KindNotFound, "product %s not found", item.ProductID)
	}
	if quantity > product.Stock {
		return nil, E(KindInsufficientStock, "product %s has only %d in stock", product.Title, product.Stock)
	}

	item.Quantity = quantity
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, Fatal(err, "save cart for user %s", userID)
	}
	return cart, nil
}

// RemoveItem is idempotent: removing an absent item is a no-op success.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return cart, nil
	}
	cart.Items = kept
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, Fatal(err, "save cart for user %s", userID)
	}
	return cart, nil
}

// Clear empties the cart without deleting it.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return nil
	}
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return Fatal(err, "clear cart for user %s", userID)
	}
	return nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, Fatal(err, "load cart for user %s", userID)
	}
	if cart != nil {
		return cart, nil
	}
	cart = &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []models.CartItem{},
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, Fatal(err, "create cart for user %s", userID)
	}
	return cart, nil
}
