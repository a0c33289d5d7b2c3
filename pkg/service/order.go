package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/example/secondhand/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService drives the order lifecycle: converting a cart into an
// immutable order snapshot, reserving stock, and walking the status state
// machine through buyer and seller actions.
type OrderService struct {
	catalog      CatalogStore
	carts        CartStore
	orders       OrderStore
	transactions TransactionStore
	users        UserDirectory
	cache        OrderCache
	logger       *zap.Logger
	now          func() time.Time
	orderNumber  func() string
	txnNumber    func() string
}

func NewOrderService(
	catalog CatalogStore,
	carts CartStore,
	orders OrderStore,
	transactions TransactionStore,
	users UserDirectory,
	cache OrderCache,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		catalog:      catalog,
		carts:        carts,
		orders:       orders,
		transactions: transactions,
		users:        users,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
		orderNumber:  NewOrderNumber,
		txnNumber:    NewTransactionNumber,
	}
}

// NewOrderNumber generates a human-readable order number. Uniqueness is
// enforced by the store's unique index; a collision gets one retry.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD%d%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

func NewTransactionNumber() string {
	return fmt.Sprintf("TXN%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

type CreateOrderInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   models.PaymentMethod
	Notes           string
}

// CreateOrder converts the customer's cart into a persisted order:
// validate every line against the live product, reserve stock with atomic
// conditional decrements, insert the order, empty the cart, and open a
// pending transaction for non-COD payments. Any failure after the first
// decrement compensates all effects applied so far.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, in CreateOrderInput) (*models.Order, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCOD
	}
	if !in.PaymentMethod.Valid() {
		return nil, E(KindInvalidStatus, "unknown payment method %q", in.PaymentMethod)
	}
	if !in.ShippingAddress.Complete() {
		return nil, E(KindInvalidAddress, "shipping address requires full name, phone, address and city")
	}

	cart, err := s.carts.GetByUser(ctx, customerID)
	if err != nil {
		return nil, Fatal(err, "load cart for user %s", customerID)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, E(KindEmptyCart, "cart is empty")
	}

	// Re-fetch every product; cart copies are never trusted.
	var (
		sellerID string
		items    []models.OrderItem
		total    float64
	)
	for _, line := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, Fatal(err, "load product %s", line.ProductID)
		}
		if product == nil || product.Status != models.ProductActive {
			name := line.ProductID
			if product != nil {
				name = product.Title
			}
			return nil, E(KindProductUnavailable, "product %s is not available", name)
		}
		if product.Stock < line.Quantity {
			return nil, E(KindInsufficientStock, "product %s has only %d in stock", product.Title, product.Stock)
		}
		if sellerID == "" {
			sellerID = product.SellerID
		} else if product.SellerID != sellerID {
			return nil, E(KindMixedSellers, "all items must belong to one seller")
		}

		subtotal := product.Price * float64(line.Quantity)
		total += subtotal
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Title,
			ProductImage: product.FirstImage(),
			UnitPrice:    product.Price,
			Quantity:     line.Quantity,
			Subtotal:     subtotal,
		})
	}

	// Reserve stock. Decrements are conditional on enough units remaining,
	// so concurrent orders against the same product cannot oversell.
	reserved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.catalog.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.releaseStock(ctx, reserved)
			if errors.Is(err, ErrStockConflict) {
				return nil, E(KindInsufficientStock, "product %s ran out of stock", item.ProductName)
			}
			return nil, Fatal(err, "reserve stock for product %s", item.ProductID)
		}
		reserved = append(reserved, item)
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		OrderNumber:     s.orderNumber(),
		CustomerID:      customerID,
		SellerID:        sellerID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: in.ShippingAddress,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}
	if err := s.insertWithRetry(ctx, order); err != nil {
		s.releaseStock(ctx, reserved)
		return nil, err
	}

	savedItems := cart.Items
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		s.undoCreate(ctx, order, reserved, nil)
		return nil, Fatal(err, "clear cart for user %s", customerID)
	}

	if in.PaymentMethod != models.PaymentCOD {
		txn := &models.Transaction{
			ID:                uuid.NewString(),
			TransactionNumber: s.txnNumber(),
			OrderID:           order.ID,
			CustomerID:        customerID,
			SellerID:          sellerID,
			Amount:            total,
			PaymentMethod:     in.PaymentMethod,
			Status:            models.TransactionPending,
			CreatedAt:         s.now(),
			UpdatedAt:         s.now(),
		}
		if err := s.transactions.Insert(ctx, txn); errors.Is(err, ErrDuplicateKey) {
			txn.TransactionNumber = s.txnNumber()
			err = s.transactions.Insert(ctx, txn)
		}
		if err != nil {
			cart.Items = savedItems
			s.undoCreate(ctx, order, reserved, cart)
			return nil, Fatal(err, "open transaction for order %s", order.OrderNumber)
		}
	}

	s.resolveNames(ctx, order)
	if err := s.cache.CacheOrder(ctx, order); err != nil {
		s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", customerID),
		zap.String("seller_id", sellerID),
		zap.Float64("total_amount", total),
		zap.Int("item_count", len(items)))
	return order, nil
}

func (s *OrderService) insertWithRetry(ctx context.Context, order *models.Order) error {
	err := s.orders.Insert(ctx, order)
	if errors.Is(err, ErrDuplicateKey) {
		order.OrderNumber = s.orderNumber()
		err = s.orders.Insert(ctx, order)
	}
	if err != nil {
		return Fatal(err, "insert order %s", order.OrderNumber)
	}
	return nil
}

// releaseStock compensates prior decrements; failures are logged, never
// surfaced over the error that triggered the rollback.
func (s *OrderService) releaseStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.catalog.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock compensation failed",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (s *OrderService) undoCreate(ctx context.Context, order *models.Order, reserved []models.OrderItem, cart *models.Cart) {
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		s.logger.Error("order rollback failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	s.releaseStock(ctx, reserved)
	if cart != nil {
		cart.UpdatedAt = s.now()
		if err := s.carts.Save(ctx, cart); err != nil {
			s.logger.Error("cart restore failed", zap.String("user_id", cart.UserID), zap.Error(err))
		}
	}
}

func (s *OrderService) resolveNames(ctx context.Context, order *models.Order) {
	for _, ref := range []struct {
		id   string
		name *string
	}{
		{order.CustomerID, &order.CustomerName},
		{order.SellerID, &order.SellerName},
	} {
		user, err := s.users.GetUser(ctx, ref.id)
		if err != nil {
			s.logger.Warn("user lookup failed", zap.String("user_id", ref.id), zap.Error(err))
			continue
		}
		if user != nil {
			*ref.name = user.Name
		}
	}
}

// GetOrder is readable by its customer, its seller, or an admin. The
// cache is consulted first; transitions invalidate it, so a hit is never
// stale on status.
func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	cached, err := s.cache.GetOrderCache(ctx, orderID)
	if err != nil {
		s.logger.Warn("order cache read failed", zap.String("order_id", orderID), zap.Error(err))
	}
	if cached != nil {
		if cached.CustomerID != actor.ID && cached.SellerID != actor.ID && !actor.IsAdmin() {
			return nil, E(KindForbidden, "no access to order %s", orderID)
		}
		return cached, nil
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.ID && order.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, E(KindForbidden, "no access to order %s", orderID)
	}
	s.resolveNames(ctx, order)
	if err := s.cache.CacheOrder(ctx, order); err != nil {
		s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID string, status models.OrderStatus, page Page) ([]models.Order, int64, error) {
	orders, total, err := s.orders.ListByCustomer(ctx, customerID, status, page.Normalize())
	if err != nil {
		return nil, 0, Fatal(err, "list orders for customer %s", customerID)
	}
	return orders, total, nil
}

func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID string, status models.OrderStatus, page Page) ([]models.Order, int64, error) {
	orders, total, err := s.orders.ListBySeller(ctx, sellerID, status, page.Normalize())
	if err != nil {
		return nil, 0, Fatal(err, "list orders for seller %s", sellerID)
	}
	return orders, total, nil
}

// CancelOrder is customer-only and permitted from pending or confirmed.
// It restores stock for every item: the compensating action for the
// reservation made at creation.
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID, reason string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, E(KindForbidden, "only the customer may cancel order %s", orderID)
	}
	if order.Status != models.OrderPending && order.Status != models.OrderConfirmed {
		return nil, E(KindInvalidTransition, "cannot cancel order in status %q", order.Status)
	}

	now := s.now()
	mut := OrderMutation{
		Status:       models.OrderCancelled,
		CancelledAt:  &now,
		CancelledBy:  customerID,
		CancelReason: reason,
	}
	if err := s.transition(ctx, order, mut); err != nil {
		return nil, err
	}
	s.releaseStock(ctx, order.Items)
	s.logger.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("cancelled_by", customerID))
	return order, nil
}

// ConfirmOrder is seller-only, pending -> confirmed, no stock effect.
func (s *OrderService) ConfirmOrder(ctx context.Context, sellerID, orderID string) (*models.Order, error) {
	order, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, E(KindInvalidTransition, "cannot confirm order in status %q", order.Status)
	}
	if err := s.transition(ctx, order, OrderMutation{Status: models.OrderConfirmed}); err != nil {
		return nil, err
	}
	return order, nil
}

// RejectOrder is seller-only, pending -> rejected, and restores stock the
// same way cancellation does.
func (s *OrderService) RejectOrder(ctx context.Context, sellerID, orderID, reason string) (*models.Order, error) {
	order, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, E(KindInvalidTransition, "cannot reject order in status %q", order.Status)
	}

	now := s.now()
	mut := OrderMutation{
		Status:       models.OrderRejected,
		CancelledAt:  &now,
		CancelledBy:  sellerID,
		CancelReason: reason,
	}
	if err := s.transition(ctx, order, mut); err != nil {
		return nil, err
	}
	s.releaseStock(ctx, order.Items)
	s.logger.Info("order rejected",
		zap.String("order_number", order.OrderNumber),
		zap.String("seller_id", sellerID))
	return order, nil
}

// UpdateOrderStatus lets the seller advance fulfilment to packaged or
// shipped only; any other target is InvalidStatus.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, sellerID, orderID string, status models.OrderStatus) (*models.Order, error) {
	if status != models.OrderPackaged && status != models.OrderShipped {
		return nil, E(KindInvalidStatus, "status %q is not seller-settable", status)
	}
	order, err := s.sellerOrder(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, status) {
		return nil, E(KindInvalidTransition, "cannot move order from %q to %q", order.Status, status)
	}
	if err := s.transition(ctx, order, OrderMutation{Status: status}); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmDelivery is customer-only, shipped -> delivered. This is where
// COD payment settles: paymentStatus flips to paid and a linked pending
// transaction, if any, completes.
func (s *OrderService) ConfirmDelivery(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, E(KindForbidden, "only the customer may confirm delivery of order %s", orderID)
	}
	if order.Status == models.OrderDelivered {
		return nil, E(KindAlreadyDelivered, "order %s was already delivered", order.OrderNumber)
	}
	if order.Status != models.OrderShipped {
		return nil, E(KindInvalidTransition, "cannot confirm delivery from status %q, order must be shipped", order.Status)
	}

	now := s.now()
	paid := models.PaymentPaid
	mut := OrderMutation{
		Status:        models.OrderDelivered,
		PaymentStatus: &paid,
		DeliveredAt:   &now,
	}
	if err := s.transition(ctx, order, mut); err != nil {
		return nil, err
	}

	txn, err := s.transactions.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "load transaction for order %s", orderID)
	}
	if txn != nil && txn.Status == models.TransactionPending {
		err := s.transactions.Transition(ctx, txn.ID, models.TransactionPending, TransactionMutation{
			Status:      models.TransactionCompleted,
			CompletedAt: &now,
		})
		if err != nil && !errors.Is(err, ErrStaleStatus) {
			return nil, Fatal(err, "complete transaction %s", txn.TransactionNumber)
		}
	}

	s.logger.Info("delivery confirmed", zap.String("order_number", order.OrderNumber))
	return order, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, Fatal(err, "load order %s", orderID)
	}
	if order == nil {
		return nil, E(KindNotFound, "order %s not found", orderID)
	}
	return order, nil
}

func (s *OrderService) sellerOrder(ctx context.Context, sellerID, orderID string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, E(KindForbidden, "only the seller may update order %s", orderID)
	}
	return order, nil
}

// transition applies mut conditionally on the order's loaded status, so
// concurrent actions on the same order cannot both win. On success the
// in-memory order is updated to match and its cache entry dropped.
func (s *OrderService) transition(ctx context.Context, order *models.Order, mut OrderMutation) error {
	err := s.orders.Transition(ctx, order.ID, order.Status, mut)
	if errors.Is(err, ErrStaleStatus) {
		return E(KindInvalidTransition, "order %s changed concurrently", order.OrderNumber)
	}
	if err != nil {
		return Fatal(err, "update order %s", order.OrderNumber)
	}

	order.Status = mut.Status
	if mut.PaymentStatus != nil {
		order.PaymentStatus = *mut.PaymentStatus
	}
	if mut.CancelledAt != nil {
		order.CancelledAt = mut.CancelledAt
		order.CancelledBy = mut.CancelledBy
		order.CancelReason = mut.CancelReason
	}
	if mut.DeliveredAt != nil {
		order.DeliveredAt = mut.DeliveredAt
	}
	order.UpdatedAt = s.now()

	if err := s.cache.InvalidateOrder(ctx, order.ID); err != nil {
		s.logger.Warn("order cache invalidation failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	return nil
}
