package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/secondhand/pkg/models"
)

// In-memory store fakes. They mirror the storage contracts closely enough
// to exercise the conditional-update and compensation paths, including the
// sentinel errors real backends translate into.

type fakeCatalog struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	adjustErr map[string]error
	ratings   map[string]models.RatingStats
}

func newFakeCatalog(products ...*models.Product) *fakeCatalog {
	f := &fakeCatalog{
		products:  map[string]*models.Product{},
		adjustErr: map[string]error{},
		ratings:   map[string]models.RatingStats{},
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) AdjustStock(_ context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adjustErr[id]; err != nil {
		return err
	}
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("product %s missing", id)
	}
	if delta < 0 && p.Stock < -delta {
		return ErrStockConflict
	}
	p.Stock += delta
	return nil
}

func (f *fakeCatalog) SetProductRating(_ context.Context, id string, stats models.RatingStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[id] = stats
	return nil
}

func (f *fakeCatalog) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type fakeCarts struct {
	mu      sync.Mutex
	byUser  map[string]*models.Cart
	saveErr error
}

func newFakeCarts(carts ...*models.Cart) *fakeCarts {
	f := &fakeCarts{byUser: map[string]*models.Cart{}}
	for _, c := range carts {
		f.byUser[c.UserID] = c
	}
	return f
}

func (f *fakeCarts) GetByUser(_ context.Context, userID string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]models.CartItem{}, c.Items...)
	return &cp, nil
}

func (f *fakeCarts) Save(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		err := f.saveErr
		f.saveErr = nil
		return err
	}
	cp := *cart
	cp.Items = append([]models.CartItem{}, cart.Items...)
	f.byUser[cart.UserID] = &cp
	return nil
}

func (f *fakeCarts) items(userID string) []models.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUser[userID]
	if !ok {
		return nil
	}
	return append([]models.CartItem{}, c.Items...)
}

type fakeOrders struct {
	mu         sync.Mutex
	orders     map[string]*models.Order
	insertErrs []error
	deleted    []string
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*models.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]models.OrderItem{}, o.Items...)
	return &cp, nil
}

func (f *fakeOrders) Transition(_ context.Context, id string, from models.OrderStatus, mut OrderMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return ErrStaleStatus
	}
	o.Status = mut.Status
	if mut.PaymentStatus != nil {
		o.PaymentStatus = *mut.PaymentStatus
	}
	if mut.CancelledAt != nil {
		o.CancelledAt = mut.CancelledAt
		o.CancelledBy = mut.CancelledBy
		o.CancelReason = mut.CancelReason
	}
	if mut.DeliveredAt != nil {
		o.DeliveredAt = mut.DeliveredAt
	}
	return nil
}

func (f *fakeOrders) SetPaymentStatus(_ context.Context, id string, status models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("order %s missing", id)
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrders) ListByCustomer(_ context.Context, customerID string, status models.OrderStatus, _ Page) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) ListBySeller(_ context.Context, sellerID string, status models.OrderStatus, _ Page) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.SellerID == sellerID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) get(id string) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeTransactions struct {
	mu         sync.Mutex
	txns       map[string]*models.Transaction
	insertErrs []error
}

func newFakeTransactions(txns ...*models.Transaction) *fakeTransactions {
	f := &fakeTransactions{txns: map[string]*models.Transaction{}}
	for _, t := range txns {
		f.txns[t.ID] = t
	}
	return f
}

func (f *fakeTransactions) Insert(_ context.Context, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *txn
	f.txns[txn.ID] = &cp
	return nil
}

func (f *fakeTransactions) Get(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactions) GetByOrder(_ context.Context, orderID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.OrderID == orderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactions) Transition(_ context.Context, id string, from models.TransactionStatus, mut TransactionMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[id]
	if !ok || t.Status != from {
		return ErrStaleStatus
	}
	t.Status = mut.Status
	if mut.Details != nil {
		t.PaymentDetails = *mut.Details
	}
	if mut.CompletedAt != nil {
		t.CompletedAt = mut.CompletedAt
	}
	return nil
}

func (f *fakeTransactions) List(_ context.Context, filter TransactionFilter, _ Page) ([]models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, t := range f.txns {
		if filter.CustomerID != "" && t.CustomerID != filter.CustomerID {
			continue
		}
		if filter.SellerID != "" && t.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTransactions) get(id string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txns[id]
}

func (f *fakeTransactions) byOrder(orderID string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.OrderID == orderID {
			return t
		}
	}
	return nil
}

type fakeReviews struct {
	mu      sync.Mutex
	reviews []models.Review
}

func (f *fakeReviews) Insert(_ context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.OrderID == review.OrderID && r.ProductID == review.ProductID {
			return ErrDuplicateKey
		}
	}
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f *fakeReviews) ListByProduct(_ context.Context, productID string, _ Page) ([]models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviews) ListBySeller(_ context.Context, sellerID string, _ Page) ([]models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if r.SellerID == sellerID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviews) ListByOrder(_ context.Context, orderID string) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) ProductRating(_ context.Context, productID string) (models.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return aggregate(f.reviews, func(r models.Review) bool { return r.ProductID == productID }), nil
}

func (f *fakeReviews) SellerRating(_ context.Context, sellerID string) (models.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return aggregate(f.reviews, func(r models.Review) bool { return r.SellerID == sellerID }), nil
}

func aggregate(reviews []models.Review, match func(models.Review) bool) models.RatingStats {
	var sum, count int
	for _, r := range reviews {
		if match(r) {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return models.RatingStats{}
	}
	return models.RatingStats{Average: float64(sum) / float64(count), Count: count}
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	if f.users == nil {
		return nil, nil
	}
	return f.users[id], nil
}

type fakeStores struct {
	mu      sync.Mutex
	ratings map[string]models.RatingStats
}

func (f *fakeStores) SetStoreRating(_ context.Context, sellerID string, stats models.RatingStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratings == nil {
		f.ratings = map[string]models.RatingStats{}
	}
	f.ratings[sellerID] = stats
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	orders      map[string]*models.Order
	cached      []string
	invalidated []string
}

func (f *fakeCache) CacheOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orders == nil {
		f.orders = map[string]*models.Order{}
	}
	cp := *order
	cp.Items = append([]models.OrderItem{}, order.Items...)
	f.orders[order.ID] = &cp
	f.cached = append(f.cached, order.ID)
	return nil
}

func (f *fakeCache) GetOrderCache(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]models.OrderItem{}, o.Items...)
	return &cp, nil
}

func (f *fakeCache) InvalidateOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testProduct(id, sellerID string, price float64, stock int) *models.Product {
	return &models.Product{
		ID:       id,
		Title:    "Product " + id,
		Price:    price,
		SellerID: sellerID,
		Status:   models.ProductActive,
		Stock:    stock,
	}
}

func testCart(userID string, items ...models.CartItem) *models.Cart {
	return &models.Cart{
		ID:     "cart-" + userID,
		UserID: userID,
		Items:  items,
	}
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: "Jane Buyer",
		Phone:    "0900000001",
		Address:  "12 Market Lane",
		City:     "Hanoi",
	}
}
