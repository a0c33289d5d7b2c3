package models

import (
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"    // awaiting seller confirmation
	OrderConfirmed  OrderStatus = "confirmed"  // seller accepted
	OrderProcessing OrderStatus = "processing" // seller preparing
	OrderPackaged   OrderStatus = "packaged"   // packed, awaiting carrier
	OrderShipped    OrderStatus = "shipped"    // handed to carrier
	OrderDelivered  OrderStatus = "delivered"  // terminal
	OrderCancelled  OrderStatus = "cancelled"  // terminal, customer-initiated
	OrderRejected   OrderStatus = "rejected"   // terminal, seller-initiated
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderConfirmed: true, OrderCancelled: true, OrderRejected: true},
	OrderConfirmed:  {OrderProcessing: true, OrderPackaged: true, OrderShipped: true, OrderCancelled: true},
	OrderProcessing: {OrderPackaged: true, OrderShipped: true},
	OrderPackaged:   {OrderShipped: true},
	OrderShipped:    {OrderDelivered: true},
	OrderDelivered:  {},
	OrderCancelled:  {},
	OrderRejected:   {},
}

// CanTransition reports whether the order state machine permits from -> to.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transitions are defined from s.
func (s OrderStatus) Terminal() bool {
	return len(validNext[s]) == 0
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentStripe       PaymentMethod = "stripe"
	PaymentVNPay        PaymentMethod = "vnpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentBankTransfer, PaymentStripe, PaymentVNPay:
		return true
	}
	return false
}

// OrderItem is an immutable snapshot of a product at order time. Later
// price or title changes to the product must not affect placed orders.
type OrderItem struct {
	ProductID    string  `bson:"product" json:"productId"`
	ProductName  string  `bson:"productName" json:"productName"`
	ProductImage string  `bson:"productImage,omitempty" json:"productImage,omitempty"`
	UnitPrice    float64 `bson:"price" json:"price"`
	Quantity     int     `bson:"quantity" json:"quantity"`
	Subtotal     float64 `bson:"subtotal" json:"subtotal"`
}

type ShippingAddress struct {
	FullName string `bson:"fullName" json:"fullName"`
	Phone    string `bson:"phone" json:"phone"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	District string `bson:"district,omitempty" json:"district,omitempty"`
	Ward     string `bson:"ward,omitempty" json:"ward,omitempty"`
}

// Complete reports whether all mandatory address fields are present.
func (a ShippingAddress) Complete() bool {
	return a.FullName != "" && a.Phone != "" && a.Address != "" && a.City != ""
}

type Order struct {
	ID              string          `bson:"_id" json:"id"`
	OrderNumber     string          `bson:"orderNumber" json:"orderNumber"`
	CustomerID      string          `bson:"customer" json:"customerId"`
	CustomerName    string          `bson:"customerName,omitempty" json:"customerName,omitempty"`
	SellerID        string          `bson:"seller" json:"sellerId"`
	SellerName      string          `bson:"sellerName,omitempty" json:"sellerName,omitempty"`
	Items           []OrderItem     `bson:"items" json:"items"`
	TotalAmount     float64         `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	Status          OrderStatus     `bson:"status" json:"status"`
	PaymentStatus   PaymentStatus   `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `bson:"paymentMethod" json:"paymentMethod"`
	Notes           string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelledAt     *time.Time      `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy     string          `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelReason    string          `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	DeliveredAt     *time.Time      `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

func (o *Order) FindItem(productID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}
