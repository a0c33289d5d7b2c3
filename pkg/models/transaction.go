package models

import (
	"time"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// PaymentDetails is the structured gateway payload attached to a
// transaction. Metadata is bounded; anything past MaxMetadataKeys is
// rejected at the API edge.
type PaymentDetails struct {
	TransactionID   string            `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaymentIntentID string            `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ReceiptURL      string            `bson:"receiptUrl,omitempty" json:"receiptUrl,omitempty"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	MockPayment     bool              `bson:"mockPayment,omitempty" json:"mockPayment,omitempty"`
	PaidAt          *time.Time        `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	RefundReason    string            `bson:"refundReason,omitempty" json:"refundReason,omitempty"`
	RefundedAt      *time.Time        `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
}

const MaxMetadataKeys = 16

// Transaction records the payment lifecycle for a non-COD order. It is
// linked 1:1 with an order; its status mirrors but is distinct from the
// order's paymentStatus.
type Transaction struct {
	ID                string            `bson:"_id" json:"id"`
	TransactionNumber string            `bson:"transactionNumber" json:"transactionNumber"`
	OrderID           string            `bson:"order" json:"orderId"`
	CustomerID        string            `bson:"customer" json:"customerId"`
	SellerID          string            `bson:"seller" json:"sellerId"`
	Amount            float64           `bson:"amount" json:"amount"`
	PaymentMethod     PaymentMethod     `bson:"paymentMethod" json:"paymentMethod"`
	Status            TransactionStatus `bson:"status" json:"status"`
	PaymentDetails    PaymentDetails    `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	CompletedAt       *time.Time        `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	FailedAt          *time.Time        `bson:"failedAt,omitempty" json:"failedAt,omitempty"`
	FailureReason     string            `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CreatedAt         time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time         `bson:"updatedAt" json:"updatedAt"`
}
