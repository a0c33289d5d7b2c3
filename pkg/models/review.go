package models

import (
	"time"
)

// Review is scoped to one (order, product) pair and may only be created
// once the owning order has been delivered.
type Review struct {
	ID         string    `bson:"_id" json:"id"`
	OrderID    string    `bson:"order" json:"orderId"`
	CustomerID string    `bson:"customer" json:"customerId"`
	SellerID   string    `bson:"seller" json:"sellerId"`
	ProductID  string    `bson:"product" json:"productId"`
	Rating     int       `bson:"rating" json:"rating"`
	Comment    string    `bson:"comment,omitempty" json:"comment,omitempty"`
	Images     []string  `bson:"images,omitempty" json:"images,omitempty"`
	IsVerified bool      `bson:"isVerified" json:"isVerified"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// RatingStats is an aggregate over all reviews for one product or seller.
type RatingStats struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}
