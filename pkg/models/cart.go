package models

import (
	"time"
)

// CartItem is a pending line in a user's cart. Quantity is the desired
// amount; price and availability are always re-checked against the live
// product, never cached here.
type CartItem struct {
	ID        string    `bson:"_id" json:"id"`
	ProductID string    `bson:"product" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"addedAt" json:"addedAt"`
}

// Cart is the single mutable container of pending items per user. It is
// created lazily on first access and emptied, not deleted, when its
// contents become an order.
type Cart struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user" json:"userId"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) FindItem(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) FindItemByProduct(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
