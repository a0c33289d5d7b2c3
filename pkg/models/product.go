package models

import (
	"time"
)

type ProductStatus string

const (
	ProductActive    ProductStatus = "active"
	ProductPending   ProductStatus = "pending"
	ProductHidden    ProductStatus = "hidden"
	ProductViolation ProductStatus = "violation"
	ProductDraft     ProductStatus = "draft"
	ProductSold      ProductStatus = "sold"
)

type Product struct {
	ID            string        `bson:"_id" json:"id"`
	Title         string        `bson:"title" json:"title"`
	Description   string        `bson:"description,omitempty" json:"description,omitempty"`
	Price         float64       `bson:"price" json:"price"`
	Images        []string      `bson:"images,omitempty" json:"images,omitempty"`
	Condition     string        `bson:"condition,omitempty" json:"condition,omitempty"`
	CategoryID    string        `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	SellerID      string        `bson:"seller" json:"seller"`
	Status        ProductStatus `bson:"status" json:"status"`
	Stock         int           `bson:"stock" json:"stock"`
	AverageRating float64       `bson:"averageRating,omitempty" json:"averageRating,omitempty"`
	RatingCount   int           `bson:"ratingCount,omitempty" json:"ratingCount,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Purchasable reports whether the product can be placed into a cart or order.
func (p *Product) Purchasable() bool {
	return p.Status == ProductActive && p.Stock > 0
}

// FirstImage returns the product's display image, if any.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
