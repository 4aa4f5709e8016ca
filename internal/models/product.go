package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
)

// Product es un producto del catálogo. Los SKUs viven en la colección variants.
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Slug        string             `json:"slug" bson:"slug"`
	Description string             `json:"description" bson:"description"`
	BasePrice   float64            `json:"basePrice" bson:"basePrice"`
	Category    primitive.ObjectID `json:"category" bson:"category"`
	Tags        []string           `json:"tags" bson:"tags"`
	Images      []string           `json:"images" bson:"images"`
	Status      ProductStatus      `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductSummary es una fila del catálogo: el producto junto con las
// variantes que pasaron los filtros y la suma de su stock.
type ProductSummary struct {
	Product    `bson:",inline"`
	TotalStock int       `json:"totalStock" bson:"totalStock"`
	Variants   []Variant `json:"variants" bson:"variants"`
}

// ProductWithVariants es un producto con todas sus variantes.
type ProductWithVariants struct {
	Product    `bson:",inline"`
	Variations []Variant `json:"variations" bson:"variations"`
}
