package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VariantAttributes struct {
	Size     []string `json:"size" bson:"size"`
	Color    string   `json:"color" bson:"color"`
	Material string   `json:"material" bson:"material"`
}

// Variant es un SKU comprable de un producto. Image copia Images[0].
type Variant struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Product    primitive.ObjectID `json:"product" bson:"product"`
	SKU        string             `json:"sku" bson:"sku"`
	Price      float64            `json:"price" bson:"price"`
	Stock      int                `json:"stock" bson:"stock"`
	Image      string             `json:"image" bson:"image"`
	Images     []string           `json:"images" bson:"images"`
	IsDefault  bool               `json:"isDefault" bson:"isDefault"`
	Attributes VariantAttributes  `json:"attributes" bson:"attributes"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}
