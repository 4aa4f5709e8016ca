package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID             primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name           string              `json:"name" bson:"name"`
	Slug           string              `json:"slug" bson:"slug"`
	Image          string              `json:"image,omitempty" bson:"image,omitempty"`
	Banner         string              `json:"banner,omitempty" bson:"banner,omitempty"`
	Logo           string              `json:"logo,omitempty" bson:"logo,omitempty"`
	ParentCategory *primitive.ObjectID `json:"parentCategory" bson:"parentCategory"` // nil en categorías de primer nivel
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
}

// CategoryLink es la proyección para armar el árbol de categorías.
type CategoryLink struct {
	ID             primitive.ObjectID  `bson:"_id"`
	ParentCategory *primitive.ObjectID `bson:"parentCategory"`
}
