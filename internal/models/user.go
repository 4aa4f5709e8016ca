package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"-" bson:"password"`
	Role      string               `json:"role" bson:"role"`
	Wishlist  []primitive.ObjectID `json:"wishlist" bson:"wishlist"`
	Cart      []CartItem           `json:"cart" bson:"cart"`
	Addresses []Address            `json:"addresses" bson:"addresses"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

type CartItem struct {
	Variant  primitive.ObjectID `json:"variant" bson:"variant"`
	Quantity int                `json:"quantity" bson:"quantity"`
	AddedAt  time.Time          `json:"addedAt" bson:"addedAt"`
}

type AddressType string

const (
	AddressHome   AddressType = "Home"
	AddressOffice AddressType = "Office"
	AddressOther  AddressType = "Other"
)

type Address struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	FirstName   string             `json:"firstName" bson:"firstName"`
	LastName    string             `json:"lastName" bson:"lastName"`
	Mobile      string             `json:"mobile" bson:"mobile"`
	PinCode     string             `json:"pinCode" bson:"pinCode"`
	City        string             `json:"city" bson:"city"`
	State       string             `json:"state" bson:"state"`
	AddressLine string             `json:"addressLine" bson:"addressLine"`
	Area        string             `json:"area" bson:"area"`
	Landmark    string             `json:"landmark" bson:"landmark"`
	AddressType AddressType        `json:"addressType" bson:"addressType"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
