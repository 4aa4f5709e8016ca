package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "cod"
	PaymentRazorpay PaymentMethod = "razorpay"
)

// PaymentStatus también sirve como estado de envío del pedido.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentShipped    PaymentStatus = "shipped"
	PaymentDelivered  PaymentStatus = "delivered"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentPaid       PaymentStatus = "paid"
	PaymentCompleted  PaymentStatus = "completed"
)

// OrderItem guarda el precio al momento de la compra.
type OrderItem struct {
	Variant  primitive.ObjectID `json:"variant" bson:"variant"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`
}

// ShippingAddress es una copia de la dirección, no una referencia.
type ShippingAddress struct {
	FirstName   string      `json:"firstName" bson:"firstName"`
	LastName    string      `json:"lastName" bson:"lastName"`
	Mobile      string      `json:"mobile" bson:"mobile"`
	PinCode     string      `json:"pinCode" bson:"pinCode"`
	City        string      `json:"city" bson:"city"`
	State       string      `json:"state" bson:"state"`
	AddressLine string      `json:"addressLine" bson:"addressLine"`
	Area        string      `json:"area" bson:"area"`
	Landmark    string      `json:"landmark" bson:"landmark"`
	AddressType AddressType `json:"addressType,omitempty" bson:"addressType,omitempty"`
}

type Order struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User              primitive.ObjectID `json:"user" bson:"user"`
	Items             []OrderItem        `json:"items" bson:"items"`
	ShippingAddress   ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	TotalAmount       float64            `json:"totalAmount" bson:"totalAmount"`
	PaymentMethod     PaymentMethod      `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus     PaymentStatus      `json:"paymentStatus" bson:"paymentStatus"`
	RazorpayOrderID   string             `json:"razorpayOrderId,omitempty" bson:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string             `json:"razorpayPaymentId,omitempty" bson:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `json:"razorpaySignature,omitempty" bson:"razorpaySignature,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}
