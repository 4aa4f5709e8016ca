package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/repository"
)

// SignatureVerifier comprueba la firma de pago del checkout.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) error
}

type OrderItemInput struct {
	Variant  primitive.ObjectID `json:"variant" validate:"-"`
	Quantity int                `json:"quantity" validate:"gte=1"`
	Price    float64            `json:"price" validate:"gte=0"`
}

type OrderInput struct {
	Items             []OrderItemInput       `json:"items" validate:"required,min=1,dive"`
	ShippingAddress   models.ShippingAddress `json:"shippingAddress" validate:"-"`
	TotalAmount       float64                `json:"totalAmount" validate:"gte=0"`
	PaymentMethod     models.PaymentMethod   `json:"paymentMethod" validate:"required,oneof=cod razorpay"`
	RazorpayOrderID   string                 `json:"razorpayOrderId"`
	RazorpayPaymentID string                 `json:"razorpayPaymentId"`
	RazorpaySignature string                 `json:"razorpaySignature"`
}

func (in OrderInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	for i, it := range in.Items {
		if it.Variant.IsZero() {
			return apperror.BadRequest(fmt.Sprintf("items[%d].variant is required", i))
		}
	}
	switch in.ShippingAddress.AddressType {
	case "", models.AddressHome, models.AddressOffice, models.AddressOther:
	default:
		return apperror.BadRequest("shippingAddress.addressType must be one of Home Office Other")
	}
	return nil
}

var orderStatuses = map[models.PaymentStatus]bool{
	models.PaymentPending:    true,
	models.PaymentProcessing: true,
	models.PaymentShipped:    true,
	models.PaymentDelivered:  true,
	models.PaymentCancelled:  true,
	models.PaymentPaid:       true,
	models.PaymentCompleted:  true,
}

// OrderService registra pedidos ya pagados (o contra reembolso). El cobro
// en sí ocurre en el checkout de Razorpay; acá sólo se verifica la firma.
type OrderService struct {
	orders   repository.OrderRepo
	users    repository.UserRepo
	verifier SignatureVerifier
}

func NewOrderService(orders repository.OrderRepo, users repository.UserRepo, verifier SignatureVerifier) *OrderService {
	return &OrderService{orders: orders, users: users, verifier: verifier}
}

// Place guarda el pedido y vacía el carrito del usuario.
func (s *OrderService) Place(ctx context.Context, userID primitive.ObjectID, in OrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	status := models.PaymentPending
	if in.PaymentMethod == models.PaymentRazorpay {
		err := s.verifier.Verify(in.RazorpayOrderID, in.RazorpayPaymentID, in.RazorpaySignature)
		switch {
		case errors.Is(err, payment.ErrNotConfigured):
			return nil, apperror.Internal("payment verification unavailable", err)
		case err != nil:
			zap.L().Warn("razorpay signature mismatch",
				zap.String("user_id", userID.Hex()), zap.String("razorpay_order_id", in.RazorpayOrderID))
			return nil, apperror.BadRequest("Invalid Razorpay signature")
		}
		status = models.PaymentPaid
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = models.OrderItem{Variant: it.Variant, Quantity: it.Quantity, Price: it.Price}
	}
	order := &models.Order{
		User:              userID,
		Items:             items,
		ShippingAddress:   in.ShippingAddress,
		TotalAmount:       in.TotalAmount,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     status,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		RazorpaySignature: in.RazorpaySignature,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// el pedido ya existe; un carrito sin vaciar no lo invalida
	if err := s.users.SaveCart(ctx, userID, nil); err != nil {
		zap.L().Error("cart clear after order failed",
			zap.String("user_id", userID.Hex()), zap.String("order_id", order.ID.Hex()), zap.Error(err))
	}
	return order, nil
}

func (s *OrderService) ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindAll(ctx)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	if status == "" {
		return nil, apperror.BadRequest("Status is required in body")
	}
	if !orderStatuses[status] {
		return nil, apperror.BadRequest("status must be one of pending processing shipped delivered cancelled paid completed")
	}
	return s.orders.UpdatePaymentStatus(ctx, id, status)
}
