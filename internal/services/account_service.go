package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type CartItemInput struct {
	VariantID primitive.ObjectID `json:"variantId" binding:"required"`
	Quantity  int                `json:"quantity"`
}

type AddressInput struct {
	FirstName   string             `json:"firstName" binding:"required" validate:"required"`
	LastName    string             `json:"lastName"`
	Mobile      string             `json:"mobile" binding:"required" validate:"required"`
	PinCode     string             `json:"pinCode" binding:"required" validate:"required"`
	City        string             `json:"city" binding:"required" validate:"required"`
	State       string             `json:"state" binding:"required" validate:"required"`
	AddressLine string             `json:"addressLine" binding:"required" validate:"required"`
	Area        string             `json:"area"`
	Landmark    string             `json:"landmark"`
	AddressType models.AddressType `json:"addressType" validate:"omitempty,oneof=Home Office Other"`
}

// CartLine es un ítem del carrito con su variante y producto.
type CartLine struct {
	Variant  models.Variant  `json:"variant"`
	Product  *models.Product `json:"product,omitempty"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"addedAt"`
}

// AccountService maneja las listas embebidas en el documento del usuario.
// El control de stock del carrito lee y después escribe: dos agregados
// simultáneos pueden pasar los dos.
type AccountService struct {
	users    repository.UserRepo
	products repository.ProductRepo
	variants repository.VariantRepo
}

func NewAccountService(users repository.UserRepo, products repository.ProductRepo, variants repository.VariantRepo) *AccountService {
	return &AccountService{users: users, products: products, variants: variants}
}

func (s *AccountService) Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.products.FindByIDs(ctx, user.Wishlist)
}

func (s *AccountService) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.users.AddToWishlist(ctx, userID, productID)
}

func (s *AccountService) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return s.users.RemoveFromWishlist(ctx, userID, productID)
}

func (s *AccountService) ClearWishlist(ctx context.Context, userID primitive.ObjectID) error {
	return s.users.ClearWishlist(ctx, userID)
}

// Cart devuelve los ítems cuya variante todavía existe.
func (s *AccountService) Cart(ctx context.Context, userID primitive.ObjectID) ([]CartLine, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cartLines(ctx, user.Cart)
}

func (s *AccountService) AddToCart(ctx context.Context, userID primitive.ObjectID, in CartItemInput) ([]CartLine, error) {
	if in.Quantity < 1 {
		return nil, apperror.BadRequest("quantity must be at least 1")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	variant, err := s.variants.FindByID(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}

	items := user.Cart
	idx := cartIndex(items, in.VariantID)
	quantity := in.Quantity
	if idx >= 0 {
		quantity += items[idx].Quantity
	}
	if variant.Stock < quantity {
		return nil, apperror.Conflict("insufficient stock")
	}

	if idx >= 0 {
		items[idx].Quantity = quantity
	} else {
		items = append(items, models.CartItem{Variant: in.VariantID, Quantity: quantity, AddedAt: time.Now().UTC()})
	}
	if err := s.users.SaveCart(ctx, userID, items); err != nil {
		return nil, err
	}
	return s.cartLines(ctx, items)
}

// UpdateCartItem fija la cantidad; cero o menos lo quita.
func (s *AccountService) UpdateCartItem(ctx context.Context, userID primitive.ObjectID, in CartItemInput) ([]CartLine, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := user.Cart
	idx := cartIndex(items, in.VariantID)
	if idx < 0 {
		return nil, apperror.NotFound("item not in cart")
	}

	if in.Quantity <= 0 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		variant, err := s.variants.FindByID(ctx, in.VariantID)
		if err != nil {
			return nil, err
		}
		if variant.Stock < in.Quantity {
			return nil, apperror.Conflict("insufficient stock")
		}
		items[idx].Quantity = in.Quantity
	}

	if err := s.users.SaveCart(ctx, userID, items); err != nil {
		return nil, err
	}
	return s.cartLines(ctx, items)
}

func (s *AccountService) RemoveFromCart(ctx context.Context, userID, variantID primitive.ObjectID) ([]CartLine, error) {
	return s.UpdateCartItem(ctx, userID, CartItemInput{VariantID: variantID, Quantity: 0})
}

func (s *AccountService) Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

func (s *AccountService) AddAddress(ctx context.Context, userID primitive.ObjectID, in AddressInput) (*models.Address, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	address := applyAddress(models.Address{
		ID:        primitive.NewObjectID(),
		CreatedAt: time.Now().UTC(),
	}, in)
	if err := s.users.AddAddress(ctx, userID, address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (s *AccountService) UpdateAddress(ctx context.Context, userID, addressID primitive.ObjectID, in AddressInput) (*models.Address, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, existing := range user.Addresses {
		if existing.ID != addressID {
			continue
		}
		address := applyAddress(existing, in)
		if err := s.users.UpdateAddress(ctx, userID, address); err != nil {
			return nil, err
		}
		return &address, nil
	}
	return nil, apperror.NotFound("address not found")
}

func (s *AccountService) RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error {
	return s.users.RemoveAddress(ctx, userID, addressID)
}

func (s *AccountService) cartLines(ctx context.Context, items []models.CartItem) ([]CartLine, error) {
	lines := make([]CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	variants := make(map[primitive.ObjectID]models.Variant, len(items))
	productIDs := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		v, err := s.variants.FindByID(ctx, item.Variant)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, err
		}
		variants[item.Variant] = *v
		productIDs = append(productIDs, v.Product)
	}

	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range items {
		v, ok := variants[item.Variant]
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			Variant:  v,
			Product:  byID[v.Product],
			Quantity: item.Quantity,
			AddedAt:  item.AddedAt,
		})
	}
	return lines, nil
}

func cartIndex(items []models.CartItem, variantID primitive.ObjectID) int {
	for i, item := range items {
		if item.Variant == variantID {
			return i
		}
	}
	return -1
}

func applyAddress(a models.Address, in AddressInput) models.Address {
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Mobile = in.Mobile
	a.PinCode = in.PinCode
	a.City = in.City
	a.State = in.State
	a.AddressLine = in.AddressLine
	a.Area = in.Area
	a.Landmark = in.Landmark
	a.AddressType = in.AddressType
	if a.AddressType == "" {
		a.AddressType = models.AddressHome
	}
	return a
}
