package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/services"
)

type AccountManager interface {
	Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error)
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	ClearWishlist(ctx context.Context, userID primitive.ObjectID) error

	Cart(ctx context.Context, userID primitive.ObjectID) ([]services.CartLine, error)
	AddToCart(ctx context.Context, userID primitive.ObjectID, in services.CartItemInput) ([]services.CartLine, error)
	UpdateCartItem(ctx context.Context, userID primitive.ObjectID, in services.CartItemInput) ([]services.CartLine, error)
	RemoveFromCart(ctx context.Context, userID, variantID primitive.ObjectID) ([]services.CartLine, error)

	Addresses(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	AddAddress(ctx context.Context, userID primitive.ObjectID, in services.AddressInput) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID primitive.ObjectID, in services.AddressInput) (*models.Address, error)
	RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error
}

// AccountHandler atiende wishlist, carrito y direcciones del usuario.
type AccountHandler struct {
	accounts AccountManager
}

func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type wishlistRequest struct {
	ProductID primitive.ObjectID `json:"productId" binding:"required"`
}

type cartRequest struct {
	VariantID primitive.ObjectID `json:"variantId" binding:"required"`
	Quantity  *int               `json:"quantity"`
}

// GET /api/wishlist
func (h *AccountHandler) GetWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	products, err := h.accounts.Wishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// POST /api/wishlist/add
func (h *AccountHandler) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.accounts.AddToWishlist(c.Request.Context(), userID, req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	h.respondWishlist(c, userID, "Product added to wishlist")
}

// DELETE /api/wishlist/remove/:productId
func (h *AccountHandler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := parseObjectID(c, "productId", "product")
	if !ok {
		return
	}

	if err := h.accounts.RemoveFromWishlist(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	h.respondWishlist(c, userID, "Product removed from wishlist")
}

// DELETE /api/wishlist
func (h *AccountHandler) ClearWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.accounts.ClearWishlist(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Wishlist cleared"})
}

func (h *AccountHandler) respondWishlist(c *gin.Context, userID primitive.ObjectID, message string) {
	products, err := h.accounts.Wishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "wishlist": products})
}

// GET /api/cart
func (h *AccountHandler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	lines, err := h.accounts.Cart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// POST /api/cart/add
func (h *AccountHandler) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in := services.CartItemInput{VariantID: req.VariantID, Quantity: 1}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}

	lines, err := h.accounts.AddToCart(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": lines})
}

// PATCH /api/cart/update
func (h *AccountHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}

	lines, err := h.accounts.UpdateCartItem(c.Request.Context(), userID,
		services.CartItemInput{VariantID: req.VariantID, Quantity: *req.Quantity})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": lines})
}

// DELETE /api/cart/remove/:variantId
func (h *AccountHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	variantID, ok := parseObjectID(c, "variantId", "variant")
	if !ok {
		return
	}

	lines, err := h.accounts.RemoveFromCart(c.Request.Context(), userID, variantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "cart": lines})
}

// GET /api/address
func (h *AccountHandler) GetAddresses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addresses, err := h.accounts.Addresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

// POST /api/address/add
func (h *AccountHandler) AddAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	address, err := h.accounts.AddAddress(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

// PUT /api/address/update/:addressId
func (h *AccountHandler) UpdateAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := parseObjectID(c, "addressId", "address")
	if !ok {
		return
	}
	var in services.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	address, err := h.accounts.UpdateAddress(c.Request.Context(), userID, addressID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address updated", "address": address})
}

// DELETE /api/address/remove/:addressId
func (h *AccountHandler) RemoveAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addressID, ok := parseObjectID(c, "addressId", "address")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.accounts.RemoveAddress(ctx, userID, addressID); err != nil {
		respondError(c, err)
		return
	}
	addresses, err := h.accounts.Addresses(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted", "addresses": addresses})
}
