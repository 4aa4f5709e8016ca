package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

// Los repositorios devuelven *apperror.Error: NotFound si no existe el documento,
// Conflict si se viola un índice único, Internal en cualquier otro caso.

type ProductRepo interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	FindByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	QueryCatalog(ctx context.Context, f catalog.Filter, scope []primitive.ObjectID) ([]models.ProductSummary, error)
}

// VariantRepo lee y escribe las variantes de cada producto.
type VariantRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Variant, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Variant, error)
	FindByProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.Variant, error)
	FindBySKUs(ctx context.Context, skus []string) ([]models.Variant, error)
	Create(ctx context.Context, variant *models.Variant) error
	Update(ctx context.Context, variant *models.Variant) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
}

type CategoryRepo interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	FindTopLevel(ctx context.Context) ([]models.Category, error)
	FindLinks(ctx context.Context) ([]models.CategoryLink, error)
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error
	ClearWishlist(ctx context.Context, userID primitive.ObjectID) error
	SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
	AddAddress(ctx context.Context, userID primitive.ObjectID, address models.Address) error
	UpdateAddress(ctx context.Context, userID primitive.ObjectID, address models.Address) error
	RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error
}

type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error)
}

type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review) error
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	RatingCounts(ctx context.Context, productID primitive.ObjectID) ([]models.RatingCount, error)
}
