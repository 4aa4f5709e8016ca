package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/catalog"
	"storefront/internal/database"
	"storefront/internal/models"
)

type testStore struct {
	products   *ProductRepository
	variants   *VariantRepository
	categories *CategoryRepository
	users      *UserRepository
	orders     *OrderRepository
	reviews    *ReviewRepository
}

// newTestStore se conecta a MONGO_TEST_URI y usa una base descartable que se
// borra al terminar. `make test-integration` levanta Mongo y la exporta.
func newTestStore(t *testing.T) *testStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set; run `make test-integration`")
	}

	ctx := context.Background()
	dbName := fmt.Sprintf("storefront_test_%d", time.Now().UnixNano())
	db, err := database.Connect(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.DB.Drop(context.Background())
		_ = db.Close(context.Background())
	})
	require.NoError(t, db.EnsureIndexes(ctx))

	return &testStore{
		products:   NewProductRepository(db.Collection(database.ProductsCollection), database.VariantsCollection),
		variants:   NewVariantRepository(db.Collection(database.VariantsCollection)),
		categories: NewCategoryRepository(db.Collection(database.CategoriesCollection)),
		users:      NewUserRepository(db.Collection(database.UsersCollection)),
		orders:     NewOrderRepository(db.Collection(database.OrdersCollection)),
		reviews:    NewReviewRepository(db.Collection(database.ReviewsCollection)),
	}
}

func (s *testStore) category(t *testing.T, name string, parent *primitive.ObjectID) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: name, ParentCategory: parent}
	require.NoError(t, s.categories.Create(context.Background(), c))
	return c
}

func (s *testStore) product(t *testing.T, name string, category primitive.ObjectID) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Slug: name, Description: name, BasePrice: 10, Category: category}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p
}

func (s *testStore) variant(t *testing.T, product primitive.ObjectID, sku, color string, price float64, stock int) *models.Variant {
	t.Helper()
	v := &models.Variant{
		Product:    product,
		SKU:        sku,
		Price:      price,
		Stock:      stock,
		Attributes: models.VariantAttributes{Color: color, Size: []string{"M"}},
	}
	require.NoError(t, s.variants.Create(context.Background(), v))
	return v
}

func TestQueryCatalogAgainstMongo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shoes := s.category(t, "shoes", nil)
	p1 := s.product(t, "runner", shoes.ID)
	s.variant(t, p1.ID, "RUN-RED", "red", 100, 5)
	s.variant(t, p1.ID, "RUN-BLUE", "blue", 200, 0)
	p2 := s.product(t, "trail", shoes.ID)
	s.variant(t, p2.ID, "TRL-RED", "red", 150, 3)
	empty := s.product(t, "bare", shoes.ID)

	lo, hi := 90.0, 160.0
	f := catalog.Filter{Colors: []string{"red"}, PriceMin: &lo, PriceMax: &hi}.Normalize()
	got, err := s.products.QueryCatalog(ctx, f, []primitive.ObjectID{shoes.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, p1.ID, got[0].ID)
	assert.Equal(t, "runner", got[0].Name)
	assert.Equal(t, 5, got[0].TotalStock)
	require.Len(t, got[0].Variants, 1)
	assert.Equal(t, "RUN-RED", got[0].Variants[0].SKU)
	assert.Equal(t, p2.ID, got[1].ID)
	assert.Equal(t, 3, got[1].TotalStock)

	all, err := s.products.QueryCatalog(ctx, catalog.Filter{}.Normalize(), nil)
	require.NoError(t, err)
	for _, p := range all {
		assert.NotEqual(t, empty.ID, p.ID, "products without variants are not listed")
	}
	assert.Len(t, all, 2)
}

func TestQueryCatalogPaginatesGroupedProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bags := s.category(t, "bags", nil)
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		p := s.product(t, name, bags.ID)
		s.variant(t, p.ID, "SKU-"+name+"-1", "black", 10, 1)
		s.variant(t, p.ID, "SKU-"+name+"-2", "white", 20, 2)
	}

	page := func(n, size int) []string {
		f := catalog.Filter{SortField: "name", Page: n, PageSize: size}.Normalize()
		rows, err := s.products.QueryCatalog(ctx, f, nil)
		require.NoError(t, err)
		names := make([]string, 0, len(rows))
		for _, r := range rows {
			assert.Equal(t, 3, r.TotalStock)
			names = append(names, r.Name)
		}
		return names
	}

	assert.Equal(t, []string{"a", "b"}, page(1, 2))
	assert.Equal(t, []string{"c", "d"}, page(2, 2))
	assert.Equal(t, []string{"e"}, page(3, 2))
	assert.Empty(t, page(4, 2))
}

func TestCategoryLinksAndChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := s.category(t, "clothing", nil)
	child := s.category(t, "shirts", &root.ID)

	links, err := s.categories.FindLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	n, err := s.categories.CountChildren(ctx, root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	top, err := s.categories.FindTopLevel(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, root.ID, top[0].ID)

	found, err := s.categories.FindBySlug(ctx, "shirts")
	require.NoError(t, err)
	assert.Equal(t, child.ID, found.ID)

	err = s.categories.Create(ctx, &models.Category{Name: "clothing", Slug: "clothing-2"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDuplicateKeysMapToConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := s.category(t, "hats", nil)
	p := s.product(t, "cap", c.ID)
	s.variant(t, p.ID, "CAP-1", "red", 5, 1)

	err := s.products.Create(ctx, &models.Product{Name: "cap 2", Slug: "cap", Category: c.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	err = s.variants.Create(ctx, &models.Variant{Product: p.ID, SKU: "CAP-1"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	exists, err := s.products.SlugExists(ctx, "cap")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.variants.DeleteByProduct(ctx, p.ID))
	require.NoError(t, s.products.Delete(ctx, p.ID))
	assert.ErrorIs(t, s.products.Delete(ctx, p.ID), apperror.ErrNotFound)
}

func TestUserEmbeddedCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Name: "Ada", Email: "ada@example.com", Password: "hash"}
	require.NoError(t, s.users.Create(ctx, u))
	assert.ErrorIs(t, s.users.Create(ctx, &models.User{Name: "Other", Email: "ada@example.com"}), apperror.ErrConflict)

	product := primitive.NewObjectID()
	require.NoError(t, s.users.AddToWishlist(ctx, u.ID, product))
	require.NoError(t, s.users.AddToWishlist(ctx, u.ID, product))

	got, err := s.users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{product}, got.Wishlist)

	addr := models.Address{ID: primitive.NewObjectID(), City: "Berlin", AddressType: models.AddressHome}
	require.NoError(t, s.users.AddAddress(ctx, u.ID, addr))
	addr.City = "Hamburg"
	require.NoError(t, s.users.UpdateAddress(ctx, u.ID, addr))
	require.NoError(t, s.users.RemoveAddress(ctx, u.ID, addr.ID))
	assert.ErrorIs(t, s.users.RemoveAddress(ctx, u.ID, addr.ID), apperror.ErrNotFound)
}

func TestVariantsFindBySKUs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := s.category(t, "socks", nil)
	p := s.product(t, "wool", c.ID)
	s.variant(t, p.ID, "SOCK-1", "grey", 5, 1)
	s.variant(t, p.ID, "SOCK-2", "black", 5, 1)

	got, err := s.variants.FindBySKUs(ctx, []string{"SOCK-2", "SOCK-9"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SOCK-2", got[0].SKU)

	none, err := s.variants.FindBySKUs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrdersNewestFirstAndStatusUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		o := &models.Order{User: user, TotalAmount: float64(i), PaymentMethod: models.PaymentCOD, PaymentStatus: models.PaymentPending}
		require.NoError(t, s.orders.Create(ctx, o))
		ids = append(ids, o.ID)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, s.orders.Create(ctx, &models.Order{User: primitive.NewObjectID(), PaymentMethod: models.PaymentCOD}))

	mine, err := s.orders.FindByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, ids[2], mine[0].ID)
	assert.Equal(t, ids[0], mine[2].ID)

	all, err := s.orders.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	updated, err := s.orders.UpdatePaymentStatus(ctx, ids[0], models.PaymentShipped)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentShipped, updated.PaymentStatus)

	_, err = s.orders.UpdatePaymentStatus(ctx, primitive.NewObjectID(), models.PaymentShipped)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestReviewRatingCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	product := primitive.NewObjectID()

	for _, rating := range []int{5, 3, 5, 1} {
		require.NoError(t, s.reviews.Create(ctx, &models.Review{Product: product, Rating: rating, Name: "Ada", Text: "ok"}))
	}
	require.NoError(t, s.reviews.Create(ctx, &models.Review{Product: primitive.NewObjectID(), Rating: 2, Name: "Bo", Text: "meh"}))

	counts, err := s.reviews.RatingCounts(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, []models.RatingCount{{Rating: 5, Count: 2}, {Rating: 3, Count: 1}, {Rating: 1, Count: 1}}, counts)

	reviews, err := s.reviews.FindByProduct(ctx, product)
	require.NoError(t, err)
	assert.Len(t, reviews, 4)
}
