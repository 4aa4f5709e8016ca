package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/storage"
)

// memDB es la base en memoria detrás de los repositorios falsos.
type memDB struct {
	products   map[primitive.ObjectID]models.Product
	variants   map[primitive.ObjectID]models.Variant
	categories map[primitive.ObjectID]models.Category
	users      map[primitive.ObjectID]models.User
	orders     []models.Order
	reviews    []models.Review

	queryCalls int
}

func newMemDB() *memDB {
	return &memDB{
		products:   map[primitive.ObjectID]models.Product{},
		variants:   map[primitive.ObjectID]models.Variant{},
		categories: map[primitive.ObjectID]models.Category{},
		users:      map[primitive.ObjectID]models.User{},
	}
}

func sortedIDs[T any](m map[primitive.ObjectID]T) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

func (db *memDB) addCategory(name string, parent *primitive.ObjectID) models.Category {
	c := models.Category{ID: primitive.NewObjectID(), Name: name, Slug: strings.ToLower(name), ParentCategory: parent}
	db.categories[c.ID] = c
	return c
}

func (db *memDB) addProduct(name string, category primitive.ObjectID, images ...string) models.Product {
	p := models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Description: name + " description",
		BasePrice:   10,
		Category:    category,
		Tags:        []string{},
		Images:      append([]string{}, images...),
		Status:      models.StatusActive,
	}
	db.products[p.ID] = p
	return p
}

func (db *memDB) addVariant(product primitive.ObjectID, sku, color string, price float64, stock int, images ...string) models.Variant {
	v := models.Variant{
		ID:         primitive.NewObjectID(),
		Product:    product,
		SKU:        sku,
		Price:      price,
		Stock:      stock,
		Images:     append([]string{}, images...),
		Attributes: models.VariantAttributes{Size: []string{"M"}, Color: color},
	}
	if len(images) > 0 {
		v.Image = images[0]
	}
	db.variants[v.ID] = v
	return v
}

type fakeProducts struct{ db *memDB }

func (r fakeProducts) Create(_ context.Context, p *models.Product) error {
	for _, existing := range r.db.products {
		if existing.Slug == p.Slug {
			return apperror.Conflict("a product with this slug already exists")
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	r.db.products[p.ID] = *p
	return nil
}

func (r fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return nil, apperror.NotFound("product not found")
	}
	return &p, nil
}

func (r fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Product{}
	for _, id := range sortedIDs(r.db.products) {
		if want[id] {
			out = append(out, r.db.products[id])
		}
	}
	return out, nil
}

func (r fakeProducts) FindByCategories(_ context.Context, categoryIDs []primitive.ObjectID) ([]models.Product, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range categoryIDs {
		want[id] = true
	}
	out := []models.Product{}
	for _, id := range sortedIDs(r.db.products) {
		if p := r.db.products[id]; want[p.Category] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakeProducts) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, p := range r.db.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeProducts) Update(_ context.Context, p *models.Product) error {
	if _, ok := r.db.products[p.ID]; !ok {
		return apperror.NotFound("product not found")
	}
	p.UpdatedAt = time.Now().UTC()
	r.db.products[p.ID] = *p
	return nil
}

func (r fakeProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.db.products[id]; !ok {
		return apperror.NotFound("product not found")
	}
	delete(r.db.products, id)
	return nil
}

// QueryCatalog evalúa la consulta en memoria con las mismas etapas
// que el pipeline de agregación.
func (r fakeProducts) QueryCatalog(_ context.Context, f catalog.Filter, scope []primitive.ObjectID) ([]models.ProductSummary, error) {
	r.db.queryCalls++

	inScope := map[primitive.ObjectID]bool{}
	for _, id := range scope {
		inScope[id] = true
	}

	var rows []models.ProductSummary
	for _, id := range sortedIDs(r.db.products) {
		p := r.db.products[id]
		if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
			continue
		}
		if scope != nil && !inScope[p.Category] {
			continue
		}

		summary := models.ProductSummary{Product: p}
		for _, vid := range sortedIDs(r.db.variants) {
			v := r.db.variants[vid]
			if v.Product != id || !variantMatches(f, v) {
				continue
			}
			summary.Variants = append(summary.Variants, v)
			summary.TotalStock += v.Stock
		}
		if len(summary.Variants) > 0 {
			rows = append(rows, summary)
		}
	}

	switch f.SortField {
	case "name":
		sort.SliceStable(rows, func(i, j int) bool {
			if f.SortOrder == catalog.Desc {
				return rows[i].Name > rows[j].Name
			}
			return rows[i].Name < rows[j].Name
		})
	case "basePrice":
		sort.SliceStable(rows, func(i, j int) bool {
			if f.SortOrder == catalog.Desc {
				return rows[i].BasePrice > rows[j].BasePrice
			}
			return rows[i].BasePrice < rows[j].BasePrice
		})
	}

	skip := int(f.Skip())
	if skip >= len(rows) {
		return []models.ProductSummary{}, nil
	}
	end := skip + f.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[skip:end], nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func variantMatches(f catalog.Filter, v models.Variant) bool {
	if len(f.Colors) > 0 && !containsString(f.Colors, v.Attributes.Color) {
		return false
	}
	if len(f.Sizes) > 0 {
		hit := false
		for _, size := range v.Attributes.Size {
			if containsString(f.Sizes, size) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.PriceMin != nil && v.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && v.Price > *f.PriceMax {
		return false
	}
	return true
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

type fakeVariants struct {
	db         *memDB
	failUpdate map[primitive.ObjectID]bool
	failCreate map[string]bool
}

func (r fakeVariants) FindByID(_ context.Context, id primitive.ObjectID) (*models.Variant, error) {
	v, ok := r.db.variants[id]
	if !ok {
		return nil, apperror.NotFound("variant not found")
	}
	return &v, nil
}

func (r fakeVariants) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Variant, error) {
	out := []models.Variant{}
	for _, id := range sortedIDs(r.db.variants) {
		if v := r.db.variants[id]; v.Product == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeVariants) FindByProducts(_ context.Context, productIDs []primitive.ObjectID) ([]models.Variant, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	out := []models.Variant{}
	for _, id := range sortedIDs(r.db.variants) {
		if v := r.db.variants[id]; want[v.Product] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeVariants) FindBySKUs(_ context.Context, skus []string) ([]models.Variant, error) {
	out := []models.Variant{}
	for _, id := range sortedIDs(r.db.variants) {
		if v := r.db.variants[id]; containsString(skus, v.SKU) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeVariants) Create(_ context.Context, v *models.Variant) error {
	if r.failCreate[v.SKU] {
		return apperror.Internal("database error", fmt.Errorf("insert failed"))
	}
	for _, existing := range r.db.variants {
		if existing.SKU == v.SKU {
			return apperror.Conflict("a variant with this SKU already exists")
		}
	}
	v.ID = primitive.NewObjectID()
	r.db.variants[v.ID] = *v
	return nil
}

func (r fakeVariants) Update(_ context.Context, v *models.Variant) error {
	if r.failUpdate[v.ID] {
		return apperror.Internal("database error", fmt.Errorf("write failed"))
	}
	if _, ok := r.db.variants[v.ID]; !ok {
		return apperror.NotFound("variant not found")
	}
	r.db.variants[v.ID] = *v
	return nil
}

func (r fakeVariants) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.db.variants[id]; !ok {
		return apperror.NotFound("variant not found")
	}
	delete(r.db.variants, id)
	return nil
}

func (r fakeVariants) DeleteByProduct(_ context.Context, productID primitive.ObjectID) error {
	for id, v := range r.db.variants {
		if v.Product == productID {
			delete(r.db.variants, id)
		}
	}
	return nil
}

type fakeCategories struct{ db *memDB }

func (r fakeCategories) Create(_ context.Context, c *models.Category) error {
	for _, existing := range r.db.categories {
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return apperror.Conflict("a category with this name or slug already exists")
		}
	}
	c.ID = primitive.NewObjectID()
	r.db.categories[c.ID] = *c
	return nil
}

func (r fakeCategories) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	c, ok := r.db.categories[id]
	if !ok {
		return nil, apperror.NotFound("category not found")
	}
	return &c, nil
}

func (r fakeCategories) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range r.db.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("category not found")
}

func (r fakeCategories) FindAll(_ context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, id := range sortedIDs(r.db.categories) {
		out = append(out, r.db.categories[id])
	}
	return out, nil
}

func (r fakeCategories) FindTopLevel(_ context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, id := range sortedIDs(r.db.categories) {
		if c := r.db.categories[id]; c.ParentCategory == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeCategories) FindLinks(_ context.Context) ([]models.CategoryLink, error) {
	out := []models.CategoryLink{}
	for _, id := range sortedIDs(r.db.categories) {
		c := r.db.categories[id]
		out = append(out, models.CategoryLink{ID: c.ID, ParentCategory: c.ParentCategory})
	}
	return out, nil
}

func (r fakeCategories) CountChildren(_ context.Context, id primitive.ObjectID) (int64, error) {
	var n int64
	for _, c := range r.db.categories {
		if c.ParentCategory != nil && *c.ParentCategory == id {
			n++
		}
	}
	return n, nil
}

func (r fakeCategories) Update(_ context.Context, c *models.Category) error {
	if _, ok := r.db.categories[c.ID]; !ok {
		return apperror.NotFound("category not found")
	}
	r.db.categories[c.ID] = *c
	return nil
}

func (r fakeCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.db.categories[id]; !ok {
		return apperror.NotFound("category not found")
	}
	delete(r.db.categories, id)
	return nil
}

type fakeUsers struct{ db *memDB }

func (r fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user already exists")
		}
	}
	u.ID = primitive.NewObjectID()
	r.db.users[u.ID] = *u
	return nil
}

func (r fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return &u, nil
}

func (r fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (r fakeUsers) mutate(id primitive.ObjectID, fn func(u *models.User)) error {
	u, ok := r.db.users[id]
	if !ok {
		return apperror.NotFound("user not found")
	}
	fn(&u)
	r.db.users[id] = u
	return nil
}

func (r fakeUsers) AddToWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	return r.mutate(userID, func(u *models.User) {
		for _, id := range u.Wishlist {
			if id == productID {
				return
			}
		}
		u.Wishlist = append(u.Wishlist, productID)
	})
}

func (r fakeUsers) RemoveFromWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	return r.mutate(userID, func(u *models.User) {
		kept := []primitive.ObjectID{}
		for _, id := range u.Wishlist {
			if id != productID {
				kept = append(kept, id)
			}
		}
		u.Wishlist = kept
	})
}

func (r fakeUsers) ClearWishlist(_ context.Context, userID primitive.ObjectID) error {
	return r.mutate(userID, func(u *models.User) { u.Wishlist = []primitive.ObjectID{} })
}

func (r fakeUsers) SaveCart(_ context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	return r.mutate(userID, func(u *models.User) { u.Cart = append([]models.CartItem{}, items...) })
}

func (r fakeUsers) AddAddress(_ context.Context, userID primitive.ObjectID, a models.Address) error {
	return r.mutate(userID, func(u *models.User) { u.Addresses = append(u.Addresses, a) })
}

func (r fakeUsers) UpdateAddress(_ context.Context, userID primitive.ObjectID, a models.Address) error {
	found := false
	err := r.mutate(userID, func(u *models.User) {
		for i := range u.Addresses {
			if u.Addresses[i].ID == a.ID {
				u.Addresses[i] = a
				found = true
			}
		}
	})
	if err == nil && !found {
		return apperror.NotFound("address not found")
	}
	return err
}

func (r fakeUsers) RemoveAddress(_ context.Context, userID, addressID primitive.ObjectID) error {
	found := false
	err := r.mutate(userID, func(u *models.User) {
		kept := []models.Address{}
		for _, a := range u.Addresses {
			if a.ID == addressID {
				found = true
				continue
			}
			kept = append(kept, a)
		}
		u.Addresses = kept
	})
	if err == nil && !found {
		return apperror.NotFound("address not found")
	}
	return err
}

type fakeOrders struct {
	db      *memDB
	failNew bool
}

func (r fakeOrders) Create(_ context.Context, o *models.Order) error {
	if r.failNew {
		return apperror.Internal("database error", fmt.Errorf("insert failed"))
	}
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.db.orders = append(r.db.orders, *o)
	return nil
}

func (r fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	for _, o := range r.db.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, apperror.NotFound("order not found")
}

// newestFirst copia los pedidos en orden inverso de inserción.
func (r fakeOrders) newestFirst(keep func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for i := len(r.db.orders) - 1; i >= 0; i-- {
		if keep(r.db.orders[i]) {
			out = append(out, r.db.orders[i])
		}
	}
	return out
}

func (r fakeOrders) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.newestFirst(func(o models.Order) bool { return o.User == userID }), nil
}

func (r fakeOrders) FindAll(_ context.Context) ([]models.Order, error) {
	return r.newestFirst(func(models.Order) bool { return true }), nil
}

func (r fakeOrders) UpdatePaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	for i := range r.db.orders {
		if r.db.orders[i].ID == id {
			r.db.orders[i].PaymentStatus = status
			o := r.db.orders[i]
			return &o, nil
		}
	}
	return nil, apperror.NotFound("order not found")
}

type fakeReviews struct{ db *memDB }

func (r fakeReviews) Create(_ context.Context, rv *models.Review) error {
	rv.ID = primitive.NewObjectID()
	rv.CreatedAt = time.Now().UTC()
	r.db.reviews = append(r.db.reviews, *rv)
	return nil
}

func (r fakeReviews) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	out := []models.Review{}
	for i := len(r.db.reviews) - 1; i >= 0; i-- {
		if r.db.reviews[i].Product == productID {
			out = append(out, r.db.reviews[i])
		}
	}
	return out, nil
}

// RatingCounts reproduce el $group por rating del repositorio.
func (r fakeReviews) RatingCounts(_ context.Context, productID primitive.ObjectID) ([]models.RatingCount, error) {
	byRating := map[int]int{}
	for _, rv := range r.db.reviews {
		if rv.Product == productID {
			byRating[rv.Rating]++
		}
	}
	out := []models.RatingCount{}
	for rating := 5; rating >= 1; rating-- {
		if n := byRating[rating]; n > 0 {
			out = append(out, models.RatingCount{Rating: rating, Count: n})
		}
	}
	return out, nil
}

// fakeFiles es un FileStore que recuerda qué se guardó y qué se borró.
type fakeFiles struct {
	files   map[string][]byte
	saved   []string
	deleted []string
	n       int
}

func newFakeFiles(existing ...string) *fakeFiles {
	f := &fakeFiles{files: map[string][]byte{}}
	for _, p := range existing {
		f.files[p] = nil
	}
	return f
}

func (f *fakeFiles) Save(_ context.Context, filename string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.n++
	p := fmt.Sprintf("/uploads/%d-%s", f.n, filename)
	f.files[p] = data
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakeFiles) Delete(_ context.Context, p string) error {
	if _, ok := f.files[p]; !ok {
		return storage.ErrFileNotFound
	}
	delete(f.files, p)
	f.deleted = append(f.deleted, p)
	return nil
}

func testUpload(name string) storage.Upload {
	return storage.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        4,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data")), nil
		},
	}
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

func floatPtr(v float64) *float64 { return &v }
