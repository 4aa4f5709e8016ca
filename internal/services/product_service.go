package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/slug"
	"storefront/internal/storage"
)

const fallbackSlug = "product"

// CatalogInvalidator se avisa después de cada escritura que puede cambiar
// una página del catálogo.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// VariantInput es una entrada de la lista deseada de variantes. ID viene
// en las que ya existen.
type VariantInput struct {
	ID         *primitive.ObjectID      `json:"_id,omitempty"`
	SKU        string                   `json:"sku" validate:"required"`
	Price      float64                  `json:"price" validate:"gte=0"`
	Stock      int                      `json:"stock" validate:"gte=0"`
	IsDefault  bool                     `json:"isDefault"`
	Attributes models.VariantAttributes `json:"attributes"`
	OldImages  []string                 `json:"oldImages"`
}

// ProductInput sirve para crear o actualizar completo. VariantImages usa
// como clave el índice de la variante en Variants.
type ProductInput struct {
	Name          string                   `validate:"required"`
	Description   string                   `validate:"required"`
	BasePrice     float64                  `validate:"gt=0"`
	Category      primitive.ObjectID       `validate:"-"`
	Tags          []string                 `validate:"-"`
	Status        models.ProductStatus     `validate:"omitempty,oneof=active inactive"`
	Variants      []VariantInput           `validate:"dive"`
	OldImages     []string                 `validate:"-"`
	Images        []storage.Upload         `validate:"-"`
	VariantImages map[int][]storage.Upload `validate:"-"`
}

func (in ProductInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.Category.IsZero() {
		return apperror.BadRequest("category is required")
	}
	for idx := range in.VariantImages {
		if idx < 0 || idx >= len(in.Variants) {
			return apperror.BadRequest(fmt.Sprintf("variantImages[%d] has no matching variant", idx))
		}
	}

	ids := make(map[primitive.ObjectID]bool, len(in.Variants))
	skus := make(map[string]bool, len(in.Variants))
	for _, v := range in.Variants {
		if v.ID != nil {
			if ids[*v.ID] {
				return apperror.BadRequest(fmt.Sprintf("variant %s is listed more than once", v.ID.Hex()))
			}
			ids[*v.ID] = true
		}
		if skus[v.SKU] {
			return apperror.BadRequest(fmt.Sprintf("sku %q is listed more than once", v.SKU))
		}
		skus[v.SKU] = true
	}
	return nil
}

func (in ProductInput) skus() []string {
	out := make([]string, len(in.Variants))
	for i, v := range in.Variants {
		out[i] = v.SKU
	}
	return out
}

type ProductService struct {
	products   repository.ProductRepo
	variants   repository.VariantRepo
	categories repository.CategoryRepo
	files      storage.FileStore
	catalog    CatalogInvalidator
}

func NewProductService(
	products repository.ProductRepo,
	variants repository.VariantRepo,
	categories repository.CategoryRepo,
	files storage.FileStore,
	catalog CatalogInvalidator,
) *ProductService {
	return &ProductService{
		products:   products,
		variants:   variants,
		categories: categories,
		files:      files,
		catalog:    catalog,
	}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.ProductWithVariants, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}

	if err := s.checkSKUs(ctx, primitive.NilObjectID, in.skus()); err != nil {
		return nil, err
	}

	productSlug, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	uploaded := newUploadSet(s.files)
	images, variantImages, err := uploaded.saveProductUploads(ctx, in)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        in.Name,
		Slug:        productSlug,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		Category:    in.Category,
		Tags:        nonNil(in.Tags),
		Images:      images,
		Status:      in.Status,
	}
	if err := s.products.Create(ctx, product); err != nil {
		uploaded.release(ctx)
		return nil, err
	}
	defer s.catalog.Invalidate(ctx)

	variants := make([]models.Variant, 0, len(in.Variants))
	for i, v := range in.Variants {
		variant := newVariant(product.ID, v, variantImages[i])
		if err := s.variants.Create(ctx, &variant); err != nil {
			zap.L().Error("variant create failed",
				zap.String("product_id", product.ID.Hex()), zap.String("sku", v.SKU), zap.Error(err))
			s.undoCreate(ctx, product.ID, uploaded)
			return nil, err
		}
		variants = append(variants, variant)
	}
	return &models.ProductWithVariants{Product: *product, Variations: variants}, nil
}

// undoCreate borra el producto a medio crear junto con sus variantes y archivos.
func (s *ProductService) undoCreate(ctx context.Context, productID primitive.ObjectID, uploaded *uploadSet) {
	if err := s.variants.DeleteByProduct(ctx, productID); err != nil {
		zap.L().Error("variant cleanup failed", zap.String("product_id", productID.Hex()), zap.Error(err))
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		zap.L().Error("product cleanup failed", zap.String("product_id", productID.Hex()), zap.Error(err))
	}
	uploaded.release(ctx)
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.ProductWithVariants, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.variants.FindByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ProductWithVariants{Product: *product, Variations: variants}, nil
}

// Update actualiza el producto y reconcilia sus variantes con
// in.Variants. Las imágenes que no vienen en OldImages se liberan.
func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.ProductWithVariants, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if err := s.checkSKUs(ctx, product.ID, in.skus()); err != nil {
		return nil, err
	}

	uploaded := newUploadSet(s.files)
	newImages, variantImages, err := uploaded.saveProductUploads(ctx, in)
	if err != nil {
		return nil, err
	}

	kept, dropped := diffImages(product.Images, in.OldImages)
	product.Name = in.Name
	product.Description = in.Description
	product.BasePrice = in.BasePrice
	product.Category = in.Category
	product.Images = append(kept, newImages...)
	if in.Tags != nil {
		product.Tags = in.Tags
	}
	if in.Status != "" {
		product.Status = in.Status
	}

	if err := s.products.Update(ctx, product); err != nil {
		uploaded.release(ctx)
		return nil, err
	}
	storage.Release(ctx, s.files, dropped...)

	variants, err := s.reconcileVariants(ctx, product.ID, in.Variants, variantImages)
	s.catalog.Invalidate(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ProductWithVariants{Product: *product, Variations: variants}, nil
}

// Delete elimina el producto y sus variantes y libera las imágenes.
func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	variants, err := s.variants.FindByProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.variants.DeleteByProduct(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)

	storage.Release(ctx, s.files, product.Images...)
	for _, v := range variants {
		storage.Release(ctx, s.files, v.Images...)
	}
	return nil
}

// reconcileVariants aplica la lista deseada sobre las variantes guardadas:
// las que faltan en desired se borran, las que traen id se actualizan
// y las que no traen id se crean. Un error no deshace nada: lo aplicado
// antes del paso que falló queda guardado.
func (s *ProductService) reconcileVariants(
	ctx context.Context,
	productID primitive.ObjectID,
	desired []VariantInput,
	uploads map[int][]string,
) ([]models.Variant, error) {
	existing, err := s.variants.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Variant, len(existing))
	for _, v := range existing {
		byID[v.ID] = v
	}
	wanted := make(map[primitive.ObjectID]bool, len(desired))
	for _, d := range desired {
		if d.ID != nil {
			wanted[*d.ID] = true
		}
	}

	for _, v := range existing {
		if wanted[v.ID] {
			continue
		}
		if err := s.variants.Delete(ctx, v.ID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		storage.Release(ctx, s.files, v.Images...)
	}

	result := make([]models.Variant, 0, len(desired))
	for i, d := range desired {
		if d.ID == nil {
			variant := newVariant(productID, d, uploads[i])
			if err := s.variants.Create(ctx, &variant); err != nil {
				return nil, err
			}
			result = append(result, variant)
			continue
		}

		current, ok := byID[*d.ID]
		if !ok {
			zap.L().Warn("skipping variant that does not belong to product",
				zap.String("product_id", productID.Hex()), zap.String("variant_id", d.ID.Hex()))
			storage.Release(ctx, s.files, uploads[i]...)
			continue
		}

		kept, dropped := diffImages(current.Images, d.OldImages)
		images := append(kept, uploads[i]...)
		current.SKU = d.SKU
		current.Price = d.Price
		current.Stock = d.Stock
		current.IsDefault = d.IsDefault
		current.Attributes = normalizeAttributes(d.Attributes)
		current.Images = images
		current.Image = firstOrEmpty(images)

		if err := s.variants.Update(ctx, &current); err != nil {
			return nil, err
		}
		storage.Release(ctx, s.files, dropped...)
		result = append(result, current)
	}
	return result, nil
}

func (s *ProductService) checkCategory(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.BadRequest("invalid category")
	}
	return err
}

// checkSKUs rechaza SKUs que ya usa una variante de otro producto.
func (s *ProductService) checkSKUs(ctx context.Context, owner primitive.ObjectID, skus []string) error {
	if len(skus) == 0 {
		return nil
	}
	taken, err := s.variants.FindBySKUs(ctx, skus)
	if err != nil {
		return err
	}
	for _, v := range taken {
		if v.Product != owner {
			return apperror.Conflict(fmt.Sprintf("sku %q is already in use", v.SKU))
		}
	}
	return nil
}

// uniqueSlug arma el slug desde name y agrega -1, -2, ... hasta que esté libre.
func (s *ProductService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = fallbackSlug
	}
	candidate := base
	for n := 1; ; n++ {
		exists, err := s.products.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func newVariant(productID primitive.ObjectID, in VariantInput, uploads []string) models.Variant {
	images := append([]string{}, uploads...)
	return models.Variant{
		Product:    productID,
		SKU:        in.SKU,
		Price:      in.Price,
		Stock:      in.Stock,
		IsDefault:  in.IsDefault,
		Attributes: normalizeAttributes(in.Attributes),
		Images:     images,
		Image:      firstOrEmpty(images),
	}
}

func normalizeAttributes(a models.VariantAttributes) models.VariantAttributes {
	if a.Size == nil {
		a.Size = []string{}
	}
	return a
}

// diffImages separa stored en las imágenes que el cliente conservó y las que
// quitó. Rutas enviadas que nunca se guardaron se ignoran.
func diffImages(stored, keep []string) (kept, dropped []string) {
	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[p] = true
	}
	kept = []string{}
	for _, p := range stored {
		if keepSet[p] {
			kept = append(kept, p)
		} else {
			dropped = append(dropped, p)
		}
	}
	return kept, dropped
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// uploadSet registra los archivos escritos por un request para poder
// liberarlos si falla.
type uploadSet struct {
	files storage.FileStore
	paths []string
}

func newUploadSet(files storage.FileStore) *uploadSet {
	return &uploadSet{files: files}
}

func (u *uploadSet) save(ctx context.Context, uploads []storage.Upload) ([]string, error) {
	paths, err := storage.SaveAll(ctx, u.files, uploads)
	if err != nil {
		u.release(ctx)
		return nil, apperror.Internal("failed to store uploaded files", err)
	}
	u.paths = append(u.paths, paths...)
	return paths, nil
}

func (u *uploadSet) saveProductUploads(ctx context.Context, in ProductInput) ([]string, map[int][]string, error) {
	images, err := u.save(ctx, in.Images)
	if err != nil {
		return nil, nil, err
	}
	variantImages := make(map[int][]string, len(in.VariantImages))
	for idx, files := range in.VariantImages {
		paths, err := u.save(ctx, files)
		if err != nil {
			return nil, nil, err
		}
		variantImages[idx] = paths
	}
	return images, variantImages, nil
}

func (u *uploadSet) release(ctx context.Context) {
	storage.Release(ctx, u.files, u.paths...)
	u.paths = nil
}
