package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperror"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const catalogNamespace = "catalog"

// CatalogService responde las lecturas públicas del catálogo.
type CatalogService struct {
	products   repository.ProductRepo
	variants   repository.VariantRepo
	categories repository.CategoryRepo
	cache      cache.Store
	cacheTTL   time.Duration
}

func NewCatalogService(
	products repository.ProductRepo,
	variants repository.VariantRepo,
	categories repository.CategoryRepo,
	store cache.Store,
	cacheTTL time.Duration,
) *CatalogService {
	if store == nil {
		store = cache.Noop{}
	}
	return &CatalogService{
		products:   products,
		variants:   variants,
		categories: categories,
		cache:      store,
		cacheTTL:   cacheTTL,
	}
}

// ResolveDescendants devuelve las categorías debajo de id, sin incluir id.
func (s *CatalogService) ResolveDescendants(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	tree, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	if !tree.Has(id) {
		return nil, apperror.NotFound("category not found")
	}
	return tree.Descendants(id), nil
}

// QueryProducts ejecuta la consulta con facetas. Un slug de categoría
// desconocido o un rango de precio invertido dan una página vacía, no un error.
func (s *CatalogService) QueryProducts(ctx context.Context, f catalog.Filter) ([]models.ProductSummary, error) {
	f = f.Normalize()
	if f.EmptyPriceRange() {
		return []models.ProductSummary{}, nil
	}

	// la generación se lee antes de consultar para no reponer una página vieja
	key := f.CacheKey()
	version, verr := s.cache.Version(ctx, catalogNamespace)
	if verr != nil {
		zap.L().Warn("catalog cache version read failed", zap.Error(verr))
	} else {
		var cached []models.ProductSummary
		if hit, err := s.cache.GetJSON(ctx, catalogNamespace, version, key, &cached); err != nil {
			zap.L().Warn("catalog cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	var scope []primitive.ObjectID
	if f.CategorySlug != "" {
		category, err := s.categories.FindBySlug(ctx, f.CategorySlug)
		if errors.Is(err, apperror.ErrNotFound) {
			return []models.ProductSummary{}, nil
		}
		if err != nil {
			return nil, err
		}
		if scope, err = s.scope(ctx, category.ID); err != nil {
			return nil, err
		}
	}

	results, err := s.products.QueryCatalog(ctx, f, scope)
	if err != nil {
		return nil, err
	}

	if verr == nil {
		if err := s.cache.SetJSON(ctx, catalogNamespace, version, key, results, s.cacheTTL); err != nil {
			zap.L().Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return results, nil
}

// ListByCategory devuelve los productos del subárbol con todas sus
// variantes. Incluye productos sin variantes.
func (s *CatalogService) ListByCategory(ctx context.Context, slug string) ([]models.ProductWithVariants, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	scope, err := s.scope(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	products, err := s.products.FindByCategories(ctx, scope)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	variants, err := s.variants.FindByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[primitive.ObjectID][]models.Variant, len(products))
	for _, v := range variants {
		byProduct[v.Product] = append(byProduct[v.Product], v)
	}

	out := make([]models.ProductWithVariants, len(products))
	for i, p := range products {
		vs := byProduct[p.ID]
		if vs == nil {
			vs = []models.Variant{}
		}
		out[i] = models.ProductWithVariants{Product: p, Variations: vs}
	}
	return out, nil
}

// Invalidate descarta las páginas cacheadas. Si falla sólo se loguea.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogNamespace); err != nil {
		zap.L().Error("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) scope(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	tree, err := s.tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Scope(id), nil
}

func (s *CatalogService) tree(ctx context.Context) (*catalog.Tree, error) {
	links, err := s.categories.FindLinks(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.BuildTree(links), nil
}
