package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/slug"
	"storefront/internal/storage"
)

// CategoryInput sirve para crear o actualizar. Un archivo nil deja la
// imagen guardada como está.
type CategoryInput struct {
	Name           string              `validate:"required"`
	Slug           string              `validate:"required"`
	ParentCategory *primitive.ObjectID `validate:"-"`
	Image          *storage.Upload     `validate:"-"`
	Banner         *storage.Upload     `validate:"-"`
	Logo           *storage.Upload     `validate:"-"`
}

func (in CategoryInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !slug.Valid(in.Slug) {
		return apperror.BadRequest("slug may only contain lowercase letters, digits and dashes")
	}
	return nil
}

type CategoryService struct {
	categories repository.CategoryRepo
	files      storage.FileStore
	catalog    CatalogInvalidator
}

func NewCategoryService(categories repository.CategoryRepo, files storage.FileStore, catalog CatalogInvalidator) *CategoryService {
	return &CategoryService{categories: categories, files: files, catalog: catalog}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ParentCategory != nil {
		if err := s.checkParent(ctx, *in.ParentCategory); err != nil {
			return nil, err
		}
	}

	uploaded := newUploadSet(s.files)
	category := &models.Category{
		Name:           in.Name,
		Slug:           in.Slug,
		ParentCategory: in.ParentCategory,
	}
	if err := s.saveImages(ctx, uploaded, category, in); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		uploaded.release(ctx)
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.FindAll(ctx)
}

func (s *CategoryService) TopLevel(ctx context.Context) ([]models.Category, error) {
	return s.categories.FindTopLevel(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// Update rechaza como padre a la misma categoría o a uno de sus
// descendientes, porque cerraría un ciclo.
func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.ParentCategory != nil {
		parent := *in.ParentCategory
		if parent == id {
			return nil, apperror.BadRequest("a category cannot be its own parent")
		}
		links, err := s.categories.FindLinks(ctx)
		if err != nil {
			return nil, err
		}
		tree := catalog.BuildTree(links)
		if !tree.Has(parent) {
			return nil, apperror.BadRequest("parent category not found")
		}
		if tree.IsDescendant(id, parent) {
			return nil, apperror.BadRequest("parent category cannot be a descendant of the category")
		}
	}

	previous := *category
	category.Name = in.Name
	category.Slug = in.Slug
	category.ParentCategory = in.ParentCategory

	uploaded := newUploadSet(s.files)
	if err := s.saveImages(ctx, uploaded, category, in); err != nil {
		return nil, err
	}

	if err := s.categories.Update(ctx, category); err != nil {
		uploaded.release(ctx)
		return nil, err
	}
	s.catalog.Invalidate(ctx)

	storage.Release(ctx, s.files, replaced(previous.Image, category.Image),
		replaced(previous.Banner, category.Banner), replaced(previous.Logo, category.Logo))
	return category, nil
}

// Delete no borra categorías que todavía tienen hijas.
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.categories.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperror.Conflict("this category has subcategories and cannot be deleted")
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx)
	storage.Release(ctx, s.files, category.Image, category.Banner, category.Logo)
	return nil
}

func (s *CategoryService) checkParent(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.BadRequest("parent category not found")
	}
	return err
}

func (s *CategoryService) saveImages(ctx context.Context, uploaded *uploadSet, category *models.Category, in CategoryInput) error {
	fields := []struct {
		upload *storage.Upload
		target *string
	}{
		{in.Image, &category.Image},
		{in.Banner, &category.Banner},
		{in.Logo, &category.Logo},
	}
	for _, f := range fields {
		if f.upload == nil {
			continue
		}
		paths, err := uploaded.save(ctx, []storage.Upload{*f.upload})
		if err != nil {
			return err
		}
		*f.target = paths[0]
	}
	return nil
}

// replaced devuelve old si se reemplazó por otra ruta.
func replaced(old, current string) string {
	if old != "" && old != current {
		return old
	}
	return ""
}
