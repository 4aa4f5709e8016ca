package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/storage"
)

type CategoryManager interface {
	Create(ctx context.Context, in services.CategoryInput) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	TopLevel(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, in services.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CategoryHandler struct {
	categories CategoryManager
	maxUpload  int64
}

func NewCategoryHandler(categories CategoryManager, maxUpload int64) *CategoryHandler {
	return &CategoryHandler{categories: categories, maxUpload: maxUpload}
}

// POST /api/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	in, err := h.categoryInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	category, err := h.categories.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

// GET /api/categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /api/categories/top-level
func (h *CategoryHandler) GetTopLevelCategories(c *gin.Context) {
	categories, err := h.categories.TopLevel(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "category")
	if !ok {
		return
	}

	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "category")
	if !ok {
		return
	}
	in, err := h.categoryInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	category, err := h.categories.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

// DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "category")
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Category deleted successfully"})
}

// categoryInput lee name, slug, parentCategory y los archivos opcionales
// image, banner y logo. Un padre vacío o "null" es de primer nivel.
func (h *CategoryHandler) categoryInput(c *gin.Context) (services.CategoryInput, error) {
	var in services.CategoryInput

	form, err := readForm(c)
	if err != nil {
		return in, apperror.BadRequest("invalid form data")
	}
	in.Name = strings.TrimSpace(formValue(form, "name"))
	in.Slug = strings.TrimSpace(formValue(form, "slug"))

	if raw := strings.TrimSpace(formValue(form, "parentCategory")); raw != "" && raw != "null" {
		parent, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return in, apperror.BadRequest("invalid parent category")
		}
		in.ParentCategory = &parent
	}

	fields := []struct {
		name   string
		target **storage.Upload
	}{
		{"image", &in.Image},
		{"banner", &in.Banner},
		{"logo", &in.Logo},
	}
	for _, f := range fields {
		upload, err := h.singleUpload(form, f.name)
		if err != nil {
			return in, err
		}
		*f.target = upload
	}
	return in, nil
}

func (h *CategoryHandler) singleUpload(form *multipart.Form, field string) (*storage.Upload, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	uploads, err := checkedUploads(headers[:1], h.maxUpload)
	if err != nil {
		return nil, err
	}
	return &uploads[0], nil
}
