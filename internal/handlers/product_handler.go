package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/storage"
)

var variantImagesField = regexp.MustCompile(`^variantImages\[(\d+)\]$`)

type CatalogReader interface {
	QueryProducts(ctx context.Context, f catalog.Filter) ([]models.ProductSummary, error)
	ListByCategory(ctx context.Context, slug string) ([]models.ProductWithVariants, error)
}

type ProductManager interface {
	Create(ctx context.Context, in services.ProductInput) (*models.ProductWithVariants, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.ProductWithVariants, error)
	Update(ctx context.Context, id primitive.ObjectID, in services.ProductInput) (*models.ProductWithVariants, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductHandler struct {
	catalog   CatalogReader
	products  ProductManager
	maxUpload int64
}

func NewProductHandler(catalog CatalogReader, products ProductManager, maxUpload int64) *ProductHandler {
	return &ProductHandler{catalog: catalog, products: products, maxUpload: maxUpload}
}

// GET /api/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	f := catalog.FilterFromQuery(c.Request.URL.Query())

	products, err := h.catalog.QueryProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/category/:slug
func (h *ProductHandler) GetProductsByCategory(c *gin.Context) {
	products, err := h.catalog.ListByCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /api/products/:id
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	in, err := h.productInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Product created successfully.",
		"product":  created.Product,
		"variants": created.Variations,
	})
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "product")
	if !ok {
		return
	}
	in, err := h.productInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.products.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Product updated.",
		"product":  updated.Product,
		"variants": updated.Variations,
	})
}

// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseObjectID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Product and variants deleted."})
}

// productInput lee el formulario multipart. variations y oldImages
// vienen como JSON; los archivos llegan en images y variantImages[<i>].
func (h *ProductHandler) productInput(c *gin.Context) (services.ProductInput, error) {
	var in services.ProductInput

	form, err := readForm(c)
	if err != nil {
		return in, apperror.BadRequest("invalid form data")
	}

	in.Name = strings.TrimSpace(formValue(form, "name"))
	in.Description = strings.TrimSpace(formValue(form, "description"))
	in.Status = models.ProductStatus(strings.TrimSpace(formValue(form, "status")))

	if raw := strings.TrimSpace(formValue(form, "basePrice")); raw != "" {
		if in.BasePrice, err = strconv.ParseFloat(raw, 64); err != nil {
			return in, apperror.BadRequest("basePrice must be a number")
		}
	}
	if raw := strings.TrimSpace(formValue(form, "category")); raw != "" {
		if in.Category, err = primitive.ObjectIDFromHex(raw); err != nil {
			return in, apperror.BadRequest("invalid category")
		}
	}
	if in.Tags, err = parseTags(formValue(form, "tags")); err != nil {
		return in, apperror.BadRequest("invalid tags")
	}
	if err := decodeJSONField(formValue(form, "variations"), &in.Variants); err != nil {
		return in, apperror.BadRequest("invalid JSON for variations")
	}
	if err := decodeJSONField(formValue(form, "oldImages"), &in.OldImages); err != nil {
		return in, apperror.BadRequest("invalid JSON for oldImages")
	}

	if in.Images, err = h.uploads(form.File["images"]); err != nil {
		return in, err
	}
	for field, headers := range form.File {
		m := variantImagesField.FindStringSubmatch(field)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return in, apperror.BadRequest("invalid variant image field " + field)
		}
		uploads, err := h.uploads(headers)
		if err != nil {
			return in, err
		}
		if in.VariantImages == nil {
			in.VariantImages = make(map[int][]storage.Upload)
		}
		in.VariantImages[idx] = append(in.VariantImages[idx], uploads...)
	}
	return in, nil
}

func (h *ProductHandler) uploads(headers []*multipart.FileHeader) ([]storage.Upload, error) {
	return checkedUploads(headers, h.maxUpload)
}

func checkedUploads(headers []*multipart.FileHeader, maxBytes int64) ([]storage.Upload, error) {
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		u := storage.FromFileHeader(fh)
		if err := storage.CheckImage(u, maxBytes); err != nil {
			return nil, apperror.BadRequest(err.Error())
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// readForm acepta multipart y urlencoded.
func readForm(c *gin.Context) (*multipart.Form, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.MultipartForm()
	}
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return &multipart.Form{Value: c.Request.PostForm, File: map[string][]*multipart.FileHeader{}}, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// parseTags acepta un array JSON o una lista separada por comas. Sin el
// campo devuelve nil y el update conserva los tags guardados.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if strings.HasPrefix(raw, "[") {
		if err := decodeJSONField(raw, &tags); err != nil {
			return nil, err
		}
	} else {
		tags = strings.Split(raw, ",")
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
