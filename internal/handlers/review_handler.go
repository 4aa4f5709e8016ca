package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/services"
)

type ReviewManager interface {
	Create(ctx context.Context, in services.ReviewInput) (*models.Review, error)
	Summary(ctx context.Context, productID primitive.ObjectID) (*services.ReviewSummary, error)
}

// ReviewHandler es público: leer y publicar reseñas no requiere sesión.
type ReviewHandler struct {
	reviews ReviewManager
}

func NewReviewHandler(reviews ReviewManager) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// GET /api/reviews/:productId
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	productID, ok := parseObjectID(c, "productId", "product")
	if !ok {
		return
	}
	summary, err := h.reviews.Summary(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var in services.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted successfully", "review": review})
}
