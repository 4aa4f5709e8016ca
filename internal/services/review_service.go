package services

import (
	"context"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type ReviewInput struct {
	ProductID primitive.ObjectID `json:"productId" validate:"-"`
	Rating    int                `json:"rating" validate:"required,min=1,max=5"`
	Name      string             `json:"name" validate:"required"`
	Text      string             `json:"text" validate:"required"`
}

// ReviewSummary es la respuesta de GET /api/reviews/:productId.
// RatingDistribution siempre trae las claves "1" a "5".
type ReviewSummary struct {
	AverageRating      float64         `json:"averageRating"`
	TotalRatings       int             `json:"totalRatings"`
	RatingDistribution map[string]int  `json:"ratingDistribution"`
	Reviews            []models.Review `json:"reviews"`
}

type ReviewService struct {
	reviews  repository.ReviewRepo
	products repository.ProductRepo
}

func NewReviewService(reviews repository.ReviewRepo, products repository.ProductRepo) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*models.Review, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.ProductID.IsZero() {
		return nil, apperror.BadRequest("productId is required")
	}
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	review := &models.Review{Product: in.ProductID, Name: in.Name, Rating: in.Rating, Text: in.Text}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Summary arma promedio y distribución a partir del $group del repositorio.
// Un producto sin reseñas devuelve promedio 0.
func (s *ReviewService) Summary(ctx context.Context, productID primitive.ObjectID) (*ReviewSummary, error) {
	counts, err := s.reviews.RatingCounts(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	summary := &ReviewSummary{
		RatingDistribution: map[string]int{"5": 0, "4": 0, "3": 0, "2": 0, "1": 0},
		Reviews:            reviews,
	}
	sum := 0
	for _, c := range counts {
		if c.Rating < 1 || c.Rating > 5 {
			continue
		}
		summary.RatingDistribution[strconv.Itoa(c.Rating)] += c.Count
		summary.TotalRatings += c.Count
		sum += c.Rating * c.Count
	}
	if summary.TotalRatings > 0 {
		summary.AverageRating = math.Round(float64(sum)/float64(summary.TotalRatings)*10) / 10
	}
	return summary, nil
}
