package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperror"
	"storefront/internal/models"
)

func newReviewService() (*ReviewService, *memDB, models.Product) {
	db := newMemDB()
	c := db.addCategory("Shoes", nil)
	p := db.addProduct("Runner", c.ID)
	return NewReviewService(fakeReviews{db}, fakeProducts{db}), db, p
}

func TestReviewSummary(t *testing.T) {
	svc, _, product := newReviewService()
	ctx := context.Background()

	for _, rating := range []int{5, 4, 4} {
		_, err := svc.Create(ctx, ReviewInput{ProductID: product.ID, Rating: rating, Name: "Ada", Text: "good"})
		require.NoError(t, err)
	}

	got, err := svc.Summary(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalRatings)
	assert.Equal(t, 4.3, got.AverageRating)
	assert.Equal(t, map[string]int{"5": 1, "4": 2, "3": 0, "2": 0, "1": 0}, got.RatingDistribution)
	require.Len(t, got.Reviews, 3)
	assert.Equal(t, 4, got.Reviews[0].Rating, "newest first")
	assert.Equal(t, 5, got.Reviews[2].Rating)
}

func TestReviewSummaryWithoutReviews(t *testing.T) {
	svc, _, product := newReviewService()

	got, err := svc.Summary(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.TotalRatings)
	assert.Len(t, got.RatingDistribution, 5)
	assert.Empty(t, got.Reviews)
}

func TestCreateReviewRejects(t *testing.T) {
	svc, db, product := newReviewService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   ReviewInput
		kind error
	}{
		{"missing product", ReviewInput{Rating: 5, Name: "Ada", Text: "ok"}, apperror.ErrValidation},
		{"missing rating", ReviewInput{ProductID: product.ID, Name: "Ada", Text: "ok"}, apperror.ErrValidation},
		{"rating above five", ReviewInput{ProductID: product.ID, Rating: 6, Name: "Ada", Text: "ok"}, apperror.ErrValidation},
		{"missing text", ReviewInput{ProductID: product.ID, Rating: 3, Name: "Ada"}, apperror.ErrValidation},
		{"unknown product", ReviewInput{ProductID: primitive.NewObjectID(), Rating: 3, Name: "Ada", Text: "ok"}, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Empty(t, db.reviews)
}
