package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type ReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(collection *mongo.Collection) *ReviewRepository {
	return &ReviewRepository{collection: collection}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, review)
	return dbError(err, "", "")
}

// FindByProduct devuelve las reseñas del producto, la más reciente primero.
func (r *ReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	cursor, err := r.collection.Find(ctx, bson.M{"productId": productID}, options.Find().SetSort(sort))
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, dbError(err, "", "")
	}
	return reviews, nil
}

// RatingCounts agrupa las reseñas del producto por rating en el servidor.
func (r *ReviewRepository) RatingCounts(ctx context.Context, productID primitive.ObjectID) ([]models.RatingCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	counts := make([]models.RatingCount, 0, 5)
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, dbError(err, "", "")
	}
	return counts, nil
}
