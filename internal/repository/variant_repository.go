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

const (
	errVariantNotFound = "variant not found"
	errDuplicateSKU    = "a variant with this SKU already exists"
)

type VariantRepository struct {
	collection *mongo.Collection
}

func NewVariantRepository(collection *mongo.Collection) *VariantRepository {
	return &VariantRepository{collection: collection}
}

func (r *VariantRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var variant models.Variant
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&variant); err != nil {
		return nil, dbError(err, errVariantNotFound, "")
	}
	return &variant, nil
}

func (r *VariantRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Variant, error) {
	return r.find(ctx, bson.M{"product": productID})
}

// FindByProducts trae las variantes de varios productos en una sola consulta.
func (r *VariantRepository) FindByProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.Variant, error) {
	if len(productIDs) == 0 {
		return []models.Variant{}, nil
	}
	return r.find(ctx, bson.M{"product": bson.M{"$in": productIDs}})
}

// FindBySKUs devuelve las variantes que ya usan alguno de los SKUs.
func (r *VariantRepository) FindBySKUs(ctx context.Context, skus []string) ([]models.Variant, error) {
	if len(skus) == 0 {
		return []models.Variant{}, nil
	}
	return r.find(ctx, bson.M{"sku": bson.M{"$in": skus}})
}

func (r *VariantRepository) Create(ctx context.Context, variant *models.Variant) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	variant.ID = primitive.NewObjectID()
	variant.CreatedAt = now
	variant.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, variant)
	return dbError(err, errVariantNotFound, errDuplicateSKU)
}

func (r *VariantRepository) Update(ctx context.Context, variant *models.Variant) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	variant.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"sku":        variant.SKU,
		"price":      variant.Price,
		"stock":      variant.Stock,
		"image":      variant.Image,
		"images":     variant.Images,
		"isDefault":  variant.IsDefault,
		"attributes": variant.Attributes,
		"updatedAt":  variant.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": variant.ID}, update)
	if err != nil {
		return dbError(err, errVariantNotFound, errDuplicateSKU)
	}
	if result.MatchedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errVariantNotFound, "")
	}
	return nil
}

func (r *VariantRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dbError(err, errVariantNotFound, "")
	}
	if result.DeletedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errVariantNotFound, "")
	}
	return nil
}

func (r *VariantRepository) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"product": productID})
	return dbError(err, "", "")
}

func (r *VariantRepository) find(ctx context.Context, filter bson.M) ([]models.Variant, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	variants := make([]models.Variant, 0)
	if err := cursor.All(ctx, &variants); err != nil {
		return nil, dbError(err, "", "")
	}
	return variants, nil
}
