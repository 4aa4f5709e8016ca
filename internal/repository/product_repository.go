package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

const (
	errProductNotFound = "product not found"
	errDuplicateSlug   = "a product with this slug already exists"
)

type ProductRepository struct {
	collection   *mongo.Collection
	variantsFrom string
}

// NewProductRepository recibe la colección de productos y el nombre de la
// colección de variantes que une el catálogo.
func NewProductRepository(collection *mongo.Collection, variantsFrom string) *ProductRepository {
	return &ProductRepository{
		collection:   collection,
		variantsFrom: variantsFrom,
	}
}

// Create crea un nuevo producto
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Status == "" {
		product.Status = models.StatusActive
	}

	_, err := r.collection.InsertOne(ctx, product)
	return dbError(err, errProductNotFound, errDuplicateSlug)
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, dbError(err, errProductNotFound, "")
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *ProductRepository) FindByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.Product, error) {
	return r.find(ctx, bson.M{"category": bson.M{"$in": categoryIDs}})
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, dbError(err, "", "")
	}
	return n > 0, nil
}

// Update actualiza un producto y su updatedAt
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"slug":        product.Slug,
		"description": product.Description,
		"basePrice":   product.BasePrice,
		"category":    product.Category,
		"tags":        product.Tags,
		"images":      product.Images,
		"status":      product.Status,
		"updatedAt":   product.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return dbError(err, errProductNotFound, errDuplicateSlug)
	}
	if result.MatchedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errProductNotFound, "")
	}
	return nil
}

// Delete elimina el producto. Las variantes las borra quien llama.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dbError(err, errProductNotFound, "")
	}
	if result.DeletedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errProductNotFound, "")
	}
	return nil
}

// QueryCatalog ejecuta la agregación del catálogo limitada a scope.
func (r *ProductRepository) QueryCatalog(ctx context.Context, f catalog.Filter, scope []primitive.ObjectID) ([]models.ProductSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, catalog.BuildPipeline(f, scope, r.variantsFrom))
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	summaries := make([]models.ProductSummary, 0, f.PageSize)
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, dbError(err, "", "")
	}
	return summaries, nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, dbError(err, "", "")
	}
	return products, nil
}
