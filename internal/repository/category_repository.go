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
	errCategoryNotFound  = "category not found"
	errDuplicateCategory = "a category with this name or slug already exists"
)

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(collection *mongo.Collection) *CategoryRepository {
	return &CategoryRepository{collection: collection}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	category.ID = primitive.NewObjectID()
	category.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, category)
	return dbError(err, errCategoryNotFound, errDuplicateCategory)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	return r.find(ctx, bson.M{})
}

// FindTopLevel acepta parentCategory null o ausente.
func (r *CategoryRepository) FindTopLevel(ctx context.Context) ([]models.Category, error) {
	return r.find(ctx, bson.M{"parentCategory": nil})
}

// FindLinks devuelve id y padre de todas las categorías en una consulta.
func (r *CategoryRepository) FindLinks(ctx context.Context) ([]models.CategoryLink, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1, "parentCategory": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	links := make([]models.CategoryLink, 0)
	if err := cursor.All(ctx, &links); err != nil {
		return nil, dbError(err, "", "")
	}
	return links, nil
}

func (r *CategoryRepository) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"parentCategory": id})
	if err != nil {
		return 0, dbError(err, "", "")
	}
	return n, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":           category.Name,
		"slug":           category.Slug,
		"image":          category.Image,
		"banner":         category.Banner,
		"logo":           category.Logo,
		"parentCategory": category.ParentCategory,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": category.ID}, update)
	if err != nil {
		return dbError(err, errCategoryNotFound, errDuplicateCategory)
	}
	if result.MatchedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errCategoryNotFound, "")
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dbError(err, errCategoryNotFound, "")
	}
	if result.DeletedCount == 0 {
		return dbError(mongo.ErrNoDocuments, errCategoryNotFound, "")
	}
	return nil
}

func (r *CategoryRepository) findOne(ctx context.Context, filter bson.M) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var category models.Category
	if err := r.collection.FindOne(ctx, filter).Decode(&category); err != nil {
		return nil, dbError(err, errCategoryNotFound, "")
	}
	return &category, nil
}

func (r *CategoryRepository) find(ctx context.Context, filter bson.M) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, dbError(err, "", "")
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, dbError(err, "", "")
	}
	return categories, nil
}
