package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

const (
	errUserNotFound    = "user not found"
	errAddressNotFound = "address not found"
	errDuplicateEmail  = "user already exists"
)

// UserRepository también guarda wishlist, carrito y direcciones, que van
// embebidos en el documento del usuario.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(collection *mongo.Collection) *UserRepository {
	return &UserRepository{collection: collection}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Wishlist == nil {
		user.Wishlist = []primitive.ObjectID{}
	}
	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	return dbError(err, errUserNotFound, errDuplicateEmail)
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// AddToWishlist es idempotente.
func (r *UserRepository) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return r.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"wishlist": productID}}, errUserNotFound)
}

func (r *UserRepository) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) error {
	return r.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"wishlist": productID}}, errUserNotFound)
}

func (r *UserRepository) ClearWishlist(ctx context.Context, userID primitive.ObjectID) error {
	return r.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"wishlist": []primitive.ObjectID{}}}, errUserNotFound)
}

// SaveCart reemplaza el carrito entero. No hay control de versión: si dos
// requests escriben a la vez gana el último.
func (r *UserRepository) SaveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	return r.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"cart": items}}, errUserNotFound)
}

func (r *UserRepository) AddAddress(ctx context.Context, userID primitive.ObjectID, address models.Address) error {
	return r.updateUser(ctx, bson.M{"_id": userID}, bson.M{"$push": bson.M{"addresses": address}}, errUserNotFound)
}

// UpdateAddress reemplaza la dirección con el mismo id.
func (r *UserRepository) UpdateAddress(ctx context.Context, userID primitive.ObjectID, address models.Address) error {
	filter := bson.M{"_id": userID, "addresses._id": address.ID}
	return r.updateUser(ctx, filter, bson.M{"$set": bson.M{"addresses.$": address}}, errAddressNotFound)
}

func (r *UserRepository) RemoveAddress(ctx context.Context, userID, addressID primitive.ObjectID) error {
	filter := bson.M{"_id": userID, "addresses._id": addressID}
	update := bson.M{"$pull": bson.M{"addresses": bson.M{"_id": addressID}}}
	return r.updateUser(ctx, filter, update, errAddressNotFound)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, dbError(err, errUserNotFound, "")
	}
	return &user, nil
}

func (r *UserRepository) updateUser(ctx context.Context, filter, update bson.M, notFound string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return dbError(err, notFound, "")
	}
	if result.MatchedCount == 0 {
		return dbError(mongo.ErrNoDocuments, notFound, "")
	}
	return nil
}
