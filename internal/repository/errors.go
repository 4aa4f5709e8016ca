package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/apperror"
)

// dbError traduce errores del driver a errores de la aplicación.
func dbError(err error, notFound, duplicate string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.NotFound(notFound)
	case mongo.IsDuplicateKeyError(err):
		return apperror.Conflict(duplicate)
	default:
		return apperror.Internal("database error", err)
	}
}
