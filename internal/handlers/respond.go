package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperror"
	"storefront/internal/logger"
	"storefront/internal/middleware"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// respondError responde err con su status. Los errores del servidor se
// loguean con la causa y al cliente sólo le llega el mensaje público.
func respondError(c *gin.Context, err error) {
	status := apperror.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: apperror.PublicMessage(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// parseObjectID lee el parámetro de ruta; si falla ya respondió 400.
func parseObjectID(c *gin.Context, param, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		badRequest(c, "invalid "+what+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

// currentUser devuelve el id del usuario autenticado. Se usa detrás de
// middleware.Authenticate.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated"})
		return primitive.NilObjectID, false
	}
	return identity.UserID, true
}

// decodeJSONField parsea un campo multipart en JSON. Si falta o está
// vacío, target queda igual.
func decodeJSONField(raw string, target interface{}) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}
