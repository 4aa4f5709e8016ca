package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/models"
)

const (
	identityKey = "identity"
	TokenCookie = "token"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// UserLookup carga el usuario dueño del token en cada request.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticate acepta "Authorization: Bearer <token>" o la cookie token.
// El rol sale del usuario guardado, no del token: un usuario borrado o
// degradado pierde el acceso en el siguiente request.
func Authenticate(verifier TokenVerifier, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(TokenCookie)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no auth token, access denied"})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token verification failed, access denied"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), identity.UserID)
		if errors.Is(err, apperror.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found, access denied"})
			return
		}
		if err != nil {
			zap.L().Error("auth user lookup failed", zap.String("user_id", identity.UserID.Hex()), zap.Error(err))
			c.AbortWithStatusJSON(apperror.StatusOf(err), gin.H{"error": apperror.PublicMessage(err)})
			return
		}
		identity.Email = user.Email
		identity.Role = user.Role

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole va después de Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": role + " privileges required"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// Timeout acota el contexto del request; services y repositorios lo reciben.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
