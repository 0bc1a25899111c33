package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"batteryshop/internal/core/apperror"
	appctx "batteryshop/internal/core/context"
	"batteryshop/pkg/logger"
)

// ContextKeyActorID holds the authenticated user id on the gin context.
const ContextKeyActorID = "actor_id"

// JWTValidator turns a bearer token into the acting user.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth requires a valid bearer token. The user id becomes the seller recorded on
// every sale line.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWith(c, err)
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			logger.Debug(c.Request.Context(), "token rejected", "error", err)
			abortWith(c, apperror.NewUnauthorized("invalid token"))
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set(ContextKeyActorID, user.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperror.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperror.NewUnauthorized("invalid authorization header format")
	}
	return token, nil
}
