// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"batteryshop/internal/core/apperror"
	appctx "batteryshop/internal/core/context"
	"batteryshop/pkg/logger"
)

// RequirePermission lets the request through when the authenticated actor holds
// the permission. Admins hold every permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			abortWith(c, apperror.NewUnauthorized("authentication required"))
			return
		}

		if !appctx.HasPermission(ctx, permission) {
			logger.Info(ctx, "permission denied", "permission", permission, "route", c.FullPath())
			abortWith(c, apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission))
			return
		}

		c.Next()
	}
}

// abortWith hands err to ErrorHandler and stops the chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
