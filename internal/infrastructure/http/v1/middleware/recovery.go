package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"batteryshop/internal/core/apperror"
	"batteryshop/pkg/logger"
)

// Recovery turns a panic into a 500 response. A panic inside a sale has already
// rolled its transaction back by the time it reaches here.
//
// The response is rendered directly because handlers below may never return to
// ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()))

			abortWith(c, apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", c.GetString(ContextKeyRequestID)))
			renderError(c)
		}()
		c.Next()
	}
}
