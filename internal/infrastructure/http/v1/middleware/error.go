package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"batteryshop/internal/core/apperror"
	"batteryshop/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses:
// {"code": ..., "message": ..., "details": ...}.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		renderError(c)
	}
}

func renderError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "error", err)
		appErr = apperror.NewInternal(err)
	} else if appErr.Err != nil {
		logger.Error(ctx, "request error",
			"code", appErr.Code,
			"cause", appErr.Err,
		)
	}

	details := appErr.Details
	if appErr.Code == apperror.CodeInternal {
		// Internal details never leave the process.
		details = map[string]any{"request_id": c.GetString(ContextKeyRequestID)}
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": details,
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	// Best-effort: record the response we return so a retry replays it.
	if key, store, ok := idempotencyFromContext(c); ok {
		if err := store.FailKey(ctx, key, status, "application/json", body); err != nil {
			logger.Warn(ctx, "idempotency fail-key", "error", err)
		}
	}

	c.JSON(status, body)
}
