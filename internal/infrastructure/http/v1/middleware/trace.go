package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "batteryshop/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	ContextKeyRequestID = "request_id"
	ContextKeyTraceID   = "trace_id"
)

// maxCallerIDLen bounds ids copied from request headers into logs and audit rows.
const maxCallerIDLen = 64

// Trace adopts the caller's request and trace ids when they look sane, generates
// them otherwise, and echoes both back.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTraceContext(callerID(c.GetHeader(HeaderRequestID)))
		if traceID := callerID(c.GetHeader(HeaderTraceID)); traceID != "" {
			trace.TraceID = traceID
		}

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))
		c.Set(ContextKeyTraceID, trace.TraceID)
		c.Set(ContextKeyRequestID, trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)
		c.Next()
	}
}

// callerID returns v if it is a short printable token, else "".
func callerID(v string) string {
	if v == "" || len(v) > maxCallerIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] <= ' ' || v[i] > '~' {
			return ""
		}
	}
	return v
}
