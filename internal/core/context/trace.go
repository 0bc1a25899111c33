package context

import (
	"context"

	"batteryshop/internal/core/id"
)

// TraceContext identifies one request across logs, audit rows and the X-Request-ID header.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a TraceContext. An empty requestID gets a generated one.
// Generated ids are time-ordered, so grepping a day of logs keeps requests in sequence.
func NewTraceContext(requestID string) *TraceContext {
	traceID := id.New().String()
	if requestID == "" {
		requestID = traceID
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}
