package logger

import "context"

type contextKey string

// RequestIDKey is the context key for the request id
const RequestIDKey contextKey = "request_id"

// WithRequestID returns a context carrying the request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
