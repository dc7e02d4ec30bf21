package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithCaller records the authenticated caller subject.
func WithCaller(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey, subject)
}

// Caller returns the authenticated caller subject, or "" for anonymous requests.
func Caller(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(callerKey).(string); ok {
		return s
	}
	return ""
}
