package traceutil

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	// Enable random pool for uuid, used to generate trace id.
	uuid.EnableRandPool()
}

type traceIDKey struct{}

// NewTraceID generates a fresh random trace ID for a new request.
func NewTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return id.String()
}

// SetTraceID sets the traceID into the context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID returns the traceID from the context.
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// TraceLogField returns a zap.Field for logging.
// It returns zap.Skip() if the traceID is not found in the context.
func TraceLogField(ctx context.Context) zap.Field {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return zap.String("trace-id", traceID)
	}
	return zap.Skip()
}
