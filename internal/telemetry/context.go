package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// chainIDKey is the context key type used to store a chain ID.
type chainIDKey struct{}

// WithChainID returns a child context that carries the provided chain ID. A
// chain is one submission plus every resubmission made by its tool loop.
func WithChainID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, chainIDKey{}, id)
}

// ChainIDFromContext returns the chain ID from ctx, if present and non-empty.
func ChainIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(chainIDKey{}).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// EnsureChainID returns ctx unchanged when it already carries a chain ID and
// otherwise attaches a fresh random one.
func EnsureChainID(ctx context.Context) (context.Context, string) {
	if id, ok := ChainIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithChainID(ctx, id), id
}
