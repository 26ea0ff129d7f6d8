package auth

import (
	"context"

	"github.com/reelshelf/backend/internal/models"
)

type ctxKey struct{}

// WithIdentity stores the resolved identity on the context.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	if identity.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromContext returns the identity placed on the context by the session
// middleware, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	if ctx == nil {
		return models.Identity{}, false
	}
	identity, ok := ctx.Value(ctxKey{}).(models.Identity)
	return identity, ok && !identity.IsZero()
}

// RequireAuthenticated is the gate used by protected operations.
func RequireAuthenticated(ctx context.Context) (models.Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return models.Identity{}, models.ErrUnauthorized
	}
	return identity, nil
}
