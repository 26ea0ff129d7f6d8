package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
)

// SessionResolver maps a session token to its identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Identity, error)
}

// SessionLoader attaches the identity behind the session cookie to the request
// context. Requests without a valid session continue anonymously; handlers
// decide whether that is acceptable. A session store failure ends the request
// with a 500.
func SessionLoader(sessions SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identity, err := sessions.Resolve(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, models.ErrUnauthorized) {
					logging.LogError(ctx, "resolve session", err)
					writeServerError(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = auth.WithIdentity(ctx, identity)
			ctx = logging.With(ctx, "user_id", identity.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Chain applies middlewares so the first one listed is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
