package handlers

import (
	"context"
	"time"

	"github.com/reelshelf/backend/internal/accounts"
	"github.com/reelshelf/backend/internal/catalog"
	"github.com/reelshelf/backend/internal/models"
)

// AccountService captures the credential store operations used by the auth and profile handlers.
type AccountService interface {
	Register(ctx context.Context, input accounts.RegisterInput) (models.User, error)
	Update(ctx context.Context, id string, input accounts.UpdateInput) (models.User, error)
}

// SessionManager issues and revokes login sessions.
type SessionManager interface {
	Login(ctx context.Context, username, password string) (models.Identity, string, error)
	Logout(ctx context.Context, token string) error
	Forget(userID string)
	TTL() time.Duration
}

// CatalogService captures the movie operations exposed over HTTP.
type CatalogService interface {
	Create(ctx context.Context, identity models.Identity, input catalog.CreateInput) (models.Movie, error)
	Update(ctx context.Context, identity models.Identity, movieID string, input catalog.UpdateInput) (models.Movie, error)
	Delete(ctx context.Context, identity models.Identity, movieID string) (models.Movie, error)
	Get(ctx context.Context, movieID string) (models.Movie, error)
	ListByUser(ctx context.Context, identity models.Identity, page int) (models.MoviePage, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
