package repositories

import (
	"context"

	"github.com/reelshelf/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// MovieRepository defines the data access contract for catalog entries. Writes
// are filtered by owner so a caller can never touch another user's movies.
type MovieRepository interface {
	Create(ctx context.Context, movie models.Movie) error
	FindByID(ctx context.Context, id string) (models.Movie, error)
	Update(ctx context.Context, movie models.Movie) error
	Delete(ctx context.Context, id, ownerID string) (models.Movie, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Movie, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
