package repositories

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/reelshelf/backend/internal/models"
)

// InMemoryUserRepository implements UserRepository on a map. It backs the
// memory store used for local development and handler tests.
type InMemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// NewInMemoryUserRepository returns an empty user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create stores user. A duplicate email or id yields ErrConflict.
func (r *InMemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return ErrConflict
	}
	if _, ok := r.byID[user.ID]; ok {
		return ErrConflict
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

// FindByEmail fetches a user by their email address.
func (r *InMemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

// FindByID fetches a user by id.
func (r *InMemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// Update replaces the stored name, password hash and updated timestamp.
func (r *InMemoryUserRepository) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	current.Name = user.Name
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = user.UpdatedAt
	r.byID[user.ID] = current
	return nil
}

func (r *InMemoryUserRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// InMemoryMovieRepository implements MovieRepository on a map.
type InMemoryMovieRepository struct {
	mu     sync.RWMutex
	users  *InMemoryUserRepository
	movies map[string]models.Movie
}

// NewInMemoryMovieRepository returns an empty movie repository. When users is
// set, movies for unknown owners are rejected the way the foreign key does.
func NewInMemoryMovieRepository(users *InMemoryUserRepository) *InMemoryMovieRepository {
	return &InMemoryMovieRepository{users: users, movies: make(map[string]models.Movie)}
}

// Create stores a new movie.
func (r *InMemoryMovieRepository) Create(_ context.Context, movie models.Movie) error {
	if r.users != nil && !r.users.exists(movie.OwnerID) {
		return ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[movie.ID]; ok {
		return ErrConflict
	}
	r.movies[movie.ID] = movie
	return nil
}

// FindByID loads a single movie regardless of owner.
func (r *InMemoryMovieRepository) FindByID(_ context.Context, id string) (models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	movie, ok := r.movies[id]
	if !ok {
		return models.Movie{}, ErrNotFound
	}
	return movie, nil
}

// Update rewrites title, year and poster of a movie owned by movie.OwnerID.
func (r *InMemoryMovieRepository) Update(_ context.Context, movie models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.movies[movie.ID]
	if !ok || current.OwnerID != movie.OwnerID {
		return ErrNotFound
	}
	current.Title = movie.Title
	current.PublishedYear = movie.PublishedYear
	current.Poster = movie.Poster
	current.UpdatedAt = movie.UpdatedAt
	r.movies[movie.ID] = current
	return nil
}

// Delete removes a movie owned by ownerID and returns it.
func (r *InMemoryMovieRepository) Delete(_ context.Context, id, ownerID string) (models.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	movie, ok := r.movies[id]
	if !ok || movie.OwnerID != ownerID {
		return models.Movie{}, ErrNotFound
	}
	delete(r.movies, id)
	return movie, nil
}

// ListByOwner returns one page of the owner's movies, newest first.
func (r *InMemoryMovieRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]models.Movie, error) {
	r.mu.RLock()
	owned := make([]models.Movie, 0)
	for _, movie := range r.movies {
		if movie.OwnerID == ownerID {
			owned = append(owned, movie)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(owned, func(a, b models.Movie) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if offset < 0 || offset >= len(owned) {
		return []models.Movie{}, nil
	}
	end := min(offset+limit, len(owned))
	return owned[offset:end], nil
}

// CountByOwner returns how many movies the owner has.
func (r *InMemoryMovieRepository) CountByOwner(_ context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, movie := range r.movies {
		if movie.OwnerID == ownerID {
			total++
		}
	}
	return total, nil
}

var _ UserRepository = (*InMemoryUserRepository)(nil)
var _ MovieRepository = (*InMemoryMovieRepository)(nil)
