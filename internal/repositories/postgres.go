package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelshelf/backend/internal/db"
	"github.com/reelshelf/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. A duplicate email yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return user, nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

// Update writes the mutable fields of an existing user. The stored hash is
// written back verbatim; hashing is the caller's concern.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET name = $2, password_hash = $3, updated_at = $4
        WHERE id = $1
    `, user.ID, user.Name, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// PostgresMovieRepository provides PostgreSQL-backed persistence for movies.
type PostgresMovieRepository struct {
	pool db.Pool
}

// NewPostgresMovieRepository constructs a movie repository backed by PostgreSQL.
func NewPostgresMovieRepository(pool db.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{pool: pool}
}

// Create stores a new movie. An unknown owner yields ErrNotFound.
func (r *PostgresMovieRepository) Create(ctx context.Context, movie models.Movie) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO movies (id, owner_id, title, published_year, poster, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, movie.ID, movie.OwnerID, movie.Title, movie.PublishedYear, movie.Poster, movie.CreatedAt, movie.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrConflict
		case isForeignKeyViolation(err):
			return ErrNotFound
		}
		return fmt.Errorf("insert movie: %w", err)
	}

	return nil
}

// FindByID loads a single movie by its id regardless of owner.
func (r *PostgresMovieRepository) FindByID(ctx context.Context, id string) (models.Movie, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, owner_id, title, published_year, poster, created_at, updated_at
        FROM movies
        WHERE id = $1
    `, id)

	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Movie{}, ErrNotFound
		}
		return models.Movie{}, fmt.Errorf("select movie: %w", err)
	}
	return movie, nil
}

// Update rewrites title, year and poster of a movie owned by movie.OwnerID.
func (r *PostgresMovieRepository) Update(ctx context.Context, movie models.Movie) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE movies
        SET title = $3, published_year = $4, poster = $5, updated_at = $6
        WHERE id = $1 AND owner_id = $2
    `, movie.ID, movie.OwnerID, movie.Title, movie.PublishedYear, movie.Poster, movie.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a movie owned by ownerID and returns the deleted record.
func (r *PostgresMovieRepository) Delete(ctx context.Context, id, ownerID string) (models.Movie, error) {
	row := r.pool.QueryRow(ctx, `
        DELETE FROM movies
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, title, published_year, poster, created_at, updated_at
    `, id, ownerID)

	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Movie{}, ErrNotFound
		}
		return models.Movie{}, fmt.Errorf("delete movie: %w", err)
	}
	return movie, nil
}

// ListByOwner returns one page of the owner's movies, newest first.
func (r *PostgresMovieRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Movie, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, owner_id, title, published_year, poster, created_at, updated_at
        FROM movies
        WHERE owner_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3
    `, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0, limit)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}

	return movies, nil
}

// CountByOwner returns how many movies the owner has.
func (r *PostgresMovieRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return total, nil
}

func scanMovie(row pgx.Row) (models.Movie, error) {
	var movie models.Movie
	if err := row.Scan(&movie.ID, &movie.OwnerID, &movie.Title, &movie.PublishedYear, &movie.Poster, &movie.CreatedAt, &movie.UpdatedAt); err != nil {
		return models.Movie{}, err
	}
	movie.CreatedAt = movie.CreatedAt.UTC()
	movie.UpdatedAt = movie.UpdatedAt.UTC()
	return movie, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ MovieRepository = (*PostgresMovieRepository)(nil)
