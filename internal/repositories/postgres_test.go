package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/models"
)

var (
	userColumns  = []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}
	movieColumns = []string{"id", "owner_id", "title", "published_year", "poster", "created_at", "updated_at"}
	fixedTime    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestPostgresUserRepository_Create(t *testing.T) {
	user := models.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: fixedTime, UpdatedAt: fixedTime}

	tests := []struct {
		name    string
		result  error
		wantErr error
	}{
		{name: "success"},
		{name: "duplicate email", result: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, wantErr: ErrConflict},
		{name: "database error", result: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			exp := mock.ExpectExec(`INSERT INTO users`).
				WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
			if tt.result != nil {
				exp.WillReturnError(tt.result)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := NewPostgresUserRepository(mock).Create(context.Background(), user)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.result != nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "insert user")
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresUserRepository_FindByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at, updated_at\s+FROM users\s+WHERE email = \$1`).
			WithArgs("ada@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow("u-1", "Ada", "ada@example.com", "hash", fixedTime, fixedTime))

		user, err := NewPostgresUserRepository(mock).FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns))

		_, err := NewPostgresUserRepository(mock).FindByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresUserRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow("u-1", "Ada", "ada@example.com", "hash", fixedTime, fixedTime))

	user, err := NewPostgresUserRepository(mock).FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
}

func TestPostgresUserRepository_UpdateMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE users`).
		WithArgs("u-404", "Ada", "hash", fixedTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewPostgresUserRepository(mock).Update(context.Background(), models.User{ID: "u-404", Name: "Ada", PasswordHash: "hash", UpdatedAt: fixedTime})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresMovieRepository_Create(t *testing.T) {
	movie := models.Movie{ID: "m-1", OwnerID: "u-1", Title: "Alien", PublishedYear: 1979, Poster: "/uploads/1-alien.png", CreatedAt: fixedTime, UpdatedAt: fixedTime}

	t.Run("success", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO movies`).
			WithArgs(movie.ID, movie.OwnerID, movie.Title, movie.PublishedYear, movie.Poster, movie.CreatedAt, movie.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, NewPostgresMovieRepository(mock).Create(context.Background(), movie))
	})

	t.Run("unknown owner", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO movies`).
			WithArgs(movie.ID, movie.OwnerID, movie.Title, movie.PublishedYear, movie.Poster, movie.CreatedAt, movie.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		assert.ErrorIs(t, NewPostgresMovieRepository(mock).Create(context.Background(), movie), ErrNotFound)
	})
}

func TestPostgresMovieRepository_UpdateFiltersOwner(t *testing.T) {
	movie := models.Movie{ID: "m-1", OwnerID: "intruder", Title: "Alien", PublishedYear: 1979, Poster: "/uploads/1-alien.png", UpdatedAt: fixedTime}

	mock := newMock(t)
	mock.ExpectExec(`UPDATE movies\s+SET title = \$3, published_year = \$4, poster = \$5, updated_at = \$6\s+WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(movie.ID, movie.OwnerID, movie.Title, movie.PublishedYear, movie.Poster, movie.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, NewPostgresMovieRepository(mock).Update(context.Background(), movie), ErrNotFound)
}

func TestPostgresMovieRepository_Delete(t *testing.T) {
	t.Run("returns deleted record", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`DELETE FROM movies\s+WHERE id = \$1 AND owner_id = \$2\s+RETURNING`).
			WithArgs("m-1", "u-1").
			WillReturnRows(pgxmock.NewRows(movieColumns).AddRow("m-1", "u-1", "Alien", 1979, "/uploads/1-alien.png", fixedTime, fixedTime))

		movie, err := NewPostgresMovieRepository(mock).Delete(context.Background(), "m-1", "u-1")
		require.NoError(t, err)
		assert.Equal(t, "/uploads/1-alien.png", movie.Poster)
	})

	t.Run("foreign movie", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`DELETE FROM movies`).
			WithArgs("m-1", "intruder").
			WillReturnRows(pgxmock.NewRows(movieColumns))

		_, err := NewPostgresMovieRepository(mock).Delete(context.Background(), "m-1", "intruder")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresMovieRepository_ListAndCount(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM movies\s+WHERE owner_id = \$1\s+ORDER BY created_at DESC, id\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("u-1", 8, 8).
		WillReturnRows(pgxmock.NewRows(movieColumns).
			AddRow("m-9", "u-1", "Heat", 1995, "/uploads/9-heat.png", fixedTime, fixedTime).
			AddRow("m-10", "u-1", "Ran", 1985, "/uploads/10-ran.png", fixedTime, fixedTime))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM movies WHERE owner_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(10))

	repo := NewPostgresMovieRepository(mock)

	movies, err := repo.ListByOwner(context.Background(), "u-1", 8, 8)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Heat", movies[0].Title)
	assert.Equal(t, 1985, movies[1].PublishedYear)

	total, err := repo.CountByOwner(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestPostgresMovieRepository_ListEmptyIsNotNil(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM movies`).
		WithArgs("u-1", 8, 0).
		WillReturnRows(pgxmock.NewRows(movieColumns))

	movies, err := NewPostgresMovieRepository(mock).ListByOwner(context.Background(), "u-1", 8, 0)
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestPostgresSessionStore(t *testing.T) {
	session := auth.Session{ID: "01HX", TokenHash: "abc", UserID: "u-1", ExpiresAt: fixedTime.Add(time.Hour), CreatedAt: fixedTime}

	t.Run("save", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(session.ID, session.TokenHash, session.UserID, session.ExpiresAt, session.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, NewPostgresSessionStore(mock).Save(context.Background(), session))
	})

	t.Run("find missing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM sessions\s+WHERE token_hash = \$1`).
			WithArgs("nope").
			WillReturnRows(pgxmock.NewRows([]string{"id", "token_hash", "user_id", "expires_at", "created_at"}))

		_, err := NewPostgresSessionStore(mock).Find(context.Background(), "nope")
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})

	t.Run("delete missing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM sessions\s+WHERE token_hash = \$1`).
			WithArgs("nope").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, NewPostgresSessionStore(mock).Delete(context.Background(), "nope"), auth.ErrSessionNotFound)
	})

	t.Run("delete expired", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`DELETE FROM sessions\s+WHERE expires_at <= \$1`).
			WithArgs(fixedTime).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		removed, err := NewPostgresSessionStore(mock).DeleteExpired(context.Background(), fixedTime)
		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
	})
}
