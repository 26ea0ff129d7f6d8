//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/migrations"
	"github.com/reelshelf/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := migrations.RunPool(ctx, pool, migrations.CommandUp); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice@example.com")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	updated := fetched
	updated.Name = "Alice Liddell"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Name != "Alice Liddell" || fetched.PasswordHash != user.PasswordHash {
		t.Fatalf("expected name change with untouched hash, got %+v", fetched)
	}

	if _, err := repo.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing email, got %v", err)
	}
}

func TestPostgresMovieRepository_OwnerScopedLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner@example.com")
	stranger := createTestUser(t, users, "stranger@example.com")

	repo := NewPostgresMovieRepository(testPool)
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 10; i++ {
		movie := models.Movie{
			ID:            uuid.NewString(),
			OwnerID:       owner.ID,
			Title:         fmt.Sprintf("Movie %02d", i),
			PublishedYear: 1990 + i,
			Poster:        fmt.Sprintf("/uploads/%d-poster.png", i),
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
			UpdatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, movie); err != nil {
			t.Fatalf("create movie %d: %v", i, err)
		}
	}

	total, err := repo.CountByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count movies: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10 movies, got %d", total)
	}

	page, err := repo.ListByOwner(ctx, owner.ID, 8, 8)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page) != 2 || page[0].Title != "Movie 01" || page[1].Title != "Movie 00" {
		t.Fatalf("unexpected second page: %+v", page)
	}

	strangerTotal, err := repo.CountByOwner(ctx, stranger.ID)
	if err != nil {
		t.Fatalf("count stranger movies: %v", err)
	}
	if strangerTotal != 0 {
		t.Fatalf("expected stranger to own nothing, got %d", strangerTotal)
	}

	target := page[0]
	hijack := target
	hijack.OwnerID = stranger.ID
	hijack.Title = "Hijacked"
	if err := repo.Update(ctx, hijack); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign movie, got %v", err)
	}
	if _, err := repo.Delete(ctx, target.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign movie, got %v", err)
	}

	deleted, err := repo.Delete(ctx, target.ID, owner.ID)
	if err != nil {
		t.Fatalf("delete movie: %v", err)
	}
	if deleted.Poster != target.Poster {
		t.Fatalf("expected deleted record to be returned, got %+v", deleted)
	}
	if _, err := repo.FindByID(ctx, target.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected movie to be gone, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	user := createTestUser(t, NewPostgresUserRepository(testPool), "session@example.com")
	store := NewPostgresSessionStore(testPool)

	now := time.Now().UTC().Truncate(time.Millisecond)
	live := auth.Session{ID: "01HXLIVE", TokenHash: auth.HashToken("live"), UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := auth.Session{ID: "01HXSTALE", TokenHash: auth.HashToken("stale"), UserID: user.ID, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}

	for _, s := range []auth.Session{live, stale} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save session %s: %v", s.ID, err)
		}
	}

	found, err := store.Find(ctx, live.TokenHash)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if found.UserID != user.ID || !found.ExpiresAt.Equal(live.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", found)
	}

	removed, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one expired session removed, got %d", removed)
	}

	if err := store.Delete(ctx, live.TokenHash); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, live.TokenHash); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func resetDatabase(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), "TRUNCATE TABLE movies, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	user := models.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "password-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
