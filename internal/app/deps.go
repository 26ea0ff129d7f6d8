package app

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/reelshelf/backend/internal/accounts"
	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/catalog"
	"github.com/reelshelf/backend/internal/config"
	"github.com/reelshelf/backend/internal/db"
	"github.com/reelshelf/backend/internal/handlers"
	"github.com/reelshelf/backend/internal/observability"
	"github.com/reelshelf/backend/internal/posters"
	"github.com/reelshelf/backend/internal/repositories"
)

// components are the long-lived collaborators behind the HTTP handlers.
type components struct {
	handlers handlers.Dependencies
	sessions *auth.Manager
	janitor  *posters.Janitor
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. pool may be nil when cfg selects the memory store.
func buildDependencies(ctx context.Context, cfg config.Config, pool db.Pool, metrics *observability.Metrics, logger *slog.Logger) (*components, error) {
	var (
		users    repositories.UserRepository
		movies   repositories.MovieRepository
		sessions auth.SessionStore
		database handlers.Pinger
	)

	switch cfg.Store {
	case config.StoreMemory:
		memUsers := repositories.NewInMemoryUserRepository()
		users = memUsers
		movies = repositories.NewInMemoryMovieRepository(memUsers)
		sessions = auth.NewInMemorySessionStore()
	case config.StorePostgres:
		if pool == nil {
			return nil, oops.Code("APP_WIRING_FAILED").Errorf("the postgres store needs a database pool")
		}
		users = repositories.NewPostgresUserRepository(pool)
		movies = repositories.NewPostgresMovieRepository(pool)
		sessions = repositories.NewPostgresSessionStore(pool)
		database = pool
	default:
		return nil, oops.Code("APP_WIRING_FAILED").With("store", cfg.Store).Errorf("unknown store")
	}

	accountStore := accounts.NewStore(users, accounts.NewBcryptHasher(cfg.Auth.BcryptCost))
	manager := auth.NewManager(sessions, accountStore,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithIdentityCacheTTL(cfg.Auth.IdentityCacheTTL),
		auth.WithSweepObserver(metrics.RecordSessionsSwept),
	)

	storage, uploadDir, err := buildPosterStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	janitor := posters.NewJanitor(storage, posters.JanitorConfig{
		QueueSize: cfg.Posters.JanitorQueue,
		Workers:   cfg.Posters.JanitorWorkers,
		OnResult:  metrics.RecordPosterRemoval,
	}, logger)

	service := catalog.NewService(movies, storage,
		catalog.WithPageSize(cfg.Catalog.PageSize),
		catalog.WithPosterCleaner(janitor),
	)

	deps := handlers.Dependencies{
		Accounts:       accountStore,
		Sessions:       manager,
		Catalog:        service,
		Database:       database,
		Cookie:         handlers.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		MaxUploadBytes: cfg.Posters.MaxUploadBytes,
		UploadDir:      uploadDir,
		UploadPath:     cfg.Posters.PublicPath,
	}
	if metrics != nil {
		deps.Metrics = metrics.Handler()
	}

	return &components{handlers: deps, sessions: manager, janitor: janitor}, nil
}

// buildPosterStorage returns the configured backend and, for the filesystem
// backend, the directory the HTTP layer should serve posters from.
func buildPosterStorage(ctx context.Context, cfg config.Config) (posters.Storage, string, error) {
	switch cfg.Posters.Backend {
	case config.PosterBackendS3:
		storage, err := posters.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, "", err
		}
		return storage, "", nil
	default:
		storage, err := posters.NewFileStorage(cfg.Posters.UploadDir, cfg.Posters.PublicPath)
		if err != nil {
			return nil, "", err
		}
		return storage, storage.Dir(), nil
	}
}
