package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reelshelf/backend/internal/config"
	"github.com/reelshelf/backend/internal/db"
	"github.com/reelshelf/backend/internal/handlers"
	"github.com/reelshelf/backend/internal/httpserver"
	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/middleware"
	"github.com/reelshelf/backend/internal/observability"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat != "text", os.Stdout)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	var pool db.Pool
	if cfg.Store == config.StorePostgres {
		pgPool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pool = pgPool
	}

	metrics := observability.NewMetrics()
	comps, err := buildDependencies(ctx, cfg, pool, metrics, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, buildHandler(comps, cfg, logger, metrics))

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		comps.sessions.RunSweeper(sweepCtx, cfg.Auth.SweepInterval)
	}()

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.Store, "poster_backend", cfg.Posters.Backend)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		runErr = err
	}

	shutdownCtx, cancel := httpserver.ShutdownContext(ctx)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	stopSweeper()
	sweeper.Wait()
	if err := comps.janitor.Shutdown(shutdownCtx); err != nil {
		logging.LogError(ctx, "drain poster janitor", err)
		shutdownErr = errors.Join(shutdownErr, err)
	}

	logger.Info("server stopped")
	return errors.Join(runErr, shutdownErr)
}

// buildHandler mounts the routes and wraps them in the middleware chain. The
// metrics middleware sits next to the mux so it sees the matched route pattern.
func buildHandler(comps *components, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, comps.handlers)

	return middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.SessionLoader(comps.sessions, cfg.Auth.CookieName),
		middleware.Metrics(metrics),
	)
}
