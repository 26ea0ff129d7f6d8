// Package migrations applies the embedded schema migrations with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

//go:embed sql/*.sql
var embedded embed.FS

// Commands understood by Run.
const (
	CommandUp     = "up"
	CommandStatus = "status"
	CommandDown   = "down"
)

const (
	maxRetries  = 3
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 3 * time.Second
)

var retryableCodes = map[string]struct{}{
	pgerrcode.SerializationFailure: {},
	pgerrcode.DeadlockDetected:     {},
	pgerrcode.LockNotAvailable:     {},
}

// gooseCommand is a seam for testing; it dispatches to the goose API.
var gooseCommand = func(ctx context.Context, db *sql.DB, command string) error {
	switch command {
	case CommandUp:
		return goose.UpContext(ctx, db, ".")
	case CommandStatus:
		return goose.StatusContext(ctx, db, ".")
	case CommandDown:
		return goose.DownContext(ctx, db, ".")
	default:
		return oops.Code("MIGRATE_UNKNOWN_COMMAND").With("command", command).Errorf("unknown migrate command %q", command)
	}
}

// Files exposes the embedded migration sources rooted at the SQL directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// RunPool opens a database/sql handle over pool and runs command against it.
func RunPool(ctx context.Context, pool *pgxpool.Pool, command string) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return Run(ctx, db, command)
}

// Run executes a goose command ("up", "status" or "down") against db. Transient
// PostgreSQL errors are retried with exponential backoff.
func Run(ctx context.Context, db *sql.DB, command string) error {
	if command == "" {
		command = CommandUp
	}

	goose.SetBaseFS(Files())
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.Code("MIGRATE_FAILED").Wrapf(err, "set goose dialect")
	}

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if waitErr := wait(ctx, backoff(attempt)); waitErr != nil {
				return waitErr
			}
		}

		err = gooseCommand(ctx, db, command)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			break
		}
		slog.WarnContext(ctx, "transient migration error", "command", command, "attempt", attempt+1, "max_attempts", maxRetries, "error", err)
	}

	if _, ok := oops.AsOops(err); ok {
		return err
	}
	return oops.Code("MIGRATE_FAILED").With("command", command).Wrapf(err, "run migrations")
}

func backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryableCodes[pgErr.Code]
		return ok
	}
	return false
}
