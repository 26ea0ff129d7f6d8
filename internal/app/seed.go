package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/reelshelf/backend/internal/config"
	"github.com/reelshelf/backend/internal/db"
)

// seedExecer is the part of the pool applySeed needs.
type seedExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func newSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <name>",
		Short: "Load a SQL seed file such as seeds/dev_seed.sql",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return oops.Code("SEED_UNSUPPORTED_STORE").With("store", cfg.Store).Errorf("seeds only apply to the postgres store")
			}

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := applySeed(ctx, pool, cfg.SeedDir, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("applied seed %s\n", applied)
			return nil
		},
	}
}

// applySeed executes <dir>/<name>_seed.sql, or <dir>/<name> when name already
// ends in .sql, and returns the file name it applied.
func applySeed(ctx context.Context, conn seedExecer, dir, name string) (string, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	seedName := filepath.Base(name)
	if !strings.HasSuffix(seedName, ".sql") {
		seedName = fmt.Sprintf("%s_seed.sql", seedName)
	}

	contents, err := os.ReadFile(filepath.Join(dir, seedName))
	if err != nil {
		return "", oops.Code("SEED_READ_FAILED").With("seed", seedName).Wrapf(err, "read seed")
	}

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return "", oops.Code("SEED_APPLY_FAILED").With("seed", seedName).Wrapf(err, "apply seed")
	}

	return seedName, nil
}
