package app

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/reelshelf/backend/internal/config"
	"github.com/reelshelf/backend/internal/db"
	"github.com/reelshelf/backend/internal/migrations"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply, inspect or roll back database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrations.CommandUp, migrations.CommandStatus, migrations.CommandDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return oops.Code("MIGRATE_UNSUPPORTED_STORE").With("store", cfg.Store).Errorf("migrations only apply to the postgres store")
			}

			command := migrations.CommandUp
			if len(args) > 0 {
				command = args[0]
			}

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.RunPool(ctx, pool, command); err != nil {
				return err
			}
			cmd.Printf("migrate %s complete\n", command)
			return nil
		},
	}
}
