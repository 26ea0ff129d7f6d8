// Package app assembles the ReelShelf command line: serve, migrate and seed.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/reelshelf/backend/internal/config"
)

// configLoader resolves the configuration for a subcommand from its flags.
type configLoader func(cmd *cobra.Command) (config.Config, error)

// Run bootstraps the ReelShelf backend application.
func Run(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the ReelShelf CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "reelshelf",
		Short:         "ReelShelf - a personal movie catalog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	load := func(cmd *cobra.Command) (config.Config, error) {
		return config.Load(configFile, cmd.Flags())
	}

	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newMigrateCmd(load))
	cmd.AddCommand(newSeedCmd(load))

	return cmd
}
