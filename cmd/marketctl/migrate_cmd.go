package main

import (
	"github.com/spf13/cobra"

	"github.com/archmarket/platform/pkg/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", func(cmd *cobra.Command, r *migrations.Runner) error {
			return r.Up(cmd.Context())
		}),
		migrateSubcommand("down", "Roll back the latest migration of every schema", func(cmd *cobra.Command, r *migrations.Runner) error {
			return r.Down(cmd.Context())
		}),
		migrateSubcommand("status", "Print migration status", func(cmd *cobra.Command, r *migrations.Runner) error {
			statuses, err := r.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), statuses)
		}),
	)
	return cmd
}

func migrateSubcommand(use, short string, fn func(cmd *cobra.Command, r *migrations.Runner) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := migrations.NewRunner(pool, app.Migrations().Schemas(), app.Logger())
			defer runner.Close()
			return fn(cmd, runner)
		},
	}
}
