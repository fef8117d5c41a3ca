package main

import (
	"github.com/spf13/cobra"

	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/outbox"
)

func newOutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Maintain the domain event outbox",
	}
	cmd.AddCommand(newOutboxPurgeCmd())
	return cmd
}

func newOutboxPurgeCmd() *cobra.Command {
	var includeDead bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete delivered events older than OUTBOX_CLEANER_RETENTION",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			table, err := outbox.ParseIdentifier(conf.Outbox.Table)
			if err != nil {
				return err
			}
			_, app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			opts := outbox.CleanerOptions{
				Enabled:   true,
				Retention: conf.Outbox.CleanerRetention,
				Logger:    app.Logger().WithField("table", outbox.TableLabel(table)),
			}
			if includeDead {
				opts.DeadRetention = conf.Outbox.CleanerDeadRetention
				opts.DeadAttemptsThreshold = conf.Outbox.RelayMaxAttempts
			}
			cleaner, err := outbox.NewCleaner(pool, table, opts)
			if err != nil {
				return err
			}
			res, err := cleaner.Purge(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&includeDead, "dead", false, "Also delete dead events older than OUTBOX_CLEANER_DEAD_RETENTION")
	return cmd
}
