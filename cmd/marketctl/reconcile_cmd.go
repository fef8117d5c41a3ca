package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/archmarket/platform/modules/moderation/services"
)

type reconcileOutput struct {
	Command    string                   `json:"command"`
	DurationMS int64                    `json:"duration_ms"`
	Result     services.ReconcileReport `json:"result"`
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Approve pending suggestions whose catalog entity already exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			moderation := app.Service(services.ModerationService{}).(*services.ModerationService)
			start := time.Now()
			report, err := moderation.Reconcile(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), reconcileOutput{
				Command:    "reconcile",
				DurationMS: time.Since(start).Milliseconds(),
				Result:     report,
			})
		},
	}
}
