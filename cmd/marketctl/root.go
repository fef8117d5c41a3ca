package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/archmarket/platform/internal/server"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "marketctl",
		Short:        "Marketplace operations tooling",
		SilenceUsage: true,
	}
	cmd.AddCommand(newMigrateCmd(), newReconcileCmd(), newPipelineCmd(), newOutboxCmd())
	return cmd
}

// bootstrap loads the application and returns a context carrying its pool.
func bootstrap(ctx context.Context) (context.Context, application.Application, *pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	app, pool, err := server.NewApplication(connectCtx, configuration.Use())
	if err != nil {
		return nil, nil, nil, err
	}
	return composables.WithPool(ctx, pool), app, pool, nil
}
