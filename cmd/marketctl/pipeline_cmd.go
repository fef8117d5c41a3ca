package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/modules/fulfillment/services"
)

func newPipelineCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pipeline <order-id>",
		Short: "Show the fulfillment pipeline of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			ctx, app, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			tracker := app.Service(services.TrackerService{}).(*services.TrackerService)
			p, err := tracker.Pipeline(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			return renderPipeline(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the pipeline as JSON")
	return cmd
}

func renderPipeline(w io.Writer, p order.Pipeline) error {
	if !p.Visible() {
		_, err := fmt.Fprintln(w, "draft order: no pipeline")
		return err
	}
	const width = 20
	filled := int(p.Progress * width)
	if _, err := fmt.Fprintf(w, "[%s%s] %3.0f%%\n", strings.Repeat("#", filled), strings.Repeat(".", width-filled), p.Progress*100); err != nil {
		return err
	}
	for _, s := range p.Steps {
		mark := " "
		switch {
		case s.Completed:
			mark = "x"
		case s.Current:
			mark = ">"
		}
		at := ""
		if s.Timestamp != nil {
			at = s.Timestamp.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "[%s] %-14s %s\n", mark, s.Label, at); err != nil {
			return err
		}
	}
	return nil
}
