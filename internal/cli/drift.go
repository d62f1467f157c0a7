package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toolbridge-io/toolbridge/pkg/client"
)

func newDriftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Inspect schema drift",
	}

	cmd.AddCommand(newDriftListCmd())
	cmd.AddCommand(newDriftSummaryCmd())
	cmd.AddCommand(newDriftRefreshCmd())

	return cmd
}

func newDriftListCmd() *cobra.Command {
	var severity, changeKind string
	var unresolved bool

	cmd := &cobra.Command{
		Use:   "list <integration-id>",
		Short: "List drift records for an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts := &client.DriftListOptions{}
			if severity != "" {
				opts.Severity = &severity
			}
			if changeKind != "" {
				opts.ChangeKind = &changeKind
			}
			if unresolved {
				resolved := false
				opts.Resolved = &resolved
			}

			drifts, err := apiClient.Drifts().List(ctx, args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to list drift records: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(drifts.Data)
			}

			t := NewTable("ID", "SEVERITY", "KIND", "ACTION", "FIELD", "RESOLVED", "DETECTED")
			for _, d := range drifts.Data {
				resolved := "no"
				if d.Resolved {
					resolved = "yes"
				}
				t.AddRow(
					d.ID,
					formatSeverity(d.Severity),
					d.ChangeKind,
					d.Action,
					truncate(d.FieldPath, 40),
					resolved,
					d.DetectedAt.Format("2006-01-02 15:04"),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity (breaking, warning, info)")
	cmd.Flags().StringVar(&changeKind, "kind", "", "filter by change kind")
	cmd.Flags().BoolVar(&unresolved, "unresolved", false, "show only unresolved records")

	return cmd
}

func newDriftSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <integration-id>",
		Short: "Show unresolved drift counts by severity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			summary, err := apiClient.Drifts().Summary(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get drift summary: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(summary)
			}

			fmt.Printf("Breaking:  %d\n", summary.Breaking)
			fmt.Printf("Warning:   %d\n", summary.Warning)
			fmt.Printf("Info:      %d\n", summary.Info)
			fmt.Printf("Total:     %d\n", summary.Total)
			return nil
		},
	}
}

func newDriftRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <integration-id>",
		Short: "Fetch the live schema and detect drift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			records, err := apiClient.Integrations().RefreshSchema(ctx, args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to refresh schema: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("No drift detected")
				return nil
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(records)
			}

			t := NewTable("SEVERITY", "KIND", "ACTION", "FIELD")
			for _, d := range records {
				t.AddRow(formatSeverity(d.Severity), d.ChangeKind, d.Action, truncate(d.FieldPath, 40))
			}
			t.Render()
			return nil
		},
	}
}
