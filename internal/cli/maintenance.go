package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/toolbridge-io/toolbridge/pkg/client"
)

func newMaintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Manage maintenance proposals",
	}

	cmd.AddCommand(newMaintenanceGenerateCmd())
	cmd.AddCommand(newMaintenanceListCmd())
	cmd.AddCommand(newMaintenanceGetCmd())
	cmd.AddCommand(newMaintenanceSummaryCmd())
	cmd.AddCommand(newMaintenanceApproveCmd())
	cmd.AddCommand(newMaintenanceRejectCmd())
	cmd.AddCommand(newMaintenanceRevertCmd())
	cmd.AddCommand(newMaintenanceDecideCmd())

	return cmd
}

func newMaintenanceGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <integration-id>",
		Short: "Generate a proposal from unresolved drift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			proposal, err := apiClient.Maintenance().Generate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to generate proposal: %w", err)
			}

			fmt.Printf("Proposal %s created covering %d drift records (%d tools affected)\n",
				proposal.ID, len(proposal.DriftRecordIDs), len(proposal.AffectedToolIDs))
			return nil
		},
	}
}

func newMaintenanceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <integration-id>",
		Short: "List proposals for an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			proposals, err := apiClient.Maintenance().List(ctx, args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to list proposals: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(proposals.Data)
			}

			t := NewTable("ID", "STATUS", "CHANGES", "TOOLS", "CREATED", "DECIDED")
			for _, p := range proposals.Data {
				decided := "-"
				if p.DecidedAt != nil {
					decided = p.DecidedAt.Format("2006-01-02 15:04")
				}
				t.AddRow(
					p.ID,
					formatStatus(p.Status),
					strconv.Itoa(len(p.SchemaDiff.Changes)),
					strconv.Itoa(len(p.AffectedToolIDs)),
					p.CreatedAt.Format("2006-01-02 15:04"),
					decided,
				)
			}
			t.Render()
			return nil
		},
	}
}

func newMaintenanceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <integration-id> <proposal-id>",
		Short: "Get proposal details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			proposal, err := apiClient.Maintenance().Get(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get proposal: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(proposal)
			}

			fmt.Printf("ID:      %s\n", proposal.ID)
			fmt.Printf("Status:  %s\n", formatStatus(proposal.Status))
			fmt.Printf("Created: %s\n", proposal.CreatedAt.Format("2006-01-02 15:04:05"))
			if proposal.DecidedAt != nil {
				fmt.Printf("Decided: %s\n", proposal.DecidedAt.Format("2006-01-02 15:04:05"))
			}

			fmt.Println("\nSchema changes:")
			t := NewTable("ACTION", "FIELD", "KIND", "OLD", "NEW")
			for _, c := range proposal.SchemaDiff.Changes {
				oldVal, newVal := c.OldType, c.NewType
				if c.Kind == "required_changed" {
					oldVal = strconv.FormatBool(c.OldRequired)
					newVal = strconv.FormatBool(c.NewRequired)
				}
				t.AddRow(c.Action, truncate(c.Path, 40), c.Kind, oldVal, newVal)
			}
			t.Render()

			if len(proposal.Suggestions) > 0 {
				fmt.Println("\nDescription suggestions:")
				s := NewTable("TOOL", "DECISION", "PROPOSED")
				for _, sg := range proposal.Suggestions {
					s.AddRow(sg.ToolID, formatStatus(sg.Decision), truncate(sg.ProposedText, 60))
				}
				s.Render()
			}
			return nil
		},
	}
}

func newMaintenanceSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <integration-id>",
		Short: "Show proposal counts by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			summary, err := apiClient.Maintenance().Summary(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get proposal summary: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(summary)
			}

			fmt.Printf("Pending:   %d\n", summary.Pending)
			fmt.Printf("Approved:  %d\n", summary.Approved)
			fmt.Printf("Rejected:  %d\n", summary.Rejected)
			fmt.Printf("Reverted:  %d\n", summary.Reverted)
			return nil
		},
	}
}

func newMaintenanceApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <integration-id> <proposal-id>",
		Short: "Approve a pending proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposal, err := apiClient.Maintenance().Approve(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to approve proposal: %w", err)
			}
			fmt.Printf("Proposal %s approved\n", proposal.ID)
			return nil
		},
	}
}

func newMaintenanceRejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <integration-id> <proposal-id>",
		Short: "Reject a pending proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposal, err := apiClient.Maintenance().Reject(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to reject proposal: %w", err)
			}
			fmt.Printf("Proposal %s rejected\n", proposal.ID)
			return nil
		},
	}
}

func newMaintenanceRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <integration-id> <proposal-id>",
		Short: "Revert an approved proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposal, err := apiClient.Maintenance().Revert(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to revert proposal: %w", err)
			}
			fmt.Printf("Proposal %s reverted\n", proposal.ID)
			return nil
		},
	}
}

func newMaintenanceDecideCmd() *cobra.Command {
	var accept, skip []string

	cmd := &cobra.Command{
		Use:   "decide <integration-id> <proposal-id>",
		Short: "Accept or skip description suggestions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(accept) == 0 && len(skip) == 0 {
				return fmt.Errorf("at least one --accept or --skip is required")
			}

			decisions := make([]client.DescriptionDecision, 0, len(accept)+len(skip))
			for _, id := range accept {
				decisions = append(decisions, client.DescriptionDecision{ToolID: id, Accept: true})
			}
			for _, id := range skip {
				decisions = append(decisions, client.DescriptionDecision{ToolID: id, Accept: false})
			}

			proposal, err := apiClient.Maintenance().DecideDescriptions(context.Background(), args[0], args[1], decisions)
			if err != nil {
				return fmt.Errorf("failed to apply decisions: %w", err)
			}

			fmt.Printf("Decisions applied to proposal %s\n", proposal.ID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&accept, "accept", nil, "tool ID whose suggestion to accept (repeatable)")
	cmd.Flags().StringArrayVar(&skip, "skip", nil, "tool ID whose suggestion to skip (repeatable)")

	return cmd
}
