package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toolbridge-io/toolbridge/pkg/client"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Manage tool definitions",
	}

	cmd.AddCommand(newToolListCmd())
	cmd.AddCommand(newToolGetCmd())
	cmd.AddCommand(newToolDescribeCmd())

	return cmd
}

func newToolListCmd() *cobra.Command {
	var integrationID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts := &client.ToolListOptions{}
			if integrationID != "" {
				opts.IntegrationID = &integrationID
			}

			tools, err := apiClient.Tools().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list tools: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(tools.Data)
			}

			t := NewTable("ID", "NAME", "ACTION", "FIELDS", "DESCRIPTION")
			for _, tool := range tools.Data {
				t.AddRow(
					tool.ID,
					truncate(tool.Name, 30),
					tool.Action,
					truncate(strings.Join(tool.FieldRefs, ","), 40),
					truncate(tool.Description, 40),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&integrationID, "integration", "", "filter by integration ID")

	return cmd
}

func newToolGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get tool details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tool, err := apiClient.Tools().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get tool: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(tool)
			}

			fmt.Printf("ID:           %s\n", tool.ID)
			fmt.Printf("Name:         %s\n", tool.Name)
			fmt.Printf("Integration:  %s\n", tool.IntegrationID)
			fmt.Printf("Action:       %s\n", tool.Action)
			fmt.Printf("Description:  %s\n", tool.Description)
			fmt.Printf("Field refs:\n")
			for _, ref := range tool.FieldRefs {
				fmt.Printf("  - %s\n", ref)
			}
			return nil
		},
	}
}

func newToolDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id> <description>",
		Short: "Update a tool description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tool, err := apiClient.Tools().UpdateDescription(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to update description: %w", err)
			}

			fmt.Printf("Description updated for %s\n", tool.Name)
			return nil
		},
	}
}
