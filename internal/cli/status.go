package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show platform summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}

				integrations, err := apiClient.Integrations().List(ctx, nil)
				if err == nil {
					summary["integrations"] = integrations.TotalItems
				}
				tools, err := apiClient.Tools().List(ctx, nil)
				if err == nil {
					summary["tools"] = tools.TotalItems
				}
				return printOutput(summary)
			}

			fmt.Println("ToolBridge Dashboard")
			fmt.Println(strings.Repeat("=", 40))

			// Integrations
			integrations, err := apiClient.Integrations().List(ctx, nil)
			if err != nil {
				fmt.Printf("  Integrations:  (error: %v)\n", err)
			} else {
				active := 0
				for _, i := range integrations.Data {
					if i.Status == "active" {
						active++
					}
				}
				fmt.Printf("  Integrations:  %d active (%d total)\n", active, integrations.TotalItems)
			}

			// Tools
			tools, err := apiClient.Tools().List(ctx, nil)
			if err != nil {
				fmt.Printf("  Tools:         (error: %v)\n", err)
			} else {
				fmt.Printf("  Tools:         %d registered\n", tools.TotalItems)
			}

			// Unresolved drift per integration
			if integrations != nil {
				breaking, total := 0, 0
				for _, i := range integrations.Data {
					s, err := apiClient.Drifts().Summary(ctx, i.ID)
					if err != nil {
						continue
					}
					breaking += s.Breaking
					total += s.Total
				}
				fmt.Printf("  Drift:         %d unresolved", total)
				if breaking > 0 {
					fmt.Printf(" (%d breaking)", breaking)
				}
				fmt.Println()
			}

			return nil
		},
	}
}
