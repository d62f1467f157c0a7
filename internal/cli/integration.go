package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/toolbridge-io/toolbridge/pkg/client"
)

func newIntegrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration",
		Short: "Manage integrations",
	}

	cmd.AddCommand(newIntegrationListCmd())
	cmd.AddCommand(newIntegrationGetCmd())
	cmd.AddCommand(newIntegrationCreateCmd())
	cmd.AddCommand(newIntegrationSchemaCmd())
	cmd.AddCommand(newIntegrationConnectCmd())

	return cmd
}

func newIntegrationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List integrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			integrations, err := apiClient.Integrations().List(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to list integrations: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(integrations.Data)
			}

			t := NewTable("ID", "NAME", "PROVIDER", "STATUS", "SCHEMA VER", "CREATED")
			for _, i := range integrations.Data {
				t.AddRow(
					i.ID,
					truncate(i.Name, 30),
					i.Provider,
					formatStatus(i.Status),
					strconv.Itoa(i.SchemaVersion),
					i.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			t.Render()
			return nil
		},
	}
}

func newIntegrationGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get integration details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			integration, err := apiClient.Integrations().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get integration: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(integration)
			}

			fmt.Printf("ID:             %s\n", integration.ID)
			fmt.Printf("Name:           %s\n", integration.Name)
			fmt.Printf("Provider:       %s\n", integration.Provider)
			fmt.Printf("Status:         %s\n", formatStatus(integration.Status))
			fmt.Printf("Schema version: %d\n", integration.SchemaVersion)
			fmt.Printf("Created:        %s\n", integration.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated:        %s\n", integration.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newIntegrationCreateCmd() *cobra.Command {
	var name, provider string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new integration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			integration, err := apiClient.Integrations().Create(ctx, &client.CreateIntegrationRequest{
				Name:     name,
				Provider: provider,
			})
			if err != nil {
				return fmt.Errorf("failed to create integration: %w", err)
			}

			fmt.Printf("Integration %s created (ID: %s)\n", integration.Name, integration.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "integration name")
	cmd.Flags().StringVar(&provider, "provider", "", "provider key, e.g. slack or stripe")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func newIntegrationSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <id>",
		Short: "Show the current schema snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			schema, err := apiClient.Integrations().GetSchema(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(schema)
			}

			fmt.Printf("Schema version %d (captured %s)\n\n", schema.Version, schema.CapturedAt.Format("2006-01-02 15:04:05"))

			t := NewTable("ACTION", "FIELDS", "DESCRIPTION")
			for name, action := range schema.Actions {
				t.AddRow(name, strconv.Itoa(len(action.Fields)), truncate(action.Description, 50))
			}
			t.Render()
			return nil
		},
	}
}

func newIntegrationConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <id>",
		Short: "Create a connect session for OAuth setup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			session, err := apiClient.Integrations().CreateConnectSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create connect session: %w", err)
			}

			format := getOutputFormat()
			if format != "table" {
				return printOutput(session)
			}

			fmt.Printf("Session token: %s\n", session.Token)
			fmt.Printf("Expires at:    %s\n", session.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
