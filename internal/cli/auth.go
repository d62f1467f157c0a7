package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials",
	}

	cmd.AddCommand(newAuthSetTokenCmd())
	cmd.AddCommand(newAuthStatusCmd())

	return cmd
}

func newAuthSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <token>",
		Short: "Store a platform-issued API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", args[0])
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Println("Token saved")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := viper.GetString("auth.token")
			if token == "" {
				fmt.Println("Not authenticated")
				return nil
			}

			apiClient.SetToken(token)
			if _, err := apiClient.Integrations().List(context.Background(), nil); err != nil {
				return fmt.Errorf("token rejected by server: %w", err)
			}

			fmt.Println("Authenticated")
			return nil
		},
	}
}
