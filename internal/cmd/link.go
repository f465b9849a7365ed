package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/errandmate/errandmate/internal/gateway"
)

var linkCmd = &cobra.Command{
	Use:   "link <google|apple>",
	Short: "Link a social identity to your account",
	Long: `Link a Google or Apple identity to your signed-in account, so you can
use either to sign in later.

Examples:
  errandmate link google --token <id-token>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var provider gateway.Provider
		switch args[0] {
		case "google":
			provider = gateway.ProviderGoogle
		case "apple":
			provider = gateway.ProviderApple
		default:
			return fmt.Errorf("unknown provider %q: want google or apple", args[0])
		}

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			return fmt.Errorf("--token is required")
		}

		if err := a.mgr.LinkProvider(cmd.Context(), provider, token); err != nil {
			return fmt.Errorf("link %s: %w", args[0], err)
		}
		fmt.Printf("Linked %s to your account.\n", args[0])
		return nil
	},
}

func init() {
	linkCmd.Flags().String("token", "", "provider ID token")
	rootCmd.AddCommand(linkCmd)
}
