package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("backend %s is not reachable: %w", a.client.BaseURL(), err)
		}
		fmt.Printf("Backend %s is up.\n", a.client.BaseURL())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
