// Package cmd wires the command-line interface. Each command builds the
// application stack through newApp, talks to the account facade only, and
// saves the session snapshot before exiting.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "errandmate",
	Short: "Errand Mate marketplace client",
	Long: `errandmate is the terminal client for the Errand Mate services marketplace.

Sign in once and your session is kept in a local snapshot; every command
checks it against the backend before acting. Use 'errandmate dashboard' for
the interactive view, or the individual commands for scripting.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.errandmate/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}
