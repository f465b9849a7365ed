package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset a forgotten password",
	Long: `Reset a forgotten password.

Subcommands:
  forgot  Send a reset link to your email
  reset   Set a new password with the emailed token

Examples:
  errandmate password forgot --email ama@example.com
  errandmate password reset 4f3c2b1a`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Send a reset link to your email",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return fmt.Errorf("--email is required")
		}

		msg, err := a.mgr.ForgotPassword(cmd.Context(), email)
		if err != nil {
			return fmt.Errorf("request reset: %w", err)
		}
		if msg == "" {
			msg = "If that address has an account, a reset email is on its way."
		}
		fmt.Println(msg)
		return nil
	},
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset <token>",
	Short: "Set a new password with the emailed token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("New password").
						EchoMode(huh.EchoModePassword).
						Value(&password).
						Validate(notEmpty("password")),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}

		msg, err := a.mgr.ResetPassword(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		if msg == "" {
			msg = "Password updated. Sign in with your new password."
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	passwordForgotCmd.Flags().String("email", "", "account email address")
	passwordResetCmd.Flags().String("password", "", "new password")
	passwordCmd.AddCommand(passwordForgotCmd)
	passwordCmd.AddCommand(passwordResetCmd)
	rootCmd.AddCommand(passwordCmd)
}
