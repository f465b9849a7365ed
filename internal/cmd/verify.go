package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify your email address",
	Long: `Verify your email address with the token from the verification email.

Examples:
  errandmate verify 4f3c2b1a
  errandmate verify resend --email ama@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		msg, err := a.mgr.VerifyEmail(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		if msg == "" {
			msg = "Email verified. You can sign in now."
		}
		fmt.Println(msg)
		return nil
	},
}

var verifyResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Request a fresh verification email",
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

		msg, err := a.mgr.ResendVerification(cmd.Context(), email)
		if err != nil {
			return fmt.Errorf("resend failed: %w", err)
		}
		if msg == "" {
			msg = "Verification email sent."
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	verifyResendCmd.Flags().String("email", "", "account email address")
	verifyCmd.AddCommand(verifyResendCmd)
	rootCmd.AddCommand(verifyCmd)
}
