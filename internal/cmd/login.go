package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/errandmate/errandmate/internal/account"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Errand Mate",
	Long: `Sign in to Errand Mate with your email and password, or with a social
identity token.

On success the session is stored locally and reused by every other command
until you log out.

Examples:
  errandmate login
  errandmate login --email ama@example.com --password secret
  errandmate login --google-token <id-token>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		googleToken, _ := cmd.Flags().GetString("google-token")
		appleToken, _ := cmd.Flags().GetString("apple-token")

		var outcome *account.AuthOutcome
		switch {
		case googleToken != "":
			outcome, err = a.mgr.LoginWithGoogle(cmd.Context(), googleToken)
		case appleToken != "":
			outcome, err = a.mgr.LoginWithApple(cmd.Context(), appleToken, nil)
		default:
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				if email, password, err = promptCredentials(email); err != nil {
					return err
				}
			}
			outcome, err = a.mgr.Login(cmd.Context(), email, password)
		}
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if outcome.RequiresVerification {
			fmt.Println("Your email address is not verified yet.")
			if outcome.Message != "" {
				fmt.Println(outcome.Message)
			}
			fmt.Printf("Check %s for the verification link, then run 'errandmate verify <token>'.\n", outcome.Email)
			return nil
		}

		st := a.store.Snapshot()
		fmt.Printf("Signed in as %s <%s>.\n", st.User.Name, st.User.Email)
		return nil
	},
}

// promptCredentials asks interactively for whatever was not passed as a flag.
func promptCredentials(email string) (string, string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&email).
				Validate(notEmpty("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(notEmpty("password")),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return email, password, nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func init() {
	loginCmd.Flags().String("email", "", "account email address")
	loginCmd.Flags().String("password", "", "account password")
	loginCmd.Flags().String("google-token", "", "Google ID token for social sign-in")
	loginCmd.Flags().String("apple-token", "", "Apple ID token for social sign-in")
	rootCmd.AddCommand(loginCmd)
}
