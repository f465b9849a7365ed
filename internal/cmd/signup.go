package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new Errand Mate account",
	Long: `Create a new Errand Mate account with your name, email and password.

Most accounts need email verification before the first sign-in; the command
tells you when that is the case.

Examples:
  errandmate signup
  errandmate signup --name "Ama Mensah" --email ama@example.com --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if name == "" || email == "" || password == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("Name").Value(&name).Validate(notEmpty("name")),
					huh.NewInput().Title("Email").Value(&email).Validate(notEmpty("email")),
					huh.NewInput().
						Title("Password").
						EchoMode(huh.EchoModePassword).
						Value(&password).
						Validate(notEmpty("password")),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}

		outcome, err := a.mgr.Signup(cmd.Context(), name, email, password)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}

		if outcome.RequiresVerification {
			fmt.Printf("Account created. Check %s for the verification link,\nthen run 'errandmate verify <token>'.\n", outcome.Email)
			return nil
		}

		st := a.store.Snapshot()
		fmt.Printf("Welcome, %s! You are signed in.\n", st.User.Name)
		return nil
	},
}

func init() {
	signupCmd.Flags().String("name", "", "display name")
	signupCmd.Flags().String("email", "", "account email address")
	signupCmd.Flags().String("password", "", "account password")
	rootCmd.AddCommand(signupCmd)
}
