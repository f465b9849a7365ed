package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/errandmate/errandmate/internal/account"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.mgr.InitializeAuth(cmd.Context()); err != nil {
			return err
		}

		st := a.store.Snapshot()
		if !st.IsAuthenticated {
			fmt.Println("Not signed in. Run 'errandmate login' first.")
			return nil
		}

		fmt.Printf("Name:      %s\n", st.User.Name)
		fmt.Printf("Email:     %s\n", st.User.Email)
		fmt.Printf("Provider:  %s\n", account.ProviderLabel(st.User.Provider))
		fmt.Printf("Verified:  %v\n", st.User.IsVerified)
		if st.HasProfile() {
			fmt.Printf("Role:      %s\n", account.RoleLabel(st.Profile.Role))
		} else {
			fmt.Println("Role:      not set (run 'errandmate profile role')")
		}
		if st.User.IsSuperAdmin {
			fmt.Println("Access:    super admin")
		} else if st.User.IsAdmin {
			fmt.Println("Access:    admin")
		}
		if !st.User.LastLogin.IsZero() {
			fmt.Printf("Last seen: %s\n", account.FormatDate(st.User.LastLogin))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
