package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/errandmate/errandmate/internal/account"
	"github.com/errandmate/errandmate/internal/gateway"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and manage your marketplace profile",
	Long: `View and manage your marketplace profile.

Subcommands:
  show          Show the current profile
  edit          Update name, bio or contact details
  role          Choose customer or service provider
  location      Set your location
  completeness  Show how complete the profile is

Examples:
  errandmate profile show
  errandmate profile edit --bio "Fast and reliable"
  errandmate profile role service_provider
  errandmate profile location --gps GA-123-4567 --city Accra`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// requireSession builds the app and ensures a live session, returning the
// stack ready for profile operations.
func requireSession(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.mgr.InitializeAuth(cmd.Context()); err != nil {
		a.close()
		return nil, err
	}
	if !a.store.Snapshot().IsAuthenticated {
		a.close()
		return nil, gateway.NewError(gateway.CodeAuthentication, "not signed in, run 'errandmate login' first", 0)
	}
	return a, nil
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.mgr.RefreshIfStale(cmd.Context()); err != nil {
			return err
		}
		a.mgr.FetchCompleteness(cmd.Context())

		st := a.store.Snapshot()
		fmt.Printf("Name:  %s\n", st.User.Name)
		fmt.Printf("Email: %s\n", st.User.Email)
		if !st.HasProfile() {
			fmt.Println("\nNo profile yet. Run 'errandmate profile role' to get started.")
			return nil
		}

		p := st.Profile
		fmt.Printf("Role:  %s\n", account.RoleLabel(p.Role))
		if p.Bio != "" {
			fmt.Printf("Bio:   %s\n", p.Bio)
		}
		if p.Location != nil {
			fmt.Printf("Where: %s", p.Location.GhanaPostGPS)
			if p.Location.City != "" {
				fmt.Printf(", %s", p.Location.City)
			}
			fmt.Println()
		}
		if p.ContactDetails != nil {
			fmt.Printf("Phone: %s\n", p.ContactDetails.PrimaryContact)
		}
		if st.Completeness != nil {
			fmt.Printf("Completeness: %d%%\n", *st.Completeness)
		}
		return nil
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Update name, bio or contact details",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var req gateway.UpdateProfileRequest
		patch := &gateway.ProfilePatch{}
		changed := false

		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req.Name = &name
			changed = true
		}
		if cmd.Flags().Changed("bio") {
			bio, _ := cmd.Flags().GetString("bio")
			patch.Bio = &bio
			req.Profile = patch
			changed = true
		}
		if cmd.Flags().Changed("phone") {
			phone, _ := cmd.Flags().GetString("phone")
			patch.ContactDetails = &gateway.ContactDetails{PrimaryContact: phone}
			req.Profile = patch
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to update: pass --name, --bio or --phone")
		}

		if err := a.mgr.UpdateUserProfile(cmd.Context(), req); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		fmt.Println("Profile updated.")
		return nil
	},
}

var profileRoleCmd = &cobra.Command{
	Use:   "role [customer|service_provider]",
	Short: "Choose your marketplace role",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		var role gateway.ProfileRole
		if len(args) == 1 {
			switch strings.ToLower(args[0]) {
			case "customer":
				role = gateway.ProfileRoleCustomer
			case "service_provider", "provider":
				role = gateway.ProfileRoleProvider
			default:
				return fmt.Errorf("unknown role %q: want customer or service_provider", args[0])
			}
		} else {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[gateway.ProfileRole]().
						Title("What brings you to Errand Mate?").
						Options(
							huh.NewOption("I need things done (customer)", gateway.ProfileRoleCustomer),
							huh.NewOption("I run errands for others (service provider)", gateway.ProfileRoleProvider),
						).
						Value(&role),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}

		if err := a.mgr.UpdateRole(cmd.Context(), role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		fmt.Printf("You are now a %s.\n", strings.ToLower(account.RoleLabel(role)))
		return nil
	},
}

var profileLocationCmd = &cobra.Command{
	Use:   "location",
	Short: "Set your location",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		gps, _ := cmd.Flags().GetString("gps")
		city, _ := cmd.Flags().GetString("city")
		region, _ := cmd.Flags().GetString("region")
		landmark, _ := cmd.Flags().GetString("landmark")

		if gps == "" {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().Title("GhanaPost GPS address").Value(&gps).Validate(notEmpty("GPS address")),
					huh.NewInput().Title("City (optional)").Value(&city),
					huh.NewInput().Title("Nearby landmark (optional)").Value(&landmark),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
		}

		loc := gateway.Location{
			GhanaPostGPS:   gps,
			City:           city,
			Region:         region,
			NearbyLandmark: landmark,
		}
		if err := a.mgr.UpdateLocation(cmd.Context(), loc); err != nil {
			return fmt.Errorf("update location: %w", err)
		}
		fmt.Println("Location updated.")
		return nil
	},
}

var profileCompletenessCmd = &cobra.Command{
	Use:   "completeness",
	Short: "Show how complete the profile is",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireSession(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		a.mgr.FetchCompleteness(cmd.Context())

		st := a.store.Snapshot()
		if st.Completeness == nil {
			fmt.Println("Completeness is not available right now.")
			return nil
		}
		fmt.Printf("Your profile is %d%% complete.\n", *st.Completeness)
		if *st.Completeness < 100 {
			fmt.Println("Add a bio, location and contact details to improve your matches.")
		}
		return nil
	},
}

func init() {
	profileEditCmd.Flags().String("name", "", "display name")
	profileEditCmd.Flags().String("bio", "", "short description shown to other users")
	profileEditCmd.Flags().String("phone", "", "primary contact number")

	profileLocationCmd.Flags().String("gps", "", "GhanaPost GPS address")
	profileLocationCmd.Flags().String("city", "", "city")
	profileLocationCmd.Flags().String("region", "", "region")
	profileLocationCmd.Flags().String("landmark", "", "nearby landmark")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileRoleCmd)
	profileCmd.AddCommand(profileLocationCmd)
	profileCmd.AddCommand(profileCompletenessCmd)
	rootCmd.AddCommand(profileCmd)
}
