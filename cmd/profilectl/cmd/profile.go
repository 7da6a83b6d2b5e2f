package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/profileview"
)

// ptermNotifier prints controller notifications as pterm messages
type ptermNotifier struct{}

func (ptermNotifier) Success(message string) { pterm.Success.Println(message) }
func (ptermNotifier) Failure(message string) { pterm.Error.Println(message) }

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity cached in the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := apiClient().CurrentIdentity(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}

		pterm.DefaultSection.Println("Session")
		pterm.Info.Printf("ID:    %s\n", identity.ID)
		pterm.Info.Printf("Email: %s\n", identity.Email)
		pterm.Info.Printf("Name:  %s\n", identity.Name)
		pterm.Info.Printf("Role:  %s\n", identity.Role)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Load and print the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := mountView(cmd.Context())
		if err != nil {
			return err
		}
		defer view.Unmount()

		printForm(view.State())
		return nil
	},
}

var setNameCmd = &cobra.Command{
	Use:   "set-name [name]",
	Short: "Change the display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := mountView(cmd.Context())
		if err != nil {
			return err
		}
		defer view.Unmount()

		if err := view.StartEditing(); err != nil {
			return err
		}
		if err := view.SetName(args[0]); err != nil {
			return err
		}
		if err := view.Submit(cmd.Context()); err != nil {
			return fmt.Errorf("failed to update name: %w", err)
		}

		printForm(view.State())
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role [role]",
	Short: "Switch the role (ADMIN, TEACHER or STUDENT)",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var roles []string
		for _, role := range models.AllRoles() {
			roles = append(roles, role.String())
		}
		return roles, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := mountView(cmd.Context())
		if err != nil {
			return err
		}
		defer view.Unmount()

		// Unknown roles are sent as typed; the server rejects them
		role := models.UserRole(strings.TrimSpace(args[0]))
		if err := view.ChangeRole(cmd.Context(), role); err != nil {
			printForm(view.State())
			return fmt.Errorf("failed to update role: %w", err)
		}

		printForm(view.State())
		return nil
	},
}

func mountView(ctx context.Context) (*profileview.Controller, error) {
	api := apiClient()
	view := profileview.New(api, api, profileview.WithNotifier(ptermNotifier{}))

	spinner, _ := pterm.DefaultSpinner.Start("Loading profile...")
	err := view.Mount(ctx)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return view, nil
}

func printForm(state profileview.State) {
	pterm.DefaultSection.Println("Profile")
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Name", "Email", "Role"},
		{state.FormData.Name, state.FormData.Email, state.FormData.Role.String()},
	}).Render()

	if state.Error != "" {
		pterm.Warning.Println(state.Error)
	}
}
