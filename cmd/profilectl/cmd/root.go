package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/profile-service/internal/client"
)

var (
	serverURL    string
	sessionToken string
	bearerToken  string
	cookieName   string
)

var rootCmd = &cobra.Command{
	Use:   "profilectl",
	Short: "Profile CLI - view and edit your profile",
	Long: `profilectl is a terminal front end for the profile service. It loads the
signed-in user's profile, edits the display name and switches the role.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if sessionToken == "" {
			sessionToken = os.Getenv("PROFILE_SESSION")
		}
		if bearerToken == "" {
			bearerToken = os.Getenv("PROFILE_TOKEN")
		}
		if sessionToken == "" && bearerToken == "" {
			return fmt.Errorf("a session (--session or PROFILE_SESSION) or a token (--token or PROFILE_TOKEN) is required")
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Profile service URL")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "session", "", "Session id (also set via PROFILE_SESSION)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "Casdoor access token (also set via PROFILE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cookieName, "cookie-name", client.DefaultSessionCookie, "Session cookie name")

	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setNameCmd)
	rootCmd.AddCommand(setRoleCmd)
}

func apiClient() *client.Client {
	if bearerToken != "" {
		return client.New(serverURL, client.WithBearerToken(bearerToken))
	}
	return client.New(serverURL, client.WithSessionCookie(cookieName, sessionToken))
}
