package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	loginUserID string
	loginToken  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session with the payment backend",
	Long: `Stores the user ID and bearer token in the device store and fetches
the entitlement set. Flags fall back to MINILINGO_USER_ID and
MINILINGO_AUTH_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rawUser := loginUserID
		if rawUser == "" {
			rawUser = container.Config.UserID
		}
		token := loginToken
		if token == "" {
			token = container.Config.AuthToken
		}
		if rawUser == "" || token == "" {
			return fmt.Errorf("both --user and --token are required")
		}

		userID, err := uuid.Parse(rawUser)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		session, err := container.Sessions.Begin(ctx, userID, token)
		if err != nil {
			return err
		}
		container.AttachSession(session, consoleNotifier{})

		if err := container.Store.Refresh(ctx, session.UserID); err != nil {
			logger.Warn("could not refresh entitlements after login", "error", err)
		}

		fmt.Printf("logged in as %s (%d courses owned)\n", session.UserID, container.Store.Len())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear all user-scoped state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}
		if err := container.Sessions.End(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUserID, "user", "", "user ID (UUID)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "backend bearer token")
	AddCommand(loginCmd)
	AddCommand(logoutCmd)
}
