package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var entitlementsCmd = &cobra.Command{
	Use:   "entitlements",
	Short: "Show owned courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}

		records := container.Store.Records()
		if len(records) == 0 {
			fmt.Println("no courses owned yet")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s %s\n", r.Language, r.Level.DisplayLabel())
		}
		if container.Selection.AllOfferingsEntitled() {
			fmt.Println("all courses owned, nothing left to buy")
		}
		return nil
	},
}

var entitlementsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch the entitlement set from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}
		session, err := container.Sessions.Current()
		if err != nil {
			return err
		}
		if err := container.Store.Refresh(ctx, session.UserID); err != nil {
			return err
		}
		fmt.Printf("refreshed: %d courses owned\n", container.Store.Len())
		return nil
	},
}

func init() {
	entitlementsCmd.AddCommand(entitlementsRefreshCmd)
	AddCommand(entitlementsCmd)
}
