package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the checkout selection",
}

var cartToggleCmd = &cobra.Command{
	Use:   "toggle <language> <level>",
	Short: "Add or remove a course from the cart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}

		language, levelLabel := args[0], args[1]
		if err := container.Selection.Toggle(language, levelLabel); err != nil {
			return err
		}
		saveCart(ctx)

		offering, err := offeringArg(language, levelLabel)
		if err != nil {
			return err
		}
		if container.Store.IsEntitled(offering.Language, offering.Level) {
			fmt.Printf("%s %s is already owned\n", offering.Language, offering.Level.DisplayLabel())
			return nil
		}
		if container.Selection.IsPurchasable(offering) {
			fmt.Printf("added %s %s to cart\n", offering.Language, offering.Level.DisplayLabel())
		} else {
			fmt.Printf("removed %s %s from cart\n", offering.Language, offering.Level.DisplayLabel())
		}
		return nil
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the purchasable cart and total",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}

		selections := container.Selection.PurchasableSelections()
		if len(selections) == 0 {
			fmt.Println("cart is empty, nothing payable")
			return nil
		}
		for _, o := range selections {
			fmt.Printf("%s %s\n", o.Language, o.Level.DisplayLabel())
		}
		fmt.Printf("total: %d\n", container.Selection.ComputeTotal(container.Config.UnitPrice))
		return nil
	},
}

func init() {
	cartCmd.AddCommand(cartToggleCmd)
	cartCmd.AddCommand(cartShowCmd)
	AddCommand(cartCmd)
}
