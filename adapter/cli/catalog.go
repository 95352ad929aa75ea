package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List all course offerings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}

		if err := container.Orchestrator.Start(ctx); err != nil {
			return err
		}
		defer container.Orchestrator.Close()

		offerings := catalog.Offerings()
		ids := make([]string, len(offerings))
		for i, o := range offerings {
			ids[i] = o.ProductID
		}
		products, err := container.Channel.GetProducts(ctx, ids)
		if err != nil {
			logger.Warn("could not load store prices", "error", err)
		}
		prices := make(map[string]string, len(products))
		for _, p := range products {
			prices[p.ProductID] = p.LocalizedPrice
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LANGUAGE\tLEVEL\tPRODUCT\tPRICE\tSTATUS")
		for _, o := range offerings {
			status := "available"
			switch {
			case container.Store.IsEntitled(o.Language, o.Level):
				status = "owned"
			case container.Selection.IsChecked(o.Language, o.Level):
				status = "in cart"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				o.Language, o.Level.DisplayLabel(), o.ProductID, prices[o.ProductID], status)
		}
		return w.Flush()
	},
}

func init() {
	AddCommand(catalogCmd)
}
