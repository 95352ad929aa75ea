package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	checkoutdomain "github.com/minilingo/minilingo/internal/checkout/domain"
)

var buyCmd = &cobra.Command{
	Use:   "buy <language> <level>",
	Short: "Purchase one course through the billing channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}

		offering, err := offeringArg(args[0], args[1])
		if err != nil {
			return err
		}
		if container.Store.IsEntitled(offering.Language, offering.Level) {
			fmt.Printf("%s %s is already owned\n", offering.Language, offering.Level.DisplayLabel())
			return nil
		}
		if !container.Selection.IsPurchasable(offering) {
			if err := container.Selection.Toggle(offering.Language, offering.Level.DisplayLabel()); err != nil {
				return err
			}
		}

		if err := container.Orchestrator.Start(ctx); err != nil {
			return err
		}
		defer container.Orchestrator.Close()

		attempt, err := container.Orchestrator.Purchase(ctx, offering)
		if err != nil {
			if errors.Is(err, checkoutdomain.ErrAlreadyInFlight) || errors.Is(err, checkoutdomain.ErrNotReady) {
				return err
			}
			if attempt == nil {
				return err
			}
		}

		select {
		case <-attempt.Done():
		case <-ctx.Done():
			// The verification is detached and completes on its own; state
			// effects are applied even if the command is interrupted.
			return ctx.Err()
		}
		saveCart(ctx)

		switch attempt.State() {
		case checkoutdomain.AttemptVerified:
			fmt.Printf("purchase complete: %s %s (%d courses owned)\n",
				offering.Language, offering.Level.DisplayLabel(), container.Store.Len())
		case checkoutdomain.AttemptCancelled:
			// Cancellation is silent.
		case checkoutdomain.AttemptFailed:
			return attempt.Cause()
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded purchase attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := resumeSession(ctx); err != nil {
			return err
		}
		session, err := container.Sessions.Current()
		if err != nil {
			return err
		}

		records, err := container.Attempts.ListByUser(ctx, session.UserID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no purchase attempts recorded")
			return nil
		}
		for _, r := range records {
			line := fmt.Sprintf("%s %s: %s", r.Language, r.Level, r.State)
			if r.Cause != "" {
				line += " (" + r.Cause + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	AddCommand(buyCmd)
	AddCommand(historyCmd)
}
