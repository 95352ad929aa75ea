// Package cli is the command-line adapter driving the entitlement and
// checkout engine.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/minilingo/minilingo/internal/app"
	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/pkg/observability"
)

var (
	verbose   bool
	logger    *slog.Logger
	container *app.Container
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minilingo",
	Short: "minilingo - language course entitlements and checkout",
	Long: `minilingo drives the course store of the minilingo learning platform:
inspect the catalog, manage the cart, buy courses, and reconcile
entitlements with the payment backend.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := observability.WithCorrelationID(cmd.Context(), info.correlationID.String())
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Debug("command start",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, info.correlationID.String(),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, observability.CorrelationIDFromContext(cmd.Context()),
			"duration_ms", time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// SetLogger installs the process logger for all commands.
func SetLogger(l *slog.Logger) { logger = l }

// SetContainer installs the dependency container.
func SetContainer(c *app.Container) { container = c }

// AddCommand registers a subcommand on the root.
func AddCommand(cmd *cobra.Command) { rootCmd.AddCommand(cmd) }

// Execute runs the CLI.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// consoleNotifier surfaces purchase outcomes on stdout. Cancellations
// never reach it.
type consoleNotifier struct{}

func (consoleNotifier) Info(message string)    { fmt.Println(message) }
func (consoleNotifier) Failure(message string) { fmt.Println("error:", message) }

// resumeSession restores the logged-in session, attaches the
// session-scoped stores, refreshes entitlements, and rehydrates the cart
// snapshot. A failed refresh is reported but does not block the command:
// the local set stays as-is and is never treated as empty.
func resumeSession(ctx context.Context) error {
	session, err := container.Sessions.Resume(ctx)
	if err != nil {
		return fmt.Errorf("not logged in (run 'minilingo login' first): %w", err)
	}
	container.AttachSession(session, consoleNotifier{})

	if err := container.Store.Refresh(ctx, session.UserID); err != nil {
		logger.Warn("could not refresh entitlements, using last known state", "error", err)
	}

	keys, err := container.Cart.Load(ctx)
	if err != nil {
		logger.Warn("could not load cart snapshot", "error", err)
		return nil
	}
	container.Selection.Restore(keys)
	return nil
}

// saveCart snapshots the current selection for the next invocation.
func saveCart(ctx context.Context) {
	if err := container.Cart.Save(ctx, container.Selection.Picked()); err != nil {
		logger.Warn("could not save cart snapshot", "error", err)
	}
}

func offeringArg(language, levelLabel string) (catalog.Offering, error) {
	level, err := catalog.LevelFromLabel(levelLabel)
	if err != nil {
		return catalog.Offering{}, err
	}
	offering, ok := catalog.OfferingFor(language, level)
	if !ok {
		return catalog.Offering{}, fmt.Errorf("no %s course for language %q", level.DisplayLabel(), language)
	}
	return offering, nil
}
