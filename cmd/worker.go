package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/gym-management/internal/card"
	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Membership card maintenance",
}

// Expiry sweep command
var expireCardsCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire active cards past their expiry date",
	Long: `Run the membership card expiry sweep once, or keep running it every
--interval until interrupted. Cards are also expired lazily when used, so the
sweep only keeps reports and eligibility answers current.`,
	Run: func(cmd *cobra.Command, args []string) {
		runExpirySweep()
	},
}

var (
	sweepInterval time.Duration
	sweepBatch    int
)

// ExpirySweeper is the part of the card service the sweep needs.
type ExpirySweeper interface {
	ExpireDue(ctx context.Context, batch int) (int, error)
}

var _ ExpirySweeper = (*card.Service)(nil)

func runExpirySweep() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	interval := getDurationFlag(sweepInterval, deps.Config.Card.ExpirySweepInterval)
	batch := getIntFlag(sweepBatch, deps.Config.Card.ExpirySweepBatch)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sweepLoop(ctx, deps.Logger, deps.Cards, interval, batch); err != nil {
		deps.Logger.Error("card expiry sweep failed", "error", err)
		os.Exit(1)
	}
}

// sweepLoop runs one sweep, then one per interval until ctx ends. A zero
// interval runs exactly once. Errors in periodic mode are logged and retried
// on the next tick.
func sweepLoop(ctx context.Context, lg *slog.Logger, sweeper ExpirySweeper, interval time.Duration, batch int) error {
	expired, err := sweeper.ExpireDue(ctx, batch)
	if interval <= 0 {
		return err
	}
	logSweep(ctx, lg, expired, err)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			expired, err := sweeper.ExpireDue(ctx, batch)
			logSweep(ctx, lg, expired, err)
		}
	}
}

func logSweep(ctx context.Context, lg *slog.Logger, expired int, err error) {
	if err != nil {
		lg.ErrorContext(ctx, "card expiry sweep failed", "error", err)
		return
	}
	lg.InfoContext(ctx, "card expiry sweep done", "expired", expired)
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	expireCardsCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "repeat the sweep at this interval (overrides config, 0 runs once)")
	expireCardsCmd.Flags().IntVar(&sweepBatch, "batch", 0, "maximum cards examined per sweep (overrides config)")

	cardsCmd.AddCommand(expireCardsCmd)
	rootCmd.AddCommand(cardsCmd)
}
