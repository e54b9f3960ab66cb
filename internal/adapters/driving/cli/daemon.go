package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridsync/gridsync/internal/core/services"
	"github.com/gridsync/gridsync/internal/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled syncs until interrupted",
	Long: `Runs every dataset on its configured cron schedule. The config
file is watched; edits take effect without a restart.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := services.NewScheduler(datasetStore, syncRunner, datasetStore.Path())
	defer scheduler.Stop()

	logger.Info("Daemon started, config at %s", datasetStore.Path())
	cmd.Println("Running scheduled syncs. Press Ctrl+C to stop.")

	err := scheduler.Start(ctx)
	if ctx.Err() != nil {
		// Interrupted: a clean shutdown, not a failure.
		return nil
	}
	return err
}
