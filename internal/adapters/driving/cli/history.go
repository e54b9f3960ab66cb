package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [dataset]",
	Short: "Show recent sync runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyStore == nil {
		return errors.New("run history is unavailable")
	}

	dataset := ""
	if len(args) > 0 {
		dataset = args[0]
	}

	runs, err := historyStore.ListRuns(cmd.Context(), dataset, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		outcome := "ok"
		if !run.Success {
			outcome = "FAILED"
		}
		cmd.Printf("%s  %-12s %-6s %3d downloaded %3d skipped %3d failed\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.Dataset, outcome,
			run.Downloaded, run.Skipped, run.Failed)
	}
	return nil
}
