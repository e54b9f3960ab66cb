package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/gridsync/gridsync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [dataset]",
	Short: "Show sync progress",
	Long: `Prints the persisted sync status: last synced date, file counts,
storage usage and the last error, for one dataset or all of them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := statusStore.Load(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(doc.Datasets))
	for name := range doc.Datasets {
		if len(args) > 0 && name != args[0] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		cmd.Println("No sync status recorded yet.")
		return nil
	}

	for _, name := range names {
		printStatus(cmd, name, doc.Datasets[name])
	}
	if len(args) == 0 {
		cmd.Printf("Total: %d files, %.2f GB\n", doc.Storage.TotalFiles, doc.Storage.TotalGB)
	}
	return nil
}

func printStatus(cmd *cobra.Command, name string, st *domain.SyncStatus) {
	cmd.Printf("%s: %s\n", name, st.State)
	if !st.LastDate.IsZero() {
		cmd.Printf("  last date:    %s\n", st.LastDate)
	}
	cmd.Printf("  files:        %d (%.2f GB)\n", st.TotalFiles, st.StorageGB)
	if !st.LastSuccess.IsZero() {
		cmd.Printf("  last success: %s\n", st.LastSuccess.Format("2006-01-02 15:04:05 MST"))
	}
	if st.LastError != "" {
		cmd.Printf("  last error:   %s\n", st.LastError)
	}
}
