// Package cli implements the gridsync command line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	configfile "github.com/gridsync/gridsync/internal/adapters/driven/config/file"
	"github.com/gridsync/gridsync/internal/adapters/driven/fetch"
	"github.com/gridsync/gridsync/internal/adapters/driven/layout"
	"github.com/gridsync/gridsync/internal/adapters/driven/status"
	"github.com/gridsync/gridsync/internal/adapters/driven/storage/sqlite"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
	"github.com/gridsync/gridsync/internal/core/ports/driving"
	"github.com/gridsync/gridsync/internal/core/services"
	"github.com/gridsync/gridsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Wired services, shared by the commands.
var (
	datasetStore *configfile.Store
	statusStore  *status.FileStore
	historyStore *sqlite.Store
	syncRunner   driving.SyncRunner
)

var rootCmd = &cobra.Command{
	Use:   "gridsync",
	Short: "Incremental archive sync for date-indexed geospatial datasets",
	Long: `Gridsync maintains a local, date-indexed archive of periodically
published geospatial datasets. It fetches missing calendar dates from
the configured upstream sources, routes each date to the source whose
temporal window covers it, and reclaims raw artifacts once the derived
artifact for a date is confirmed valid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" {
			return nil
		}
		return wireServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if historyStore != nil {
			historyStore.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.gridsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose output")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices builds the adapter and service graph once per process.
func wireServices() error {
	// Provider credentials may live in a .env next to the process.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded: %v", err)
	}

	var err error
	datasetStore, err = configfile.NewStore(configPath)
	if err != nil {
		return err
	}
	cfg := datasetStore.Config()

	statusStore, err = status.NewFileStore(cfg.StatusPath)
	if err != nil {
		return err
	}

	// History is optional: a failure to open it disables the history
	// command but never blocks a sync.
	historyStore, err = sqlite.NewStore(cfg.HistoryDB)
	if err != nil {
		logger.Warn("Run history unavailable: %v", err)
		historyStore = nil
	}

	archive := layout.New(cfg.BaseDir)
	fetcher := fetch.NewHTTPFetcher(fetcherSources(cfg), archive, nil)

	// HistoryStore is an interface value; keep it nil-comparable.
	orchestrator := services.NewSyncOrchestrator(datasetStore, statusStore, historyOrNil(), archive, fetcher)
	syncRunner = orchestrator
	return nil
}

func fetcherSources(cfg configfile.Config) map[string]fetch.SourceConfig {
	sources := make(map[string]fetch.SourceConfig, len(cfg.Sources))
	for id, src := range cfg.Sources {
		sources[id] = fetch.SourceConfig{
			URLTemplate:       src.URLTemplate,
			AuthEnv:           src.AuthEnv,
			RequestsPerMinute: src.RequestsPerMinute,
			Timeout:           src.Timeout,
		}
	}
	return sources
}

// historyOrNil avoids handing the orchestrator a typed nil interface.
func historyOrNil() driven.HistoryStore {
	if historyStore == nil {
		return nil
	}
	return historyStore
}
