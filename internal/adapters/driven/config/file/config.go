// Package file loads Gridsync configuration from a TOML file:
// archive paths, upstream sources and dataset definitions with their
// temporal windows and overlap policies.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// Source describes one upstream provider. Everything provider-specific
// is configuration data: URL template, credentials env var, throttle.
type Source struct {
	// URLTemplate is the download URL with {date}, {yyyy}, {mm} and
	// {file} placeholders.
	URLTemplate string `toml:"url_template"`

	// AuthEnv names the environment variable holding the bearer
	// token for this source, if any.
	AuthEnv string `toml:"auth_env"`

	// RequestsPerMinute throttles calls to this source. Zero means
	// no proactive throttle.
	RequestsPerMinute float64 `toml:"requests_per_minute"`

	// Timeout bounds a single download.
	Timeout time.Duration `toml:"timeout"`
}

// Window mirrors domain.TemporalWindow in TOML form. An absent end
// means the window is open through the present.
type Window struct {
	Source string      `toml:"source"`
	Start  domain.Date `toml:"start"`
	End    domain.Date `toml:"end,omitempty"`
}

// Overlap mirrors domain.OverlapPolicy in TOML form.
type Overlap struct {
	Start   domain.Date `toml:"start"`
	End     domain.Date `toml:"end"`
	Primary string      `toml:"primary"`
}

// Dataset is one dataset definition.
type Dataset struct {
	Name           string        `toml:"name"`
	Namespace      string        `toml:"namespace"`
	Earliest       domain.Date   `toml:"earliest"`
	FileTemplate   string        `toml:"file_template"`
	MinFinalSizeKB int64         `toml:"min_final_size_kb"`
	UnitDelay      time.Duration `toml:"unit_delay,omitempty"`
	Schedule       string        `toml:"schedule,omitempty"`
	Windows        []Window      `toml:"windows"`
	Overlap        *Overlap      `toml:"overlap,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	// BaseDir is the archive root holding raw/ and processed/.
	BaseDir string `toml:"base_dir"`

	// StatusPath is the status document location.
	// Defaults to <base_dir>/status.json.
	StatusPath string `toml:"status_path,omitempty"`

	// HistoryDB is the run-history database location.
	// Defaults to ~/.gridsync/data/history.db.
	HistoryDB string `toml:"history_db,omitempty"`

	// UnitDelay is the default pause between fetches within a run,
	// overridable per dataset.
	UnitDelay time.Duration `toml:"unit_delay,omitempty"`

	Sources  map[string]Source `toml:"sources"`
	Datasets []Dataset         `toml:"datasets"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return &Config{
		BaseDir:   filepath.Join(home, ".gridsync", "archive"),
		HistoryDB: filepath.Join(home, ".gridsync", "data", "history.db"),
		UnitDelay: 2 * time.Second,
		Sources:   make(map[string]Source),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".gridsync", "config.toml")
}

// load reads and validates a config file. A missing file yields the
// defaults.
func load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
	}

	if cfg.StatusPath == "" {
		cfg.StatusPath = filepath.Join(cfg.BaseDir, "status.json")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks cross-references and dataset definitions.
func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate dataset %s", domain.ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = true

		ds := c.toDomain(d)
		if err := ds.Validate(); err != nil {
			return err
		}
		for _, w := range d.Windows {
			if _, ok := c.Sources[w.Source]; !ok {
				return fmt.Errorf("%w: dataset %s references unknown source %s",
					domain.ErrInvalidConfig, d.Name, w.Source)
			}
		}
	}
	return nil
}

// toDomain converts a TOML dataset into its domain form.
func (c *Config) toDomain(d Dataset) domain.Dataset {
	ds := domain.Dataset{
		Name:              d.Name,
		Namespace:         d.Namespace,
		Earliest:          d.Earliest,
		FileTemplate:      d.FileTemplate,
		MinFinalSizeBytes: d.MinFinalSizeKB * 1024,
		UnitDelay:         d.UnitDelay,
		Schedule:          d.Schedule,
	}
	if ds.UnitDelay == 0 {
		ds.UnitDelay = c.UnitDelay
	}
	for _, w := range d.Windows {
		ds.Windows = append(ds.Windows, domain.TemporalWindow{
			SourceID: w.Source,
			Start:    w.Start,
			End:      w.End,
		})
	}
	if d.Overlap != nil {
		ds.Overlap = &domain.OverlapPolicy{
			Start:         d.Overlap.Start,
			End:           d.Overlap.End,
			PrimarySource: d.Overlap.Primary,
		}
	}
	return ds
}
