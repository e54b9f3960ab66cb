// Package layout implements the archive's on-disk contract:
// raw artifacts at <base>/raw/<dataset>/<yyyy>/<mm>/<file> and derived
// artifacts at <base>/processed/<namespace>/<dataset>/<yyyy>/<mm>/<file>.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
)

// Ensure Layout implements the interface.
var _ driven.ArchiveLayout = (*Layout)(nil)

// Layout resolves artifact paths under a single base directory and
// probes artifact presence.
type Layout struct {
	base string
}

// New creates a layout rooted at base.
func New(base string) *Layout {
	return &Layout{base: base}
}

// Base returns the archive base directory.
func (l *Layout) Base() string {
	return l.base
}

// Ensure creates the dataset's root directories. Idempotent.
func (l *Layout) Ensure(dataset domain.Dataset) error {
	for _, dir := range l.DatasetRoots(dataset) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Probe reports whether a valid final artifact exists for a date.
// A file below the dataset's minimum size is Invalid and will be
// re-fetched; unreadable paths count as Missing.
func (l *Layout) Probe(dataset domain.Dataset, date domain.Date) domain.Presence {
	info, err := os.Stat(l.FinalPath(dataset, date))
	if err != nil {
		return domain.PresenceMissing
	}
	if info.Size() < dataset.MinFinalSizeBytes {
		return domain.PresenceInvalid
	}
	return domain.PresencePresent
}

// RawPath returns the expected raw artifact path for a date.
func (l *Layout) RawPath(dataset domain.Dataset, date domain.Date) string {
	return filepath.Join(l.rawRoot(dataset), monthDir(date), dataset.ArtifactFile(date))
}

// FinalPath returns the expected final artifact path for a date.
func (l *Layout) FinalPath(dataset domain.Dataset, date domain.Date) string {
	return filepath.Join(l.processedRoot(dataset), monthDir(date), dataset.ArtifactFile(date))
}

// DatasetRoots returns the dataset's raw and processed roots. These
// are the boundaries storage reclamation never removes.
func (l *Layout) DatasetRoots(dataset domain.Dataset) []string {
	return []string{l.rawRoot(dataset), l.processedRoot(dataset)}
}

func (l *Layout) rawRoot(dataset domain.Dataset) string {
	return filepath.Join(l.base, "raw", dataset.Name)
}

func (l *Layout) processedRoot(dataset domain.Dataset) string {
	return filepath.Join(l.base, "processed", dataset.Namespace, dataset.Name)
}

func monthDir(date domain.Date) string {
	return filepath.Join(fmt.Sprintf("%04d", date.Year), fmt.Sprintf("%02d", int(date.Month)))
}
