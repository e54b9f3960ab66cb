package driven

import (
	"github.com/gridsync/gridsync/internal/core/domain"
)

// ArchiveLayout owns the on-disk layout of the archive:
// raw artifacts under <base>/raw/<dataset>/<yyyy>/<mm>/ and derived
// artifacts under <base>/processed/<namespace>/<dataset>/<yyyy>/<mm>/.
type ArchiveLayout interface {
	// Ensure creates the dataset's directory skeleton. Idempotent;
	// invoked once per run before any date is processed.
	Ensure(dataset domain.Dataset) error

	// Probe reports whether a valid final artifact exists for a date.
	// The explicit tri-state replaces exception-driven existence
	// checks; an unreadable path counts as missing.
	Probe(dataset domain.Dataset, date domain.Date) domain.Presence

	// FinalPath returns the expected final artifact path for a date.
	FinalPath(dataset domain.Dataset, date domain.Date) string

	// RawPath returns the expected raw artifact path for a date.
	RawPath(dataset domain.Dataset, date domain.Date) string

	// DatasetRoots returns the directories reclamation must never
	// remove: the dataset's raw and processed roots.
	DatasetRoots(dataset domain.Dataset) []string
}
