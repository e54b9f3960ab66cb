package driving

import (
	"context"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// SyncRequest describes one sync run.
type SyncRequest struct {
	// Dataset names the dataset to sync.
	Dataset string

	// StartOverride optionally replaces the resume point.
	// Zero means resume from the status document.
	StartOverride domain.Date

	// EndOverride optionally caps the range.
	// Zero means yesterday.
	EndOverride domain.Date

	// MaxUnits limits the run to the earliest N missing dates.
	// Zero means unlimited.
	MaxUnits int
}

// SyncRunner drives sync runs.
type SyncRunner interface {
	// Sync runs one batch for a dataset: plan missing dates, route
	// each to a source, fetch, reclaim and persist status per unit.
	// Per-date failures never abort the batch; they surface only via
	// the report's Success flag. A non-nil error means the run itself
	// broke: a configuration error before the loop, a status write
	// that failed twice, or cancellation.
	Sync(ctx context.Context, req SyncRequest) (*domain.SyncReport, error)

	// SyncAll runs Sync for every configured dataset in turn.
	SyncAll(ctx context.Context) ([]*domain.SyncReport, error)
}

// Scheduler runs dataset syncs on their configured schedules.
type Scheduler interface {
	// Start begins the scheduling loop. Blocks until the context is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts the scheduler down, waiting for any
	// running sync to finish.
	Stop() error
}
