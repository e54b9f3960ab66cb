package driven

import (
	"context"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// HistoryStore persists completed sync run reports.
type HistoryStore interface {
	// RecordRun stores a finished run report.
	RecordRun(ctx context.Context, report *domain.SyncReport) error

	// ListRuns returns recent runs, newest first. An empty dataset
	// matches all datasets.
	ListRuns(ctx context.Context, dataset string, limit int) ([]domain.SyncReport, error)

	// PruneHistory keeps only the most recent keep runs per dataset.
	PruneHistory(ctx context.Context, keep int) error
}
