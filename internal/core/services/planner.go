package services

import (
	"fmt"
	"time"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
	"github.com/gridsync/gridsync/internal/logger"
)

// Plan is the ordered list of dates a sync run still has to process.
type Plan struct {
	// Dates are the missing dates, ascending.
	Dates []domain.Date

	// Skipped counts dates in range whose final artifact was already
	// present.
	Skipped int
}

// DateRangePlanner computes the dates still missing from the archive.
// It checks presence only; content validation belongs to the Fetcher.
type DateRangePlanner struct {
	layout driven.ArchiveLayout
	now    func() time.Time
}

// NewDateRangePlanner creates a planner probing the given layout.
func NewDateRangePlanner(layout driven.ArchiveLayout) *DateRangePlanner {
	return &DateRangePlanner{layout: layout, now: time.Now}
}

// Plan computes the dates to process for a dataset.
//
// The range starts at startOverride if set, otherwise at the day after
// the last synced date, otherwise at the dataset's earliest supported
// date. It ends at endOverride if set, otherwise yesterday, since today
// may still be incomplete upstream. An inverted range yields an empty
// plan, not an error.
func (p *DateRangePlanner) Plan(
	dataset domain.Dataset,
	status *domain.SyncStatus,
	startOverride, endOverride domain.Date,
) (*Plan, error) {
	start := startOverride
	if start.IsZero() {
		if status != nil && !status.LastDate.IsZero() {
			start = status.LastDate.Next()
		} else {
			start = dataset.Earliest
		}
	}
	if start.Before(dataset.Earliest) {
		return nil, fmt.Errorf("%w: start %s precedes dataset %s earliest date %s",
			domain.ErrInvalidConfig, start, dataset.Name, dataset.Earliest)
	}

	end := endOverride
	if end.IsZero() {
		end = domain.DateOf(p.now().UTC()).AddDays(-1)
	}

	plan := &Plan{}
	if start.After(end) {
		return plan, nil
	}

	for d := start; !d.After(end); d = d.Next() {
		if p.layout.Probe(dataset, d) == domain.PresencePresent {
			plan.Skipped++
			continue
		}
		plan.Dates = append(plan.Dates, d)
	}

	logger.Debug("Planned %s: %d missing, %d present in %s..%s",
		dataset.Name, len(plan.Dates), plan.Skipped, start, end)
	return plan, nil
}
