package services

import (
	"time"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// SourceRouter resolves a date to exactly one upstream source, or to
// unavailable with a distinguished reason. It is pure: the same inputs
// always yield the same decision, and never two sources.
type SourceRouter struct {
	now func() time.Time
}

// NewSourceRouter creates a router.
func NewSourceRouter() *SourceRouter {
	return &SourceRouter{now: time.Now}
}

// Route resolves date against the dataset's windows and overlap policy.
//
// Precedence:
//  1. The overlap policy, inclusive both ends. During a transition
//     period the primary source is authoritative regardless of which
//     window's bounds happen to contain the date.
//  2. The first declared window containing the date. An open end
//     matches any date up to today.
//  3. Unavailable, with the reason distinguishing before-all-windows,
//     after-all-windows and gap-between-windows.
func (r *SourceRouter) Route(dataset domain.Dataset, date domain.Date) domain.RouteDecision {
	today := domain.DateOf(r.now().UTC())

	if dataset.Overlap != nil && dataset.Overlap.Contains(date) {
		return domain.RouteDecision{SourceID: dataset.Overlap.PrimarySource}
	}

	for _, w := range dataset.Windows {
		if w.Contains(date, today) {
			return domain.RouteDecision{SourceID: w.SourceID}
		}
	}

	return domain.RouteDecision{Reason: r.unavailableReason(dataset, date, today)}
}

// unavailableReason classifies an unroutable date relative to the
// windows' overall span. Declaration order does not matter here.
func (r *SourceRouter) unavailableReason(dataset domain.Dataset, date, today domain.Date) domain.UnavailableReason {
	var earliest, latest domain.Date
	for i, w := range dataset.Windows {
		if i == 0 || w.Start.Before(earliest) {
			earliest = w.Start
		}
		end := w.End
		if w.Open() {
			end = today
		}
		if end.After(latest) {
			latest = end
		}
	}

	switch {
	case date.Before(earliest):
		return domain.ReasonBeforeAllWindows
	case date.After(latest):
		return domain.ReasonAfterAllWindows
	default:
		return domain.ReasonGapBetweenWindows
	}
}
