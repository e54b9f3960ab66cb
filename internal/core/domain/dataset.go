package domain

import (
	"fmt"
	"strings"
	"time"
)

// TemporalWindow is the date range during which an upstream source is
// authoritative for a dataset. A zero End means the window is open and
// runs through the present.
type TemporalWindow struct {
	// SourceID names the upstream source this window belongs to.
	SourceID string

	// Start is the first date the source covers (inclusive).
	Start Date

	// End is the last date the source covers (inclusive).
	// Zero means open-ended.
	End Date
}

// Open reports whether the window has no end date.
func (w TemporalWindow) Open() bool {
	return w.End.IsZero()
}

// Contains reports whether the window covers date. An open end matches
// any date up to and including today.
func (w TemporalWindow) Contains(date, today Date) bool {
	if date.Before(w.Start) {
		return false
	}
	if w.Open() {
		return !date.After(today)
	}
	return !date.After(w.End)
}

// OverlapPolicy names a sub-range where two windows both apply and which
// source is authoritative there. It dominates window matching.
type OverlapPolicy struct {
	// Start is the first date of the transition period (inclusive).
	Start Date

	// End is the last date of the transition period (inclusive).
	End Date

	// PrimarySource wins for every date in [Start, End].
	PrimarySource string
}

// Contains reports whether the policy covers date, inclusive both ends.
func (p OverlapPolicy) Contains(date Date) bool {
	return !date.Before(p.Start) && !date.After(p.End)
}

// Dataset is a configured date-indexed dataset: where its artifacts live,
// which sources cover which dates, and how it is scheduled.
type Dataset struct {
	// Name is the unique dataset identifier (e.g. "sla", "sst").
	Name string

	// Namespace groups processed artifacts (e.g. "ocean").
	Namespace string

	// Earliest is the absolute earliest date the dataset supports.
	Earliest Date

	// Windows lists the temporal windows of the upstream sources,
	// in declared order.
	Windows []TemporalWindow

	// Overlap optionally resolves a transition period where two
	// windows both apply.
	Overlap *OverlapPolicy

	// FileTemplate is the artifact file name pattern. The placeholders
	// {date}, {yyyy} and {mm} are substituted per unit.
	FileTemplate string

	// MinFinalSizeBytes is the size below which a final artifact is
	// considered invalid. Guards reclamation and the existence probe.
	MinFinalSizeBytes int64

	// UnitDelay is the pause between consecutive fetches within a run.
	UnitDelay time.Duration

	// Schedule is an optional cron expression for daemon mode.
	Schedule string
}

// Validate checks the dataset definition. All failures wrap
// ErrInvalidConfig and abort a run before any fetch.
func (d Dataset) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: dataset name is empty", ErrInvalidConfig)
	}
	if d.Earliest.IsZero() {
		return fmt.Errorf("%w: dataset %s has no earliest date", ErrInvalidConfig, d.Name)
	}
	if d.FileTemplate == "" {
		return fmt.Errorf("%w: dataset %s has no file template", ErrInvalidConfig, d.Name)
	}
	if len(d.Windows) == 0 {
		return fmt.Errorf("%w: dataset %s has no source windows", ErrInvalidConfig, d.Name)
	}
	for _, w := range d.Windows {
		if w.SourceID == "" {
			return fmt.Errorf("%w: dataset %s has a window without a source", ErrInvalidConfig, d.Name)
		}
		if w.Start.IsZero() {
			return fmt.Errorf("%w: dataset %s window for %s has no start", ErrInvalidConfig, d.Name, w.SourceID)
		}
		if !w.Open() && w.End.Before(w.Start) {
			return fmt.Errorf("%w: dataset %s window for %s ends before it starts", ErrInvalidConfig, d.Name, w.SourceID)
		}
	}
	if d.Overlap != nil {
		if d.Overlap.PrimarySource == "" {
			return fmt.Errorf("%w: dataset %s overlap has no primary source", ErrInvalidConfig, d.Name)
		}
		if d.Overlap.Start.IsZero() || d.Overlap.End.IsZero() {
			return fmt.Errorf("%w: dataset %s overlap is unbounded", ErrInvalidConfig, d.Name)
		}
		if d.Overlap.End.Before(d.Overlap.Start) {
			return fmt.Errorf("%w: dataset %s overlap ends before it starts", ErrInvalidConfig, d.Name)
		}
		if !d.hasSource(d.Overlap.PrimarySource) {
			return fmt.Errorf("%w: dataset %s overlap primary %s matches no window", ErrInvalidConfig, d.Name, d.Overlap.PrimarySource)
		}
	}
	return nil
}

func (d Dataset) hasSource(sourceID string) bool {
	for _, w := range d.Windows {
		if w.SourceID == sourceID {
			return true
		}
	}
	return false
}

// ArtifactFile renders the file template for a date.
func (d Dataset) ArtifactFile(date Date) string {
	name := d.FileTemplate
	name = strings.ReplaceAll(name, "{date}", date.String())
	name = strings.ReplaceAll(name, "{yyyy}", fmt.Sprintf("%04d", date.Year))
	name = strings.ReplaceAll(name, "{mm}", fmt.Sprintf("%02d", int(date.Month)))
	return name
}
