package domain

import "time"

// UnitError records one failed sync unit and why it failed.
type UnitError struct {
	Date   Date   `json:"date"`
	Reason string `json:"reason"`
}

// SyncReport is the aggregated outcome of one sync run for one dataset.
type SyncReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"runId"`

	// Dataset names the dataset that was synced.
	Dataset string `json:"dataset"`

	// StartedAt / EndedAt bound the run.
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitzero"`

	// Downloaded counts units fetched successfully.
	Downloaded int `json:"downloaded"`

	// Skipped counts dates in range whose artifact already existed.
	Skipped int `json:"skipped"`

	// Failed counts units that failed (routing or fetch).
	Failed int `json:"failed"`

	// Dates lists the successfully synced dates, ascending.
	Dates []Date `json:"dates,omitempty"`

	// Errors enumerates every failed date with its reason.
	Errors []UnitError `json:"errors,omitempty"`

	// SourceUsage counts units attributed to each source.
	SourceUsage map[string]int `json:"sourceUsage,omitempty"`

	// Success is true iff no unit failed. A single date's failure is
	// always local; this flag is the only place failure escalates.
	Success bool `json:"success"`
}

// RecordSuccess adds a successful unit to the report.
func (r *SyncReport) RecordSuccess(date Date, sourceID string) {
	r.Downloaded++
	r.Dates = append(r.Dates, date)
	if sourceID != "" {
		if r.SourceUsage == nil {
			r.SourceUsage = make(map[string]int)
		}
		r.SourceUsage[sourceID]++
	}
}

// RecordFailure adds a failed unit to the report.
func (r *SyncReport) RecordFailure(date Date, reason string) {
	r.Failed++
	r.Errors = append(r.Errors, UnitError{Date: date, Reason: reason})
}

// ArtifactClass tags what kind of file a reclamation removed.
type ArtifactClass string

// Artifact classes.
const (
	ArtifactRaw          ArtifactClass = "raw"
	ArtifactIntermediate ArtifactClass = "intermediate"
)

// RemovedFile is one file deleted during reclamation.
type RemovedFile struct {
	Path   string        `json:"path"`
	SizeMB float64       `json:"sizeMB"`
	Type   ArtifactClass `json:"type"`
}

// ReclaimReport is the outcome of reclaiming one date's artifacts.
type ReclaimReport struct {
	Timestamp time.Time `json:"timestamp"`
	Date      Date      `json:"date"`

	// FilesRemoved lists every file deleted, with size and class.
	FilesRemoved []RemovedFile `json:"filesRemoved"`

	// SpaceFreedMB totals the bytes freed.
	SpaceFreedMB float64 `json:"spaceFreedMB"`

	// FinalFileSizeKB is the size of the validated final artifact.
	FinalFileSizeKB float64 `json:"finalFileSizeKB"`

	// Errors holds per-file failures. A single file's delete failure
	// does not abort the rest.
	Errors []string `json:"errors,omitempty"`
}

// OK reports whether reclamation completed without errors.
func (r *ReclaimReport) OK() bool {
	return len(r.Errors) == 0
}
