package domain

import "time"

// SyncState is the lifecycle state of a dataset's synchronisation.
type SyncState string

// Sync lifecycle states.
const (
	StateNotStarted  SyncState = "not_started"
	StateDownloading SyncState = "downloading"
	StateActive      SyncState = "active"
	StateUpToDate    SyncState = "up_to_date"
	StateError       SyncState = "error"
)

// SyncStatus tracks the synchronisation progress for one dataset.
// It lives in the shared status document and is mutated after every
// unit attempt, success or failure.
type SyncStatus struct {
	// LastDate is the most recent successfully synced date. It only
	// ever increases across successful units; failures leave it
	// untouched.
	LastDate Date `json:"lastDate,omitzero"`

	// TotalFiles counts final artifacts attributed to this dataset.
	TotalFiles int `json:"totalFiles"`

	// StorageGB is the cumulative size of final artifacts.
	StorageGB float64 `json:"storageGB"`

	// LastSuccess is when the last unit completed successfully.
	LastSuccess time.Time `json:"lastSuccessTimestamp,omitzero"`

	// LastError is the most recent per-unit failure reason.
	LastError string `json:"lastError,omitempty"`

	// State is the current lifecycle state.
	State SyncState `json:"status"`

	// SourceUsage records which source served each synced date. Also
	// the ledger deciding whether a date counts toward the totals.
	SourceUsage map[Date]string `json:"sourceUsage,omitempty"`
}

// RecordSuccess applies a successful unit to the status. LastDate is
// monotonic: an out-of-order success never moves it backwards. A date
// already recorded in SourceUsage does not count toward TotalFiles and
// StorageGB a second time, so re-fetching an existing date never
// inflates the aggregates.
func (s *SyncStatus) RecordSuccess(date Date, sourceID string, now time.Time, finalSizeBytes int64) {
	s.LastDate = MaxDate(s.LastDate, date)
	s.LastSuccess = now
	s.State = StateActive
	if s.SourceUsage == nil {
		s.SourceUsage = make(map[Date]string)
	}
	if _, counted := s.SourceUsage[date]; !counted {
		s.TotalFiles++
		s.StorageGB += float64(finalSizeBytes) / (1024 * 1024 * 1024)
	}
	s.SourceUsage[date] = sourceID
}

// RecordFailure applies a failed unit to the status, leaving LastDate
// untouched.
func (s *SyncStatus) RecordFailure(reason string) {
	s.LastError = reason
	s.State = StateError
}

// StorageSummary aggregates archive usage across all datasets.
type StorageSummary struct {
	TotalFiles int     `json:"totalFiles"`
	TotalGB    float64 `json:"totalGB"`
}

// StatusDocument is the persisted record of per-dataset progress.
// One JSON object keyed by dataset name, written atomically.
type StatusDocument struct {
	// LastUpdated is when any entry was last written.
	LastUpdated time.Time `json:"lastUpdated"`

	// Storage aggregates usage across all datasets.
	Storage StorageSummary `json:"storage"`

	// Datasets maps dataset name to its sync status.
	Datasets map[string]*SyncStatus `json:"datasets"`
}

// Recompute refreshes the aggregate storage block from the per-dataset
// entries.
func (doc *StatusDocument) Recompute() {
	total := StorageSummary{}
	for _, st := range doc.Datasets {
		total.TotalFiles += st.TotalFiles
		total.TotalGB += st.StorageGB
	}
	doc.Storage = total
}
