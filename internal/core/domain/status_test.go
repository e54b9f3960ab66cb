package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncStatus_RecordSuccess(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	st := &SyncStatus{}

	st.RecordSuccess(NewDate(2024, time.January, 5), "A", now, 1<<30)
	assert.Equal(t, NewDate(2024, time.January, 5), st.LastDate)
	assert.Equal(t, 1, st.TotalFiles)
	assert.InDelta(t, 1.0, st.StorageGB, 1e-9)
	assert.Equal(t, "A", st.SourceUsage[NewDate(2024, time.January, 5)])

	// An older date re-synced later never moves lastDate back.
	st.RecordSuccess(NewDate(2024, time.January, 2), "B", now, 1<<30)
	assert.Equal(t, NewDate(2024, time.January, 5), st.LastDate)
	assert.Equal(t, 2, st.TotalFiles)
}

func TestSyncStatus_RecordSuccessSameDateCountsOnce(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	st := &SyncStatus{}

	st.RecordSuccess(NewDate(2024, time.January, 5), "A", now, 1<<30)
	st.RecordSuccess(NewDate(2024, time.January, 5), "B", now.Add(time.Hour), 1<<30)

	// Re-fetching a recorded date must not inflate the aggregates,
	// but the attribution and timestamps follow the latest fetch.
	assert.Equal(t, 1, st.TotalFiles)
	assert.InDelta(t, 1.0, st.StorageGB, 1e-9)
	assert.Equal(t, "B", st.SourceUsage[NewDate(2024, time.January, 5)])
	assert.Equal(t, now.Add(time.Hour), st.LastSuccess)
}

func TestSyncStatus_RecordFailure(t *testing.T) {
	st := &SyncStatus{State: StateDownloading}
	st.RecordFailure("fetch 2024-01-03: upstream 503")

	assert.Equal(t, "fetch 2024-01-03: upstream 503", st.LastError)
	assert.Equal(t, StateError, st.State)
}

func TestStatusDocument_Recompute(t *testing.T) {
	doc := &StatusDocument{Datasets: map[string]*SyncStatus{
		"sla": {TotalFiles: 3, StorageGB: 1.5},
		"sst": {TotalFiles: 2, StorageGB: 0.5},
	}}
	doc.Recompute()

	assert.Equal(t, 5, doc.Storage.TotalFiles)
	assert.InDelta(t, 2.0, doc.Storage.TotalGB, 1e-9)
}
