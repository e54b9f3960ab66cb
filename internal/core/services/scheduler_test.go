package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driving"
)

// reloadableStore wraps mockDatasetStore with a Reload hook.
type reloadableStore struct {
	*mockDatasetStore
	reloads   int
	reloadErr error
}

func (r *reloadableStore) Reload() error {
	r.reloads++
	return r.reloadErr
}

// stubRunner implements driving.SyncRunner, recording calls.
type stubRunner struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubRunner) Sync(_ context.Context, req driving.SyncRequest) (*domain.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req.Dataset)
	return &domain.SyncReport{Dataset: req.Dataset, Success: true}, nil
}

func (s *stubRunner) SyncAll(context.Context) ([]*domain.SyncReport, error) {
	return nil, nil
}

func TestScheduler_RebuildSchedulesEachDataset(t *testing.T) {
	a := simpleDataset(t, "2024-01-01")
	b := simpleDataset(t, "2024-01-01")
	b.Name = "sst"
	b.Schedule = "0 3 * * *"
	store := &reloadableStore{mockDatasetStore: &mockDatasetStore{datasets: []domain.Dataset{a, b}}}

	s := NewScheduler(store, &stubRunner{}, "")
	require.NoError(t, s.rebuild(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
}

func TestScheduler_RebuildSkipsInvalidSchedule(t *testing.T) {
	a := simpleDataset(t, "2024-01-01")
	b := simpleDataset(t, "2024-01-01")
	b.Name = "sst"
	b.Schedule = "not a cron expression"
	store := &reloadableStore{mockDatasetStore: &mockDatasetStore{datasets: []domain.Dataset{a, b}}}

	s := NewScheduler(store, &stubRunner{}, "")
	require.NoError(t, s.rebuild(context.Background()))
	assert.Len(t, s.cron.Entries(), 1, "valid datasets stay scheduled")
}

func TestScheduler_ReloadHandsOverCleanly(t *testing.T) {
	store := &reloadableStore{mockDatasetStore: &mockDatasetStore{
		datasets: []domain.Dataset{simpleDataset(t, "2024-01-01")},
	}}

	s := NewScheduler(store, &stubRunner{}, "")
	require.NoError(t, s.rebuild(context.Background()))
	s.cron.Start()
	old := s.cron

	// reload blocks until the old cron has fully stopped, then starts
	// the replacement: at no point do both tick.
	s.reload(context.Background())
	defer func() { <-s.cron.Stop().Done() }()

	assert.Equal(t, 1, store.reloads)
	assert.NotSame(t, old, s.cron)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_ReloadKeepsSchedulesOnFailure(t *testing.T) {
	store := &reloadableStore{mockDatasetStore: &mockDatasetStore{
		datasets: []domain.Dataset{simpleDataset(t, "2024-01-01")},
	}}

	s := NewScheduler(store, &stubRunner{}, "")
	require.NoError(t, s.rebuild(context.Background()))
	s.cron.Start()
	old := s.cron
	defer func() { <-s.cron.Stop().Done() }()

	store.reloadErr = errors.New("bad config")
	s.reload(context.Background())

	assert.Equal(t, 1, store.reloads)
	assert.Same(t, old, s.cron, "previous schedules stay in effect")
}
