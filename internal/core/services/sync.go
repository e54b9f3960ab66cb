package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
	"github.com/gridsync/gridsync/internal/core/ports/driving"
	"github.com/gridsync/gridsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncRunner = (*SyncOrchestrator)(nil)

// SyncOrchestrator drives the batch loop for one dataset at a time:
// plan missing dates, route each to a source, delegate the fetch,
// reclaim storage and persist status after every unit.
//
// Execution within one dataset is strictly sequential over dates:
// upstream providers are rate limited and the resume-from-lastDate
// invariant assumes units complete in order. Independent datasets may
// sync concurrently; the status store serialises writes per dataset.
type SyncOrchestrator struct {
	datasets  driven.DatasetStore
	statuses  driven.StatusStore
	history   driven.HistoryStore
	layout    driven.ArchiveLayout
	fetcher   driven.Fetcher
	planner   *DateRangePlanner
	router    *SourceRouter
	reclaimer *StorageReclaimer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// Guard against concurrent runs of the same dataset
	mu     sync.Mutex
	active map[string]bool
}

// NewSyncOrchestrator creates a sync orchestrator. The history store is
// optional - if nil, runs are not recorded.
func NewSyncOrchestrator(
	datasets driven.DatasetStore,
	statuses driven.StatusStore,
	history driven.HistoryStore,
	layout driven.ArchiveLayout,
	fetcher driven.Fetcher,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		datasets:  datasets,
		statuses:  statuses,
		history:   history,
		layout:    layout,
		fetcher:   fetcher,
		planner:   NewDateRangePlanner(layout),
		router:    NewSourceRouter(),
		reclaimer: NewStorageReclaimer(),
		now:       time.Now,
		sleep:     sleepCtx,
		active:    make(map[string]bool),
	}
}

// Sync runs one batch for a dataset.
//
// Per-date failures (routing gaps, fetch errors) are local: they are
// recorded in the report and the loop continues. Only configuration
// errors before the loop, status persistence failures and cancellation
// return a non-nil error.
//
// LastDate advances to the highest successful date even when an
// earlier date in the same batch failed, so a bare resume skips failed
// dates; they remain visible in the report and run history and can be
// re-requested with explicit bounds.
func (o *SyncOrchestrator) Sync(ctx context.Context, req driving.SyncRequest) (*domain.SyncReport, error) {
	dataset, err := o.datasets.Get(ctx, req.Dataset)
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	if err := dataset.Validate(); err != nil {
		return nil, err
	}
	if err := validateOverrides(req); err != nil {
		return nil, err
	}

	if !o.acquire(dataset.Name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, dataset.Name)
	}
	defer o.release(dataset.Name)

	if err := o.layout.Ensure(*dataset); err != nil {
		return nil, fmt.Errorf("ensure layout: %w", err)
	}

	report := &domain.SyncReport{
		RunID:     uuid.NewString(),
		Dataset:   dataset.Name,
		StartedAt: o.now().UTC(),
		Success:   true,
	}

	status, err := o.statuses.Get(ctx, dataset.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get status: %w", err)
	}

	plan, err := o.planner.Plan(*dataset, status, req.StartOverride, req.EndOverride)
	if err != nil {
		return nil, err
	}
	report.Skipped = plan.Skipped

	units := plan.Dates
	if req.MaxUnits > 0 && len(units) > req.MaxUnits {
		units = units[:req.MaxUnits]
	}

	if len(units) == 0 {
		// Nothing to do; leave the status document untouched.
		report.EndedAt = o.now().UTC()
		o.recordRun(ctx, report)
		logger.Info("Dataset %s is up to date", dataset.Name)
		return report, nil
	}

	logger.Info("Syncing %s: %d dates from %s to %s",
		dataset.Name, len(units), units[0], units[len(units)-1])

	if err := o.updateStatus(ctx, dataset.Name, func(s *domain.SyncStatus) {
		s.State = domain.StateDownloading
	}); err != nil {
		return nil, err
	}

	for i, date := range units {
		// Cancellation is cooperative, checked only between units.
		if err := ctx.Err(); err != nil {
			report.EndedAt = o.now().UTC()
			report.Success = false
			o.recordRun(ctx, report)
			return report, err
		}

		if err := o.syncUnit(ctx, *dataset, date, report); err != nil {
			// Status persistence failures escalate; everything
			// else was already absorbed into the report.
			report.EndedAt = o.now().UTC()
			report.Success = false
			o.recordRun(ctx, report)
			return report, err
		}

		// Respect upstream rate limits; no delay after the final unit.
		if i < len(units)-1 && dataset.UnitDelay > 0 {
			if err := o.sleep(ctx, dataset.UnitDelay); err != nil {
				report.EndedAt = o.now().UTC()
				report.Success = false
				o.recordRun(ctx, report)
				return report, err
			}
		}
	}

	finalState := domain.StateUpToDate
	if report.Failed > 0 {
		report.Success = false
		finalState = domain.StateError
	}
	if err := o.updateStatus(ctx, dataset.Name, func(s *domain.SyncStatus) {
		s.State = finalState
	}); err != nil {
		// The units themselves ran; hand the report back with the error.
		report.EndedAt = o.now().UTC()
		report.Success = false
		o.recordRun(ctx, report)
		return report, err
	}

	report.EndedAt = o.now().UTC()
	o.recordRun(ctx, report)
	logger.Info("Sync %s done: %d downloaded, %d skipped, %d failed",
		dataset.Name, report.Downloaded, report.Skipped, report.Failed)
	return report, nil
}

// SyncAll runs Sync for every configured dataset in turn.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) ([]*domain.SyncReport, error) {
	datasets, err := o.datasets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	var reports []*domain.SyncReport
	var errs []error
	for _, ds := range datasets {
		report, err := o.Sync(ctx, driving.SyncRequest{Dataset: ds.Name})
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", ds.Name, err))
		}
	}

	if len(errs) > 0 {
		return reports, errors.Join(errs...)
	}
	return reports, nil
}

// syncUnit processes one date. Routing and fetch failures are recorded
// on the report and in the status document; only status persistence
// failures are returned.
func (o *SyncOrchestrator) syncUnit(ctx context.Context, dataset domain.Dataset, date domain.Date, report *domain.SyncReport) error {
	decision := o.router.Route(dataset, date)
	if !decision.Available() {
		reason := fmt.Sprintf("%v: %s (%s)", domain.ErrRouteUnavailable, date, decision.Reason)
		logger.Warn("Skipping %s: %s", date, decision.Reason)
		report.RecordFailure(date, reason)
		return o.updateStatus(ctx, dataset.Name, func(s *domain.SyncStatus) {
			s.RecordFailure(reason)
		})
	}

	result, err := o.fetcher.FetchAndValidate(ctx, dataset, date, decision.SourceID)
	if err != nil {
		reason := fmt.Sprintf("fetch %s from %s: %v", date, decision.SourceID, err)
		logger.Warn("Fetch failed for %s: %v", date, err)
		report.RecordFailure(date, reason)
		return o.updateStatus(ctx, dataset.Name, func(s *domain.SyncStatus) {
			s.RecordFailure(reason)
		})
	}

	// Reclamation outcome never affects the date's sync success.
	if result.RawPath != "" || len(result.IntermediatePaths) > 0 {
		reclaim := o.reclaimer.Reclaim(ReclaimRequest{
			Date:              date,
			RawPath:           result.RawPath,
			IntermediatePaths: result.IntermediatePaths,
			FinalPath:         result.FinalPath,
			MinValidSizeBytes: dataset.MinFinalSizeBytes,
			RootBoundaries:    o.layout.DatasetRoots(dataset),
		})
		for _, msg := range reclaim.Errors {
			logger.Warn("Reclaim %s: %s", date, msg)
		}
	}

	report.RecordSuccess(date, decision.SourceID)
	now := o.now().UTC()
	return o.updateStatus(ctx, dataset.Name, func(s *domain.SyncStatus) {
		s.RecordSuccess(date, decision.SourceID, now, result.FinalSizeBytes)
	})
}

// updateStatus persists a status mutation, retrying once. A second
// failure escalates: silent loss of status risks duplicate
// re-downloads on the next run.
func (o *SyncOrchestrator) updateStatus(ctx context.Context, dataset string, mutate func(*domain.SyncStatus)) error {
	err := o.statuses.Update(ctx, dataset, mutate)
	if err == nil {
		return nil
	}
	logger.Warn("Status write for %s failed, retrying: %v", dataset, err)
	if err = o.statuses.Update(ctx, dataset, mutate); err != nil {
		logger.Error("Status write for %s failed: %v", dataset, err)
		return fmt.Errorf("%w: %v", domain.ErrStatusPersistence, err)
	}
	return nil
}

// recordRun stores the report in the history store, best effort.
func (o *SyncOrchestrator) recordRun(ctx context.Context, report *domain.SyncReport) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordRun(ctx, report); err != nil {
		logger.Warn("Recording run %s failed: %v", report.RunID, err)
	}
}

func (o *SyncOrchestrator) acquire(dataset string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[dataset] {
		return false
	}
	o.active[dataset] = true
	return true
}

func (o *SyncOrchestrator) release(dataset string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, dataset)
}

func validateOverrides(req driving.SyncRequest) error {
	if req.MaxUnits < 0 {
		return fmt.Errorf("%w: max units is negative", domain.ErrInvalidConfig)
	}
	return nil
}

// sleepCtx waits for d, returning early if the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
