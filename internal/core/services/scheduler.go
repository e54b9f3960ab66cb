package services

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/gridsync/gridsync/internal/core/ports/driven"
	"github.com/gridsync/gridsync/internal/core/ports/driving"
	"github.com/gridsync/gridsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// DefaultSchedule is used for datasets without a cron expression.
// Publication is daily upstream, so daily pulls are the baseline.
const DefaultSchedule = "@daily"

// Reloader is implemented by dataset stores that can re-read their
// backing file.
type Reloader interface {
	Reload() error
}

// Scheduler runs dataset syncs on their configured cron schedules.
// When the backing config file changes, dataset definitions are
// reloaded and schedules rebuilt.
type Scheduler struct {
	datasets   driven.DatasetStore
	runner     driving.SyncRunner
	configPath string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	cron    *cron.Cron
}

// NewScheduler creates a scheduler. configPath is optional; when set,
// the file is watched and dataset schedules reload on change.
func NewScheduler(datasets driven.DatasetStore, runner driving.SyncRunner, configPath string) *Scheduler {
	return &Scheduler{
		datasets:   datasets,
		runner:     runner,
		configPath: configPath,
	}
}

// Start begins the scheduling loop. Blocks until the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.rebuild(ctx); err != nil {
		return err
	}
	s.cron.Start()
	defer func() {
		<-s.cron.Stop().Done()
	}()

	var watcher *fsnotify.Watcher
	if s.configPath != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			logger.Warn("Config watch unavailable: %v", err)
		} else {
			defer watcher.Close()
			if err := watcher.Add(s.configPath); err != nil {
				logger.Warn("Cannot watch %s: %v", s.configPath, err)
				watcher.Close()
				watcher = nil
			}
		}
	}

	return s.run(ctx, watcher)
}

// Stop gracefully shuts down the scheduler and waits for any running
// sync to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main loop: wait for shutdown or config changes.
func (s *Scheduler) run(ctx context.Context, watcher *fsnotify.Watcher) error {
	var events chan fsnotify.Event
	var watchErrs chan error
	if watcher != nil {
		events = watcher.Events
		watchErrs = watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				logger.Info("Config changed, reloading schedules")
				s.reload(ctx)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warn("Config watch error: %v", err)
		}
	}
}

// reload re-reads dataset definitions and rebuilds cron entries.
func (s *Scheduler) reload(ctx context.Context) {
	if r, ok := s.datasets.(Reloader); ok {
		if err := r.Reload(); err != nil {
			logger.Error("Config reload failed, keeping previous schedules: %v", err)
			return
		}
	}

	old := s.cron
	if err := s.rebuild(ctx); err != nil {
		logger.Error("Schedule rebuild failed: %v", err)
		s.cron = old
		return
	}
	// Wait out the old cron before starting the new one so the two
	// never overlap.
	<-old.Stop().Done()
	s.cron.Start()
}

// rebuild creates a fresh cron with one entry per dataset.
func (s *Scheduler) rebuild(ctx context.Context) error {
	c := cron.New()
	datasets, err := s.datasets.List(ctx)
	if err != nil {
		return err
	}

	for _, ds := range datasets {
		spec := ds.Schedule
		if spec == "" {
			spec = DefaultSchedule
		}
		name := ds.Name
		_, err := c.AddFunc(spec, func() { s.runSync(ctx, name) })
		if err != nil {
			logger.Error("Invalid schedule %q for %s: %v", spec, name, err)
			continue
		}
		logger.Debug("Scheduled %s: %s", name, spec)
	}

	s.cron = c
	return nil
}

// runSync executes one scheduled sync.
func (s *Scheduler) runSync(ctx context.Context, dataset string) {
	s.wg.Add(1)
	defer s.wg.Done()

	report, err := s.runner.Sync(ctx, driving.SyncRequest{Dataset: dataset})
	if err != nil {
		logger.Error("Scheduled sync %s: %v", dataset, err)
		return
	}
	if !report.Success {
		logger.Warn("Scheduled sync %s finished with %d failures", dataset, report.Failed)
	}
}
