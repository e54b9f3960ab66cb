package file

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DatasetStore = (*Store)(nil)

// Store exposes the parsed config as a driven.DatasetStore and
// supports reloading, which the daemon triggers on config changes.
type Store struct {
	path string

	mu  sync.RWMutex
	cfg *Config
}

// NewStore loads the config file at path. A missing file yields the
// defaults (no datasets).
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: cfg}, nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns the current configuration snapshot.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Reload re-reads the config file. On parse or validation failure the
// previous configuration is kept.
func (s *Store) Reload() error {
	cfg, err := load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Get retrieves a dataset by name.
func (s *Store) Get(_ context.Context, name string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.cfg.Datasets {
		if d.Name == name {
			ds := s.cfg.toDomain(d)
			return &ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %s: %w", name, domain.ErrNotFound)
}

// List returns all configured datasets in declaration order.
func (s *Store) List(_ context.Context) ([]domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	datasets := make([]domain.Dataset, 0, len(s.cfg.Datasets))
	for _, d := range s.cfg.Datasets {
		datasets = append(datasets, s.cfg.toDomain(d))
	}
	return datasets, nil
}

// Source returns a source definition by ID.
func (s *Store) Source(id string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.cfg.Sources[id]
	return src, ok
}
