// Package status persists the shared status document: one JSON object
// keyed by dataset name, recording per-dataset sync progress.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.StatusStore = (*FileStore)(nil)

// FileStore is a JSON-file implementation of driven.StatusStore.
//
// Updates take a per-dataset lock so independent datasets can sync
// concurrently, plus a short file lock around the read-modify-write of
// the shared document. Writes go through a temp file and rename so a
// crash mid-write cannot truncate prior state. The document is created
// lazily on first write and never deleted here.
type FileStore struct {
	path string
	now  func() time.Time

	mu       sync.Mutex        // guards datasets map
	datasets map[string]*sync.Mutex

	fileMu sync.Mutex // guards document read-modify-write
}

// NewFileStore creates a status store backed by the given file path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating status directory: %w", err)
	}
	return &FileStore{
		path:     path,
		now:      time.Now,
		datasets: make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the status document path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the full status document. A missing file yields an
// empty document, not an error.
func (s *FileStore) Load(_ context.Context) (*domain.StatusDocument, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	return s.read()
}

// Get retrieves one dataset's status.
func (s *FileStore) Get(ctx context.Context, dataset string) (*domain.SyncStatus, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := doc.Datasets[dataset]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// Update applies mutate to the dataset's entry and persists the
// document atomically.
func (s *FileStore) Update(_ context.Context, dataset string, mutate func(*domain.SyncStatus)) error {
	lock := s.datasetLock(dataset)
	lock.Lock()
	defer lock.Unlock()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	st, ok := doc.Datasets[dataset]
	if !ok {
		st = &domain.SyncStatus{State: domain.StateNotStarted}
		doc.Datasets[dataset] = st
	}
	mutate(st)

	doc.LastUpdated = s.now().UTC()
	doc.Recompute()
	return s.write(doc)
}

// read loads the document; callers must hold fileMu.
func (s *FileStore) read() (*domain.StatusDocument, error) {
	doc := &domain.StatusDocument{Datasets: make(map[string]*domain.SyncStatus)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("reading status document: %w", err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing status document: %w", err)
	}
	if doc.Datasets == nil {
		doc.Datasets = make(map[string]*domain.SyncStatus)
	}
	return doc, nil
}

// write persists the document via temp-file-then-rename; callers must
// hold fileMu.
func (s *FileStore) write(doc *domain.StatusDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".status-*.json")
	if err != nil {
		return fmt.Errorf("creating temp status file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing status document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing status document: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing status document: %w", err)
	}
	return nil
}

// datasetLock returns the mutex for a dataset, creating it on demand.
func (s *FileStore) datasetLock(dataset string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.datasets[dataset]
	if !ok {
		lock = &sync.Mutex{}
		s.datasets[dataset] = lock
	}
	return lock
}
