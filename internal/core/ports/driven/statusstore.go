package driven

import (
	"context"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// StatusStore persists sync progress in the shared status document.
//
// Update is a read-modify-write scoped to one dataset's entry,
// serialised per dataset name so independent datasets can run
// concurrently. Writes are atomic: a crash mid-write must not truncate
// prior state.
type StatusStore interface {
	// Load returns the full status document.
	Load(ctx context.Context) (*domain.StatusDocument, error)

	// Get retrieves one dataset's status.
	// Returns domain.ErrNotFound if the dataset has never synced.
	Get(ctx context.Context, dataset string) (*domain.SyncStatus, error)

	// Update applies mutate to the dataset's entry (created zero-valued
	// on first write) and persists the document. The aggregate storage
	// block and lastUpdated are refreshed on every write.
	Update(ctx context.Context, dataset string, mutate func(*domain.SyncStatus)) error
}
