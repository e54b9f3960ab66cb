package driven

import (
	"context"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// DatasetStore provides access to dataset configuration.
type DatasetStore interface {
	// Get retrieves a dataset by name.
	// Returns domain.ErrNotFound if the dataset is not configured.
	Get(ctx context.Context, name string) (*domain.Dataset, error)

	// List returns all configured datasets.
	List(ctx context.Context) ([]domain.Dataset, error)
}
