package driven

import (
	"context"

	"github.com/gridsync/gridsync/internal/core/domain"
)

// FetchResult describes the artifacts a successful fetch produced.
// Paths the fetcher did not produce are empty.
type FetchResult struct {
	// RawPath is the as-downloaded artifact.
	RawPath string

	// IntermediatePaths are transient processing products.
	IntermediatePaths []string

	// FinalPath is the validated derived artifact. Always set on
	// success; the core treats its content opaquely.
	FinalPath string

	// FinalSizeBytes is the size of the final artifact.
	FinalSizeBytes int64
}

// Fetcher downloads and validates one date of one dataset from a
// resolved source. Implementations own provider specifics: network,
// authentication, retries, timeouts and any numeric processing.
//
// FetchAndValidate must be idempotent: re-invoking for an already-valid
// date is a cheap no-op returning the existing artifact paths.
type Fetcher interface {
	FetchAndValidate(ctx context.Context, dataset domain.Dataset, date domain.Date, sourceID string) (*FetchResult, error)
}
