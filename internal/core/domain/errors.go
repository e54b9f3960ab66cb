package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates malformed dataset, window, or override
	// configuration. Configuration errors are fatal: they abort a run
	// before any fetch happens.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSyncInProgress indicates a sync is already running for a dataset.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrRouteUnavailable indicates no source window covers a date.
	// Always a per-date failure, never fatal to a batch.
	ErrRouteUnavailable = errors.New("no source available for date")

	// ErrFinalMissing indicates reclamation was requested but the final
	// artifact does not exist. Nothing is removed.
	ErrFinalMissing = errors.New("final artifact missing")

	// ErrFinalUndersized indicates the final artifact exists but is below
	// the minimum valid size. Nothing is removed.
	ErrFinalUndersized = errors.New("final artifact below minimum size")

	// ErrStatusPersistence indicates the status document could not be
	// written. Never swallowed: a failed write risks duplicate
	// re-downloads on the next run.
	ErrStatusPersistence = errors.New("status persistence failed")
)
