// Package domain defines the core business entities for Gridsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Dataset: A configured date-indexed dataset and its source windows
//   - Date: A calendar date, the unit of synchronisation
//   - SyncStatus: Persisted per-dataset sync progress
//   - SyncReport: The outcome of one sync run
//   - ReclaimReport: The outcome of one storage reclamation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
