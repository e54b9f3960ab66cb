// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Fetcher: Downloads and validates one date from a source
//   - StatusStore: Status document persistence
//   - DatasetStore: Dataset configuration access
//   - ArchiveLayout: Filesystem layout and artifact existence probe
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - HistoryStore: Run history persistence. Without it, runs are not
//     recorded and the history command is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
