// Package services contains the core application logic: date range
// planning, date-to-source routing, storage reclamation and the sync
// orchestrator that ties them together. Services depend only on the
// domain and port packages.
package services
