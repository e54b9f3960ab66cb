package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/logger"
)

// ReclaimRequest names the artifacts of one date.
type ReclaimRequest struct {
	Date domain.Date

	// RawPath is the as-downloaded artifact. May already be gone.
	RawPath string

	// IntermediatePaths are transient processing products.
	IntermediatePaths []string

	// FinalPath is the derived artifact that must be valid before
	// anything is removed.
	FinalPath string

	// MinValidSizeBytes is the size below which the final artifact
	// does not count as valid.
	MinValidSizeBytes int64

	// RootBoundaries are directories the empty-parent sweep must
	// never remove or climb past.
	RootBoundaries []string
}

// StorageReclaimer deletes raw and intermediate artifacts once the
// final artifact for a date is confirmed valid. It prefers leaking
// storage over destroying data: if the final artifact is missing or
// undersized, nothing is removed.
type StorageReclaimer struct {
	now func() time.Time
}

// NewStorageReclaimer creates a reclaimer.
func NewStorageReclaimer() *StorageReclaimer {
	return &StorageReclaimer{now: time.Now}
}

// Reclaim removes the request's raw and intermediate artifacts and
// prunes now-empty parent directories up to the root boundaries.
// Failures are recorded in the report, never returned: a single file's
// delete failure does not abort the rest, and reclamation outcome is
// independent of the date's sync success.
//
// Reclaiming a second time after files are already gone is a no-op.
func (r *StorageReclaimer) Reclaim(req ReclaimRequest) *domain.ReclaimReport {
	report := &domain.ReclaimReport{
		Timestamp: r.now().UTC(),
		Date:      req.Date,
	}

	info, err := os.Stat(req.FinalPath)
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%v: %s", domain.ErrFinalMissing, req.FinalPath))
		return report
	}
	if info.Size() < req.MinValidSizeBytes {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%v: %s is %d bytes, need %d", domain.ErrFinalUndersized,
				req.FinalPath, info.Size(), req.MinValidSizeBytes))
		return report
	}
	report.FinalFileSizeKB = float64(info.Size()) / 1024

	var parents []string
	if req.RawPath != "" {
		if dir, ok := r.removeFile(req.RawPath, domain.ArtifactRaw, report); ok {
			parents = append(parents, dir)
		}
	}
	for _, p := range req.IntermediatePaths {
		if dir, ok := r.removeFile(p, domain.ArtifactIntermediate, report); ok {
			parents = append(parents, dir)
		}
	}

	for _, dir := range parents {
		r.pruneEmptyParents(dir, req.RootBoundaries, report)
	}

	logger.Debug("Reclaimed %s for %s: %d files, %.2f MB freed, %d errors",
		req.Date, req.FinalPath, len(report.FilesRemoved), report.SpaceFreedMB, len(report.Errors))
	return report
}

// removeFile deletes one artifact if present, recording it in the
// report. Returns the parent directory and whether a file was removed.
func (r *StorageReclaimer) removeFile(path string, class domain.ArtifactClass, report *domain.ReclaimReport) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false // Already gone - idempotent no-op
		}
		report.Errors = append(report.Errors, fmt.Sprintf("stat %s: %v", path, err))
		return "", false
	}

	if err := os.Remove(path); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("remove %s: %v", path, err))
		return "", false
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	report.FilesRemoved = append(report.FilesRemoved, domain.RemovedFile{
		Path:   path,
		SizeMB: sizeMB,
		Type:   class,
	})
	report.SpaceFreedMB += sizeMB
	return filepath.Dir(path), true
}

// pruneEmptyParents removes now-empty directories upward from dir,
// stopping at (and never removing) any root boundary. Directories
// outside every boundary subtree are left alone.
func (r *StorageReclaimer) pruneEmptyParents(dir string, boundaries []string, report *domain.ReclaimReport) {
	for {
		if dir == "" || isBoundary(dir, boundaries) || !underBoundary(dir, boundaries) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("remove dir %s: %v", dir, err))
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func isBoundary(dir string, boundaries []string) bool {
	clean := filepath.Clean(dir)
	for _, b := range boundaries {
		if clean == filepath.Clean(b) {
			return true
		}
	}
	return false
}

func underBoundary(dir string, boundaries []string) bool {
	clean := filepath.Clean(dir)
	for _, b := range boundaries {
		rel, err := filepath.Rel(filepath.Clean(b), clean)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
