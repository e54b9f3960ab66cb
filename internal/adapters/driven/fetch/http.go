// Package fetch implements the Fetcher port over plain HTTP(S).
//
// Provider differences are configuration data, not code: each source
// contributes a URL template, an optional bearer-token env var, a
// throttle rate and a timeout. Numeric processing of the downloaded
// artifact is delegated to a pluggable Processor.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
	"github.com/gridsync/gridsync/internal/logger"
)

// Ensure HTTPFetcher implements the interface.
var _ driven.Fetcher = (*HTTPFetcher)(nil)

// DefaultTimeout bounds a single download when the source does not
// configure one.
const DefaultTimeout = 2 * time.Minute

// SourceConfig is what the fetcher needs to know about one provider.
type SourceConfig struct {
	// URLTemplate is the download URL with {date}, {yyyy}, {mm} and
	// {file} placeholders.
	URLTemplate string

	// AuthEnv names the environment variable holding a bearer token.
	AuthEnv string

	// RequestsPerMinute throttles calls. Zero disables the throttle.
	RequestsPerMinute float64

	// Timeout bounds a single download.
	Timeout time.Duration
}

// Processor turns a raw artifact into the final derived artifact.
// The core treats the output opaquely; implementations own any
// coordinate or masking transforms.
type Processor interface {
	// Process writes the final artifact and returns its size.
	Process(ctx context.Context, rawPath, finalPath string) (int64, error)
}

// CopyProcessor is the identity Processor: the final artifact is a
// byte copy of the raw one.
type CopyProcessor struct{}

// Process copies rawPath to finalPath.
func (CopyProcessor) Process(_ context.Context, rawPath, finalPath string) (int64, error) {
	src, err := os.Open(rawPath)
	if err != nil {
		return 0, fmt.Errorf("opening raw artifact: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating final directory: %w", err)
	}
	dst, err := os.Create(finalPath)
	if err != nil {
		return 0, fmt.Errorf("creating final artifact: %w", err)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(finalPath)
		return 0, fmt.Errorf("writing final artifact: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(finalPath)
		return 0, fmt.Errorf("closing final artifact: %w", err)
	}
	return n, nil
}

// HTTPFetcher downloads one date per call, sequentially, with
// per-source throttling and a circuit breaker that stops hammering a
// provider that keeps failing.
type HTTPFetcher struct {
	sources   map[string]SourceConfig
	layout    driven.ArchiveLayout
	processor Processor
	client    *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewHTTPFetcher creates a fetcher for the given sources. A nil
// processor defaults to CopyProcessor.
func NewHTTPFetcher(sources map[string]SourceConfig, archiveLayout driven.ArchiveLayout, processor Processor) *HTTPFetcher {
	if processor == nil {
		processor = CopyProcessor{}
	}
	return &HTTPFetcher{
		sources:   sources,
		layout:    archiveLayout,
		processor: processor,
		client:    &http.Client{},
		limiters:  make(map[string]*rate.Limiter),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// FetchAndValidate downloads, processes and validates one date.
// Re-invoking for an already-valid date is a cheap no-op.
func (f *HTTPFetcher) FetchAndValidate(ctx context.Context, dataset domain.Dataset, date domain.Date, sourceID string) (*driven.FetchResult, error) {
	finalPath := f.layout.FinalPath(dataset, date)
	if f.layout.Probe(dataset, date) == domain.PresencePresent {
		info, err := os.Stat(finalPath)
		if err != nil {
			return nil, fmt.Errorf("stat final artifact: %w", err)
		}
		logger.Debug("Already valid: %s", finalPath)
		return &driven.FetchResult{FinalPath: finalPath, FinalSizeBytes: info.Size()}, nil
	}

	src, ok := f.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, sourceID)
	}

	if limiter := f.limiter(sourceID, src); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	rawPath := f.layout.RawPath(dataset, date)
	_, err := f.breaker(sourceID).Execute(func() (any, error) {
		return nil, f.download(ctx, src, dataset, date, rawPath)
	})
	if err != nil {
		return nil, err
	}

	finalSize, err := f.processor.Process(ctx, rawPath, finalPath)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", rawPath, err)
	}
	if finalSize < dataset.MinFinalSizeBytes {
		os.Remove(finalPath)
		return nil, fmt.Errorf("%w: %s is %d bytes, need %d",
			domain.ErrFinalUndersized, finalPath, finalSize, dataset.MinFinalSizeBytes)
	}

	return &driven.FetchResult{
		RawPath:        rawPath,
		FinalPath:      finalPath,
		FinalSizeBytes: finalSize,
	}, nil
}

// download streams the source URL to rawPath via a temp file.
func (f *HTTPFetcher) download(ctx context.Context, src SourceConfig, dataset domain.Dataset, date domain.Date, rawPath string) error {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := expandTemplate(src.URLTemplate, dataset, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if src.AuthEnv != "" {
		if token := os.Getenv(src.AuthEnv); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger.Debug("GET %s", url)
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(rawPath), 0o755); err != nil {
		return fmt.Errorf("creating raw directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(rawPath), ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", rawPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", rawPath, err)
	}
	if err := os.Rename(tmpPath, rawPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("placing %s: %w", rawPath, err)
	}
	return nil
}

// limiter returns the per-source rate limiter, or nil when the source
// is unthrottled.
func (f *HTTPFetcher) limiter(sourceID string, src SourceConfig) *rate.Limiter {
	if src.RequestsPerMinute <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[sourceID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(src.RequestsPerMinute/60), 1)
		f.limiters[sourceID] = l
	}
	return l
}

// breaker returns the per-source circuit breaker.
func (f *HTTPFetcher) breaker(sourceID string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.breakers[sourceID]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    sourceID,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
		f.breakers[sourceID] = b
	}
	return b
}

// expandTemplate substitutes the URL placeholders for one unit.
func expandTemplate(template string, dataset domain.Dataset, date domain.Date) string {
	url := template
	url = strings.ReplaceAll(url, "{date}", date.String())
	url = strings.ReplaceAll(url, "{yyyy}", fmt.Sprintf("%04d", date.Year))
	url = strings.ReplaceAll(url, "{mm}", fmt.Sprintf("%02d", int(date.Month)))
	url = strings.ReplaceAll(url, "{file}", dataset.ArtifactFile(date))
	return url
}
