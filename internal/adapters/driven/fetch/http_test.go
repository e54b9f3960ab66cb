package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/internal/adapters/driven/layout"
	"github.com/gridsync/gridsync/internal/core/domain"
)

func fetchDataset() domain.Dataset {
	return domain.Dataset{
		Name:              "sla",
		Namespace:         "ocean",
		Earliest:          domain.NewDate(1993, time.January, 1),
		FileTemplate:      "sla_{date}.nc",
		MinFinalSizeBytes: 16,
		Windows: []domain.TemporalWindow{
			{SourceID: "cmems", Start: domain.NewDate(1993, time.January, 1)},
		},
	}
}

func newFetchFixture(t *testing.T, handler http.HandlerFunc) (*HTTPFetcher, *layout.Layout, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	l := layout.New(t.TempDir())
	sources := map[string]SourceConfig{
		"cmems": {URLTemplate: server.URL + "/{yyyy}/{mm}/{file}", AuthEnv: "TEST_CMEMS_TOKEN"},
	}
	return NewHTTPFetcher(sources, l, nil), l, server
}

func TestFetchAndValidate_Downloads(t *testing.T) {
	payload := []byte("netcdf payload, definitely large enough")
	var gotPath string
	fetcher, l, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(payload)
	})

	ds := fetchDataset()
	d := domain.NewDate(2021, time.October, 5)

	result, err := fetcher.FetchAndValidate(context.Background(), ds, d, "cmems")
	require.NoError(t, err)

	assert.Equal(t, "/2021/10/sla_2021-10-05.nc", gotPath)
	assert.Equal(t, l.RawPath(ds, d), result.RawPath)
	assert.Equal(t, l.FinalPath(ds, d), result.FinalPath)
	assert.Equal(t, int64(len(payload)), result.FinalSizeBytes)

	raw, err := os.ReadFile(result.RawPath)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
	final, err := os.ReadFile(result.FinalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, final)
}

func TestFetchAndValidate_BearerToken(t *testing.T) {
	t.Setenv("TEST_CMEMS_TOKEN", "s3cret")

	var auth string
	fetcher, _, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write(make([]byte, 64))
	})

	_, err := fetcher.FetchAndValidate(context.Background(), fetchDataset(), domain.NewDate(2021, time.October, 5), "cmems")
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", auth)
}

func TestFetchAndValidate_AlreadyPresentIsNoOp(t *testing.T) {
	requests := 0
	fetcher, _, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(make([]byte, 64))
	})

	ds := fetchDataset()
	d := domain.NewDate(2021, time.October, 5)

	first, err := fetcher.FetchAndValidate(context.Background(), ds, d, "cmems")
	require.NoError(t, err)
	require.Equal(t, 1, requests)

	second, err := fetcher.FetchAndValidate(context.Background(), ds, d, "cmems")
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "valid artifact must not be re-downloaded")
	assert.Equal(t, first.FinalPath, second.FinalPath)
	assert.Equal(t, first.FinalSizeBytes, second.FinalSizeBytes)
	assert.Empty(t, second.RawPath, "no-op fetch leaves nothing to reclaim")
}

func TestFetchAndValidate_UpstreamError(t *testing.T) {
	fetcher, _, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	})

	_, err := fetcher.FetchAndValidate(context.Background(), fetchDataset(), domain.NewDate(2021, time.October, 5), "cmems")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchAndValidate_UndersizedFinal(t *testing.T) {
	fetcher, l, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	})

	ds := fetchDataset()
	d := domain.NewDate(2021, time.October, 5)

	_, err := fetcher.FetchAndValidate(context.Background(), ds, d, "cmems")
	require.ErrorIs(t, err, domain.ErrFinalUndersized)
	assert.NoFileExists(t, l.FinalPath(ds, d), "undersized final artifact is removed")
}

func TestFetchAndValidate_UnknownSource(t *testing.T) {
	fetcher, _, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := fetcher.FetchAndValidate(context.Background(), fetchDataset(), domain.NewDate(2021, time.October, 5), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchAndValidate_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	requests := 0
	fetcher, _, _ := newFetchFixture(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "nope", http.StatusBadGateway)
	})

	ds := fetchDataset()
	for i := 0; i < 7; i++ {
		d := domain.NewDate(2021, time.October, 1).AddDays(i)
		_, err := fetcher.FetchAndValidate(context.Background(), ds, d, "cmems")
		require.Error(t, err)
	}

	// After five consecutive failures the breaker stops reaching
	// upstream altogether.
	assert.Equal(t, 5, requests)
}

func TestExpandTemplate(t *testing.T) {
	ds := fetchDataset()
	d := domain.NewDate(1993, time.March, 7)

	url := expandTemplate("https://x.test/{date}/{yyyy}/{mm}/{file}", ds, d)
	assert.Equal(t, "https://x.test/1993-03-07/1993/03/sla_1993-03-07.nc", url)
}
