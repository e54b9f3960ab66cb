package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsync/gridsync/internal/core/domain"
)

func testDataset() domain.Dataset {
	return domain.Dataset{
		Name:              "sla",
		Namespace:         "ocean",
		Earliest:          domain.NewDate(1993, time.January, 1),
		FileTemplate:      "sla_{date}.nc",
		MinFinalSizeBytes: 1024,
		Windows: []domain.TemporalWindow{
			{SourceID: "A", Start: domain.NewDate(1993, time.January, 1)},
		},
	}
}

func TestLayout_PathContract(t *testing.T) {
	l := New("/archive")
	ds := testDataset()
	d := domain.NewDate(2021, time.October, 5)

	assert.Equal(t,
		filepath.Join("/archive", "raw", "sla", "2021", "10", "sla_2021-10-05.nc"),
		l.RawPath(ds, d))
	assert.Equal(t,
		filepath.Join("/archive", "processed", "ocean", "sla", "2021", "10", "sla_2021-10-05.nc"),
		l.FinalPath(ds, d))
}

func TestLayout_DatasetRoots(t *testing.T) {
	l := New("/archive")
	roots := l.DatasetRoots(testDataset())

	assert.Equal(t, []string{
		filepath.Join("/archive", "raw", "sla"),
		filepath.Join("/archive", "processed", "ocean", "sla"),
	}, roots)
}

func TestLayout_Ensure(t *testing.T) {
	base := t.TempDir()
	l := New(base)

	require.NoError(t, l.Ensure(testDataset()))
	assert.DirExists(t, filepath.Join(base, "raw", "sla"))
	assert.DirExists(t, filepath.Join(base, "processed", "ocean", "sla"))

	// Idempotent.
	require.NoError(t, l.Ensure(testDataset()))
}

func TestLayout_Probe(t *testing.T) {
	base := t.TempDir()
	l := New(base)
	ds := testDataset()
	d := domain.NewDate(2021, time.October, 5)

	assert.Equal(t, domain.PresenceMissing, l.Probe(ds, d))

	final := l.FinalPath(ds, d)
	require.NoError(t, os.MkdirAll(filepath.Dir(final), 0o755))

	// Below the minimum size the artifact counts as invalid.
	require.NoError(t, os.WriteFile(final, make([]byte, 512), 0o644))
	assert.Equal(t, domain.PresenceInvalid, l.Probe(ds, d))

	require.NoError(t, os.WriteFile(final, make([]byte, 2048), 0o644))
	assert.Equal(t, domain.PresencePresent, l.Probe(ds, d))
}
