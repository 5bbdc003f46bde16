package mockdata_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/charging-station-etl/internal/adapter/file"
	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	"github.com/couchcryptid/charging-station-etl/internal/mockdata"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := mockdata.Generate(7, 40)
	b := mockdata.Generate(7, 40)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different datasets (-a +b):\n%s", diff)
	}

	c := mockdata.Generate(8, 40)
	assert.NotEqual(t, a.Input(), c.Input())
}

func TestGenerate_EveryStationReported(t *testing.T) {
	ds := mockdata.Generate(1, 100)
	require.Len(t, ds.Stations, 100)
	for _, st := range ds.Stations {
		assert.NotEmpty(t, st.Records, "station %d", st.Index)
	}
}

func TestGenerate_MergesToReportedStations(t *testing.T) {
	ds := mockdata.Generate(42, 150)

	m, err := merge.New(merge.DefaultOptions(), nil)
	require.NoError(t, err)
	res, err := m.Merge(ds.Input())
	require.NoError(t, err)

	assert.Len(t, res.Stations, ds.Reported())
	assert.Len(t, res.Rejections, ds.Invalid)
	assert.Zero(t, res.WideSpreadGroups)
}

func TestWriteFiles_ReadableByFileReader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	ds := mockdata.Generate(3, 20)

	paths, err := mockdata.WriteFiles(dir, ds.Input())
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Contains(t, filepath.Base(p), file.ProcessedSuffix)
	}

	got, err := file.NewReader(dir, slog.New(slog.DiscardHandler)).Extract(t.Context())
	require.NoError(t, err)
	for source, records := range ds.Input() {
		assert.Len(t, got[source], len(records), "source %s", source)
	}
	assert.NotContains(t, got, domain.SourceID(""))
}
