package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propmap/internal/domain/temporal"
)

const peaksJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-119.5, 37.7]},
     "properties": {"Entity Name": "A", "PopulationData": {"10": 400, "2": 100}}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-120.1, 38.2]},
     "properties": {"Entity Name": "B", "PopulationData": {"2": 300}}}
  ]
}`

func TestInspectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.geojson")
	require.NoError(t, os.WriteFile(path, []byte(peaksJSON), 0644))

	report, err := inspectFile(path, "PopulationData", 0.0005, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Features)
	require.Len(t, report.Attributes, 2)
	assert.Equal(t, temporal.AttributeKey("2"), report.Attributes[0].Key)
	assert.Equal(t, temporal.AttributeKey("10"), report.Attributes[1].Key)
	assert.Equal(t, temporal.Stats{Min: 100, Mean: 200, Max: 300}, report.Attributes[0].Stats)
	assert.Greater(t, report.Attributes[0].MeanRadius, 0.0)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, temporal.Keys("10"), report.Mismatches[0].Missing)

	var out bytes.Buffer
	require.NoError(t, report.write(&out))
	assert.Contains(t, out.String(), "2 features, 2 attributes")
	assert.Contains(t, out.String(), "missing=[10]")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := inspectFile(filepath.Join(t.TempDir(), "none.geojson"), "PopulationData", 0.0005, zap.NewNop())
	assert.Error(t, err)
}
