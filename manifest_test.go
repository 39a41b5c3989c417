package labtex

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestScanValue(t *testing.T) {
	m := Manifest{
		Version:      manifestVersion,
		ID:           "b7f3",
		Pipeline:     PipelineTexture,
		Scheme:       "cube",
		Bins:         3,
		Method:       MethodAverage,
		OccupiedBins: 20,
		TotalBins:    27,
		Coverage:     &Coverage{Occupied: 10, Total: 20, Percent: 50},
		Files:        []string{"out/texture_bins3_average.bin"},
		Stats:        &LUTStats{UniqueColors: 20, Top: []ColorCount{{Hex: "#ffffff", Count: 5}}},
	}
	v, err := m.Value()
	require.NoError(t, err)

	var back Manifest
	require.NoError(t, back.Scan(v))
	if diff := cmp.Diff(m, back); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 74.07, back.Occupancy(), 0.01)
	assert.True(t, back.HasFile("texture_bins3_average.bin"))
	assert.False(t, back.HasFile("texture_bins3_average.cube"))
}

func TestJsonScan(t *testing.T) {
	m := Manifest{ID: "kept"}
	require.NoError(t, jsonScan(nil, &m))
	require.NoError(t, jsonScan("null", &m))
	require.NoError(t, jsonScan([]byte{}, &m))
	assert.Equal(t, "kept", m.ID)

	require.NoError(t, jsonScan(json.RawMessage(`{"id":"x","pipeline":"color_names"}`), &m))
	assert.Equal(t, "x", m.ID)
	assert.Equal(t, PipelineClassification, m.Pipeline)

	assert.Error(t, jsonScan(42, &m))
	assert.Error(t, jsonScan(`{"id":`, &m))
}

func TestManifestOccupancyEmpty(t *testing.T) {
	assert.Zero(t, (&Manifest{}).Occupancy())
}
