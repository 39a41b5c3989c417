package labtex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brandquad/labtex/assets"
	"github.com/brandquad/labtex/colorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTextureRejectsBadConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "textures")
	for _, method := range []string{"median", "argmax"} {
		_, err := BuildTexture(Config{OutputDir: out, Scheme: "cube", Bins: 3, Method: method, Formats: []Format{FormatBin}})
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "%s: %v", method, err)
	}
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildClassificationMissingMatrix(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "textures")
	_, err := BuildClassification(Config{
		OutputDir:  out,
		MatrixPath: filepath.Join(dir, "w2c39.txt"),
		NamesPath:  filepath.Join(dir, "names.txt"),
		Formats:    []Format{FormatBin},
	})
	var missing *MissingArtifactError
	require.True(t, errors.As(err, &missing))
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildTexture(t *testing.T) {
	if testing.Short() {
		t.Skip("materialises the full texture")
	}
	out := filepath.Join(t.TempDir(), "textures")
	c := Config{
		OutputDir:   out,
		Scheme:      "cube",
		Bins:        2,
		Method:      "brightest",
		Formats:     []Format{FormatBin},
		Step:        8,
		MaxCpuCount: 4,
	}
	m, err := BuildTexture(c)
	require.NoError(t, err)

	assert.Equal(t, PipelineTexture, m.Pipeline)
	assert.Equal(t, 8, m.TotalBins)
	assert.LessOrEqual(t, m.OccupiedBins, 8)
	assert.Equal(t, 32*32*32, m.Points)
	require.NotNil(t, m.Coverage)
	require.NotNil(t, m.Stats)
	assert.True(t, m.HasFile("texture_bins2_brightest.bin"))
	assert.True(t, m.HasFile("texture_bins2_brightest_manifest.json"))

	lut, err := LoadLUT(filepath.Join(out, "texture_bins2_brightest.bin"), 4)
	require.NoError(t, err)
	// representatives plus white for bins the lattice misses
	assert.LessOrEqual(t, m.Stats.UniqueColors, 9)
	assert.Equal(t, m.Stats.UniqueColors, lut.Stats(1).UniqueColors)

	assert.Equal(t, 2, m.Bins)
	meta, err := ReadMetadata(filepath.Join(out, "texture_bins2_brightest.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Bins)

	buff, err := os.ReadFile(filepath.Join(out, "texture_bins2_brightest_manifest.json"))
	require.NoError(t, err)
	var saved Manifest
	require.NoError(t, saved.Scan(buff))
	assert.Equal(t, m.ID, saved.ID)
}

func TestBuildTextureFixedStepRecordsNoBins(t *testing.T) {
	if testing.Short() {
		t.Skip("materialises the full texture")
	}
	out := filepath.Join(t.TempDir(), "textures")
	m, err := BuildTexture(Config{
		OutputDir:   out,
		Scheme:      "w2c",
		Bins:        3,
		Method:      "darkest",
		Formats:     []Format{FormatBin},
		Step:        16,
		MaxCpuCount: 4,
	})
	require.NoError(t, err)
	assert.Zero(t, m.Bins)

	meta, err := ReadMetadata(filepath.Join(out, "texture_w2c_darkest.json"))
	require.NoError(t, err)
	assert.Equal(t, "w2c", meta.Scheme)
	assert.Zero(t, meta.Bins)
}

func TestBuildClassification(t *testing.T) {
	if testing.Short() {
		t.Skip("materialises the full texture")
	}
	dir := t.TempDir()
	matrix := filepath.Join(dir, "w2c39.txt")
	names := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(matrix, []byte(matrixLine(29310, 8, 0.9)+"\n"), DefaultPerm))
	require.NoError(t, os.WriteFile(names, []byte(namesText(assets.Names())), DefaultPerm))

	out := filepath.Join(dir, "textures")
	m, err := BuildClassification(Config{
		OutputDir:   out,
		MatrixPath:  matrix,
		NamesPath:   names,
		Bins:        3,
		Formats:     []Format{FormatBin},
		MaxCpuCount: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, PipelineClassification, m.Pipeline)
	assert.Equal(t, MethodArgmax, m.Method)
	assert.Equal(t, 1, m.OccupiedBins)
	assert.Zero(t, m.Bins)
	assert.True(t, m.HasFile("color_names_w2c_argmax_preview64.bin"))
	assert.True(t, m.HasFile("color_names_w2c_argmax_slice_r128.png"))

	lut, err := LoadLUT(filepath.Join(out, "color_names_w2c_argmax.bin"), 4)
	require.NoError(t, err)
	assert.Equal(t, pureRed, lut.At(pureRed))
	meta, err := ReadMetadata(filepath.Join(out, "color_names_w2c_argmax.json"))
	require.NoError(t, err)
	assert.Zero(t, meta.Bins)
	grey := colorutils.RGB{R: 90, G: 91, B: 92}
	assert.Equal(t, grey, lut.At(grey))
}

func TestBuildReport(t *testing.T) {
	out := t.TempDir()
	p, err := BuildReport(Config{OutputDir: out, Scheme: "cube", Bins: 2, Method: "average", Step: 32, BoxSize: 8})
	require.NoError(t, err)
	assert.Equal(t, "bin_analysis_bins2_average.png", filepath.Base(p))

	img, err := readPng(p)
	require.NoError(t, err)
	assert.True(t, img.Bounds().Dx() > reportLabelWidth)

	_, err = BuildReport(Config{OutputDir: out, Scheme: "w2c", Method: "argmax"})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}
