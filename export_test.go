package labtex

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brandquad/labtex/colorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRoundTrip(t *testing.T) {
	lut := randomLUT(1)
	dir := t.TempDir()

	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("compress=%v", compress), func(t *testing.T) {
			p, err := WriteRaw(lut, filepath.Join(dir, "texture.bin"), compress)
			require.NoError(t, err)
			assert.Equal(t, compress, strings.HasSuffix(p, ".bin.zst"))

			got, err := ReadRaw(p)
			require.NoError(t, err)
			assert.True(t, lut.Equal(got))

			got, err = LoadLUT(p, 2)
			require.NoError(t, err)
			assert.True(t, lut.Equal(got))
		})
	}

	fi, err := os.Stat(filepath.Join(dir, "texture.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(LUTBytes), fi.Size())
}

func TestReadRawWrongSize(t *testing.T) {
	p := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(p, make([]byte, 100), DefaultPerm))
	_, err := ReadRaw(p)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	require.NoError(t, os.WriteFile(p, make([]byte, LUTBytes+1), DefaultPerm))
	_, err = ReadRaw(p)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestSlicesRoundTrip(t *testing.T) {
	lut := randomLUT(2)
	dir := filepath.Join(t.TempDir(), "slices")
	require.NoError(t, WriteSlices(lut, dir, 4))

	_, err := os.Stat(filepath.Join(dir, "slice_000.png"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "slice_255.png"))
	require.NoError(t, err)

	img, err := readPng(filepath.Join(dir, "slice_042.png"))
	require.NoError(t, err)
	r, g, b, _ := img.At(7, 9).RGBA()
	want := lut.Lookup(42, 9, 7)
	assert.Equal(t, want, colorutils.RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})

	got, err := LoadLUT(dir, 4)
	require.NoError(t, err)
	assert.True(t, lut.Equal(got))
}

func TestReadSlicesMissing(t *testing.T) {
	lut := randomLUT(3)
	dir := t.TempDir()
	require.NoError(t, WriteSlices(lut, dir, 4))
	require.NoError(t, os.Remove(filepath.Join(dir, "slice_100.png")))

	_, err := ReadSlices(dir, 4)
	var missing *MissingArtifactError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, filepath.Join(dir, "slice_100.png"), missing.Path)
}

func TestAtlasLayout(t *testing.T) {
	lut := randomLUT(4)
	img := AtlasImage(lut)
	require.Equal(t, 4096, img.Bounds().Dx())
	require.Equal(t, 4096, img.Bounds().Dy())

	for _, c := range []colorutils.RGB{{R: 0, G: 0, B: 0}, {R: 17, G: 3, B: 250}, {R: 255, G: 255, B: 255}, {R: 130, G: 64, B: 1}} {
		tx, ty := int(c.R)%16, int(c.R)/16
		o := img.PixOffset(tx*256+int(c.B), ty*256+int(c.G))
		got := colorutils.RGB{R: img.Pix[o], G: img.Pix[o+1], B: img.Pix[o+2]}
		assert.Equal(t, lut.At(c), got, "%s", c)
		assert.Equal(t, uint8(0xff), img.Pix[o+3])
	}
}

func TestAtlasRoundTrip(t *testing.T) {
	lut := randomLUT(5)
	p := filepath.Join(t.TempDir(), "atlas.png")
	require.NoError(t, WriteAtlas(lut, p, false))

	got, err := LoadLUT(p, 1)
	require.NoError(t, err)
	assert.True(t, lut.Equal(got))
}

func TestWebpAtlasRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("lossless WebP encoding of a 4096² image")
	}
	lut := randomLUT(6)
	p := filepath.Join(t.TempDir(), "atlas.webp")
	require.NoError(t, WriteAtlasWebp(lut, p))

	got, err := ReadAtlas(p)
	require.NoError(t, err)
	assert.True(t, lut.Equal(got))
}

func TestReadAtlasWrongSize(t *testing.T) {
	p := filepath.Join(t.TempDir(), "small.png")
	require.NoError(t, writePng(sliceImage(IdentityLUT(), 3), p))
	_, err := ReadAtlas(p)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestGobRoundTrip(t *testing.T) {
	lut := randomLUT(7)
	p := filepath.Join(t.TempDir(), "texture.gob.zst")
	require.NoError(t, WriteGob(lut, p))

	got, err := LoadLUT(p, 1)
	require.NoError(t, err)
	assert.True(t, lut.Equal(got))
}

func TestWriteCube(t *testing.T) {
	p := filepath.Join(t.TempDir(), "identity.cube")
	require.NoError(t, WriteCube(IdentityLUT(), p, "identity", 3))

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())

	require.Len(t, lines, 4+27)
	assert.Equal(t, `TITLE "identity"`, lines[0])
	assert.Equal(t, "LUT_3D_SIZE 3", lines[1])
	assert.Equal(t, "0.000000 0.000000 0.000000", lines[4])
	// red varies fastest: the second entry is (128, 0, 0)
	assert.Equal(t, "0.501961 0.000000 0.000000", lines[5])
	assert.Equal(t, "1.000000 1.000000 1.000000", lines[len(lines)-1])

	assert.True(t, errors.Is(WriteCube(IdentityLUT(), p, "x", 1), ErrInvalidConfiguration))
}

func TestExport(t *testing.T) {
	lut := randomLUT(8)
	dir := filepath.Join(t.TempDir(), "out")
	meta := NewMetadata("cube", 3, MethodAverage, "test texture")
	c := Config{
		Formats:     []Format{FormatBin, FormatAtlas, FormatGob, FormatCube},
		Compress:    true,
		CubeSize:    5,
		MaxCpuCount: 2,
	}

	files, err := Export(lut, dir, "texture_bins3_average", meta, c)
	require.NoError(t, err)

	want := []string{
		"texture_bins3_average.bin.zst", "texture_bins3_average.json",
		"texture_bins3_average_atlas.png", "texture_bins3_average_atlas_png.json",
		"texture_bins3_average.gob.zst", "texture_bins3_average_gob.json",
		"texture_bins3_average.cube", "texture_bins3_average_cube.json",
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	for _, w := range want {
		assert.Contains(t, names, w)
	}

	m, err := ReadMetadata(filepath.Join(dir, "texture_bins3_average_atlas_png.json"))
	require.NoError(t, err)
	assert.Equal(t, FormatAtlas, m.Format)
	assert.Equal(t, meta.ID, m.ID)
	assert.Equal(t, 256, m.TileSize)
	assert.Equal(t, 16, m.GridSize)
	assert.Equal(t, []int{4096, 4096}, m.Dimensions)

	for _, p := range []string{"texture_bins3_average.bin.zst", "texture_bins3_average_atlas.png", "texture_bins3_average.gob.zst"} {
		got, err := LoadLUT(filepath.Join(dir, p), 2)
		require.NoError(t, err, p)
		assert.True(t, lut.Equal(got), p)
	}
}

func TestLoadLUTErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLUT(filepath.Join(dir, "missing.bin"), 1)
	var missing *MissingArtifactError
	require.True(t, errors.As(err, &missing))
	assert.True(t, errors.Is(err, ErrMissingArtifact))
	assert.Contains(t, err.Error(), "missing.bin")
	assert.Contains(t, err.Error(), "labtex build")

	p := filepath.Join(dir, "texture.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), DefaultPerm))
	_, err = LoadLUT(p, 1)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestMetadataPath(t *testing.T) {
	assert.Equal(t, "a/texture.json", metadataPath("a/texture.bin"))
	assert.Equal(t, "a/texture.json", metadataPath("a/texture.bin.zst"))
	assert.Equal(t, "a/x_atlas_webp.json", metadataPath("a/x_atlas.webp"))
	assert.Equal(t, "a/x_gob.json", metadataPath("a/x.gob.zst"))
}
