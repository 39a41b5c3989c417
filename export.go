package labtex

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/brandquad/labtex/colorutils"
	"github.com/davidbyttow/govips/v2/vips"
	"github.com/deepteams/webp"
	"github.com/klauspost/compress/zstd"
	"seehuhn.de/go/icc"
)

const (
	atlasGrid = 16
	atlasSide = atlasGrid * lutSide

	sliceDir     = "slices"
	slicePattern = "slice_%03d.png"

	buildStep = "labtex build (or labtex classify for the colour-name texture)"
)

// WriteRaw writes the table as raw row-major bytes. With compress the stream
// goes through zstd and ".zst" is appended to path. It returns the file written.
func WriteRaw(lut *LUT, path string, compress bool) (string, error) {
	return writeBytes(lut.Bytes(), path, compress)
}

func writeBytes(data []byte, path string, compress bool) (string, error) {
	if compress && !strings.HasSuffix(path, ".zst") {
		path += ".zst"
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if !compress {
		if _, err = f.Write(data); err != nil {
			return "", err
		}
		return path, f.Close()
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return "", err
	}
	if _, err = zw.Write(data); err != nil {
		zw.Close()
		return "", err
	}
	if err = zw.Close(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// ReadRaw reads a table written by WriteRaw. Files ending in ".zst" are decompressed.
func ReadRaw(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	data := make([]byte, LUTBytes)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, schemaMismatch("%s: %v", path, err)
	}
	if n, _ := r.Read(make([]byte, 1)); n > 0 {
		return nil, schemaMismatch("%s: more than %d bytes", path, LUTBytes)
	}
	return LUTFromBytes(data)
}

// sliceImage draws the G-B plane of one red value: x is blue, y is green.
func sliceImage(lut *LUT, r uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, lutSide, lutSide))
	drawSlice(img, lut, r, 0, 0)
	return img
}

func drawSlice(img *image.RGBA, lut *LUT, r uint8, x0, y0 int) {
	src := lut.Slice(r)
	for g := 0; g < lutSide; g++ {
		row := img.Pix[img.PixOffset(x0, y0+g):]
		for b := 0; b < lutSide; b++ {
			o := (g*lutSide + b) * lutChannels
			row[b*4] = src[o]
			row[b*4+1] = src[o+1]
			row[b*4+2] = src[o+2]
			row[b*4+3] = 0xff
		}
	}
}

// readSlice copies a decoded G-B plane back into the table.
func readSlice(lut *LUT, img image.Image, r uint8, x0, y0 int) {
	for g := 0; g < lutSide; g++ {
		for b := 0; b < lutSide; b++ {
			c := color.RGBAModel.Convert(img.At(x0+b, y0+g)).(color.RGBA)
			lut.Set(colorutils.RGB{R: r, G: uint8(g), B: uint8(b)}, colorutils.RGB{R: c.R, G: c.G, B: c.B})
		}
	}
}

// WriteSlices writes one 256×256 PNG per red value into dir.
func WriteSlices(lut *LUT, dir string, workers int) error {
	st := time.Now()
	log.Printf("[>] Writing %d PNG slices to %s", lutSide, dir)
	defer func() {
		log.Printf("[<] Writing PNG slices, at %s", time.Since(st))
	}()

	if err := prepareTopFolders(dir); err != nil {
		return err
	}
	return parallel(workers, lutSide, func(r int) error {
		return writePng(sliceImage(lut, uint8(r)), filepath.Join(dir, fmt.Sprintf(slicePattern, r)))
	})
}

// ReadSlices rebuilds the table from a directory written by WriteSlices.
func ReadSlices(dir string, workers int) (*LUT, error) {
	lut := NewLUT()
	err := parallel(workers, lutSide, func(r int) error {
		p := filepath.Join(dir, fmt.Sprintf(slicePattern, r))
		img, err := readPng(p)
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingArtifactError{Path: p, Step: buildStep}
		}
		if err != nil {
			return err
		}
		if b := img.Bounds(); b.Dx() != lutSide || b.Dy() != lutSide {
			return schemaMismatch("%s is %dx%d, want %dx%d", p, b.Dx(), b.Dy(), lutSide, lutSide)
		}
		readSlice(lut, img, uint8(r), img.Bounds().Min.X, img.Bounds().Min.Y)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lut, nil
}

// atlasTile is the top left pixel of the tile of red value r.
func atlasTile(r int) (x, y int) {
	return (r % atlasGrid) * lutSide, (r / atlasGrid) * lutSide
}

// AtlasImage lays the 256 slices out on a 16×16 grid: the slice of red value
// r is the tile (r%16, r/16).
func AtlasImage(lut *LUT) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, atlasSide, atlasSide))
	for r := 0; r < lutSide; r++ {
		x, y := atlasTile(r)
		drawSlice(img, lut, uint8(r), x, y)
	}
	return img
}

// WriteAtlas writes the 4096×4096 PNG atlas. With optimize the PNG is
// recompressed through libvips.
func WriteAtlas(lut *LUT, path string, optimize bool) error {
	st := time.Now()
	log.Printf("[>] Writing PNG atlas %s", path)
	defer func() {
		log.Printf("[<] Writing PNG atlas, at %s", time.Since(st))
	}()

	var buf bytes.Buffer
	if err := png.Encode(&buf, AtlasImage(lut)); err != nil {
		return err
	}
	if !optimize {
		return os.WriteFile(path, buf.Bytes(), DefaultPerm)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return err
	}
	defer ref.Close()
	return toPng(ref, path)
}

// WriteAtlasWebp writes the atlas as lossless WebP tagged with the sRGB profile.
func WriteAtlasWebp(lut *LUT, path string) error {
	st := time.Now()
	log.Printf("[>] Writing WebP atlas %s", path)
	defer func() {
		log.Printf("[<] Writing WebP atlas, at %s", time.Since(st))
	}()

	opts := webp.DefaultOptions()
	opts.Lossless = true
	opts.Exact = true
	opts.ICC = icc.SRGBv4Profile

	var buf bytes.Buffer
	if err := webp.Encode(&buf, AtlasImage(lut), opts); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), DefaultPerm)
}

// ReadAtlas rebuilds the table from a PNG or WebP atlas.
func ReadAtlas(path string) (*LUT, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() != atlasSide || b.Dy() != atlasSide {
		return nil, schemaMismatch("%s is %dx%d, want %dx%d", path, b.Dx(), b.Dy(), atlasSide, atlasSide)
	}
	lut := NewLUT()
	for r := 0; r < lutSide; r++ {
		x, y := atlasTile(r)
		readSlice(lut, img, uint8(r), b.Min.X+x, b.Min.Y+y)
	}
	return lut, nil
}

type gobLUT struct {
	Shape [4]int
	Data  []byte
}

// WriteGob persists the table as a zstd compressed gob stream.
func WriteGob(lut *LUT, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return err
	}
	v := gobLUT{Shape: [4]int{lutSide, lutSide, lutSide, lutChannels}, Data: lut.Bytes()}
	if err = gob.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func ReadGob(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var v gobLUT
	if err = gob.NewDecoder(zr).Decode(&v); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v.Shape != [4]int{lutSide, lutSide, lutSide, lutChannels} {
		return nil, schemaMismatch("%s: shape %v", path, v.Shape)
	}
	return LUTFromBytes(v.Data)
}

// WriteCube samples the table on a size³ grid and writes an Adobe .cube 3D
// LUT. Red varies fastest.
func WriteCube(lut *LUT, path, title string, size int) error {
	if size < 2 || size > lutSide {
		return invalidConfig("cube size %d outside [2, %d]", size, lutSide)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "TITLE %q\n", title)
	fmt.Fprintf(w, "LUT_3D_SIZE %d\n", size)
	fmt.Fprintln(w, "DOMAIN_MIN 0.0 0.0 0.0")
	fmt.Fprintln(w, "DOMAIN_MAX 1.0 1.0 1.0")

	grid := make([]uint8, size)
	for i := range grid {
		grid[i] = uint8((i*255*2 + size - 1) / (2 * (size - 1)))
	}
	for _, b := range grid {
		for _, g := range grid {
			for _, r := range grid {
				c := lut.Lookup(r, g, b).Colorful()
				fmt.Fprintf(w, "%.6f %.6f %.6f\n", c.R, c.G, c.B)
			}
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Export writes every requested format into dir, each with its sidecar,
// and returns the files written.
func Export(lut *LUT, dir, base string, meta Metadata, c Config) ([]string, error) {
	st := time.Now()
	log.Printf("[>] Exporting %s as %v", base, c.Formats)
	defer func() {
		log.Printf("[<] Exporting %s, at %s", base, time.Since(st))
	}()

	if err := prepareTopFolders(dir); err != nil {
		return nil, err
	}

	var files []string
	sidecar := func(artefact string, m Metadata) error {
		p := metadataPath(artefact)
		if err := WriteMetadata(m, p); err != nil {
			return err
		}
		files = append(files, artefact, p)
		return nil
	}

	for _, f := range c.Formats {
		m := meta
		m.Format = f
		switch f {
		case FormatBin:
			p, err := WriteRaw(lut, filepath.Join(dir, base+".bin"), c.Compress)
			if err != nil {
				return nil, err
			}
			m.Shape = []int{lutSide, lutSide, lutSide, lutChannels}
			m.Layout = "r*196608 + g*768 + b*3 + channel"
			if err = sidecar(p, m); err != nil {
				return nil, err
			}
		case FormatSlices:
			p := filepath.Join(dir, base+"_"+sliceDir)
			if err := WriteSlices(lut, p, c.workers()); err != nil {
				return nil, err
			}
			m.Dimensions = []int{lutSide, lutSide}
			m.Layout = "one file per red value, x = blue, y = green"
			if err := WriteMetadata(m, filepath.Join(p, "metadata.json")); err != nil {
				return nil, err
			}
			files = append(files, p)
		case FormatAtlas, FormatWebpAtlas:
			p := filepath.Join(dir, base+"_atlas.png")
			var err error
			if f == FormatAtlas {
				err = WriteAtlas(lut, p, c.OptimizePNG)
			} else {
				p = filepath.Join(dir, base+"_atlas.webp")
				err = WriteAtlasWebp(lut, p)
			}
			if err != nil {
				return nil, err
			}
			m.Dimensions = []int{atlasSide, atlasSide}
			m.TileSize = lutSide
			m.GridSize = atlasGrid
			m.Layout = "tile (r%16, r/16), x = tile_x*256 + b, y = tile_y*256 + g"
			if err = sidecar(p, m); err != nil {
				return nil, err
			}
		case FormatGob:
			p := filepath.Join(dir, base+".gob.zst")
			if err := WriteGob(lut, p); err != nil {
				return nil, err
			}
			m.Shape = []int{lutSide, lutSide, lutSide, lutChannels}
			if err := sidecar(p, m); err != nil {
				return nil, err
			}
		case FormatCube:
			p := filepath.Join(dir, base+".cube")
			if err := WriteCube(lut, p, base, c.cubeSize()); err != nil {
				return nil, err
			}
			m.Shape = []int{c.cubeSize(), c.cubeSize(), c.cubeSize(), lutChannels}
			if err := sidecar(p, m); err != nil {
				return nil, err
			}
		default:
			return nil, invalidConfig("unknown format %q", f)
		}
		log.Printf("[*] Saved %s", f)
	}
	return files, nil
}

// LoadLUT reads a texture written by Export, picking the reader by extension.
// A directory is read as PNG slices.
func LoadLUT(path string, workers int) (*LUT, error) {
	st := time.Now()
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingArtifactError{Path: path, Step: buildStep}
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		log.Printf("Loaded texture %s in %s", path, time.Since(st))
	}()

	name := strings.ToLower(path)
	switch {
	case fi.IsDir():
		return ReadSlices(path, workers)
	case strings.HasSuffix(name, ".gob.zst"):
		return ReadGob(path)
	case strings.HasSuffix(name, ".bin"), strings.HasSuffix(name, ".bin.zst"):
		return ReadRaw(path)
	case strings.HasSuffix(name, ".png"), strings.HasSuffix(name, ".webp"):
		return ReadAtlas(path)
	}
	return nil, invalidConfig("cannot load a texture from %s: want .bin, .bin.zst, .gob.zst, a PNG/WebP atlas or a slice directory", path)
}
