package labtex

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
	"github.com/google/uuid"
)

const (
	manifestVersion = "1"
	topColors       = 10
	previewStep     = 4
	previewSlice    = 128
)

func newManifest(pipeline string, ix bins.Indexer, n int, m Method) *Manifest {
	return &Manifest{
		Version:   manifestVersion,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Pipeline:  pipeline,
		Scheme:    ix.Name(),
		Bins:      n,
		Method:    m,
		TotalBins: ix.Count(),
	}
}

func logConfig(c Config, ix bins.Indexer, m Method) {
	if c.DebugMode {
		log.Println("DEBUG MODE ON")
	}
	log.Println("Output:", c.OutputDir)
	log.Println("Scheme:", ix.Name(), "bins:", ix.Count())
	log.Println("Method:", m)
	log.Println("Formats:", c.Formats)
	log.Println("Batch size:", c.batchSize(), "workers:", c.workers())
}

// BuildPalette enumerates the lattice and aggregates the representative of
// every occupied bin.
func BuildPalette(ix bins.Indexer, m Method, c Config) (*Buckets, *Palette, error) {
	agg, err := NewAggregator(m)
	if err != nil {
		return nil, nil, err
	}
	buckets, err := Enumerate(ix, c.enumerateOptions())
	if err != nil {
		return nil, nil, err
	}
	palette, err := Aggregate(buckets, agg, c.workers())
	if err != nil {
		return nil, nil, err
	}
	return buckets, palette, nil
}

// BuildTexture runs the Lab binning pipeline: every sRGB colour is replaced by
// the representative of its bin, unreachable bins become white.
func BuildTexture(c Config) (*Manifest, error) {
	st := time.Now()
	ix, m, err := c.Validate()
	if err != nil {
		return nil, err
	}
	if m == MethodArgmax {
		return nil, invalidConfig("method %q needs the colour-name pipeline", m)
	}
	logConfig(c, ix, m)
	if err = prepareTopFolders(c.OutputDir); err != nil {
		return nil, err
	}

	buckets, palette, err := BuildPalette(ix, m, c)
	if err != nil {
		return nil, err
	}
	lut, err := BuildLUT(ix, palette, FallbackWhite, c.workers())
	if err != nil {
		return nil, err
	}

	base := baseName(PipelineTexture, ix, m)
	meta := NewMetadata(ix.Name(), schemeBins(ix), m,
		fmt.Sprintf("Lab binned sRGB texture: %d bins, %s representatives, white for unreachable bins", ix.Count(), m))
	files, err := Export(lut, c.OutputDir, base, meta, c)
	if err != nil {
		return nil, err
	}

	manifest := newManifest(PipelineTexture, ix, schemeBins(ix), m)
	manifest.OccupiedBins = len(palette.Occupied())
	manifest.Points = buckets.Total()
	manifest.Files = files
	coverage, err := GamutCoverage(c.enumerateOptions())
	if err != nil {
		return nil, err
	}
	manifest.Coverage = &coverage
	stats := lut.Stats(topColors)
	manifest.Stats = &stats
	return finishManifest(manifest, c, base, st)
}

// BuildClassification builds the colour-name texture from a w2c probability
// matrix: every sRGB colour becomes the colour of its most probable name.
// Colours whose bin has no matrix row pass through unchanged.
func BuildClassification(c Config) (*Manifest, error) {
	st := time.Now()
	c.Scheme = bins.SchemeW2C
	c.Method = string(MethodArgmax)
	ix, m, err := c.Validate()
	if err != nil {
		return nil, err
	}
	logConfig(c, ix, m)

	classifier, err := LoadClassifier(c.MatrixPath, c.NamesPath)
	if err != nil {
		return nil, err
	}
	if err = prepareTopFolders(c.OutputDir); err != nil {
		return nil, err
	}

	lut, err := BuildLUT(ix, classifier, FallbackIdentity, c.workers())
	if err != nil {
		return nil, err
	}

	base := baseName(PipelineClassification, ix, m)
	meta := NewMetadata(ix.Name(), schemeBins(ix), m,
		fmt.Sprintf("Colour-name texture: RGB of the most probable of %d names, unmapped colours unchanged", NumColorNames))
	files, err := Export(lut, c.OutputDir, base, meta, c)
	if err != nil {
		return nil, err
	}

	preview, err := writePreviews(lut, c.OutputDir, base, c.Compress)
	if err != nil {
		return nil, err
	}
	files = append(files, preview...)

	manifest := newManifest(PipelineClassification, ix, schemeBins(ix), m)
	manifest.OccupiedBins = classifier.matrix.Len()
	manifest.Files = files
	stats := lut.Stats(topColors)
	nameColors(stats.Top, classifier)
	manifest.Stats = &stats
	return finishManifest(manifest, c, base, st)
}

// writePreviews saves the 64³ downsample and the r=128 slice.
func writePreviews(lut *LUT, dir, base string, compress bool) ([]string, error) {
	p, err := writeBytes(lut.Downsample(previewStep), filepath.Join(dir, fmt.Sprintf("%s_preview%d.bin", base, lutSide/previewStep)), compress)
	if err != nil {
		return nil, err
	}
	slice := filepath.Join(dir, fmt.Sprintf("%s_slice_r%d.png", base, previewSlice))
	if err = writePng(sliceImage(lut, previewSlice), slice); err != nil {
		return nil, err
	}
	return []string{p, slice}, nil
}

// nameColors labels every colour that is the representative of a name.
func nameColors(top []ColorCount, cl *Classifier) {
	byColor := make(map[colorutils.RGB]string)
	for i, name := range cl.Names() {
		if _, ok := byColor[cl.colors[i]]; !ok {
			byColor[cl.colors[i]] = name
		}
	}
	for i := range top {
		top[i].Name = byColor[top[i].Color]
	}
}

func finishManifest(manifest *Manifest, c Config, base string, st time.Time) (*Manifest, error) {
	manifest.Elapsed = time.Since(st).String()
	p := filepath.Join(c.OutputDir, base+"_manifest.json")
	if err := manifest.save(p); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, p)
	log.Printf("[*] %s: %d/%d bins occupied (%.1f%%), %d unique colours, total %s",
		base, manifest.OccupiedBins, manifest.TotalBins, manifest.Occupancy(), manifest.Stats.UniqueColors, manifest.Elapsed)
	return manifest, nil
}

// BuildReport draws the bin analysis document of a texture build.
func BuildReport(c Config) (string, error) {
	st := time.Now()
	ix, m, err := c.Validate()
	if err != nil {
		return "", err
	}
	if m == MethodArgmax {
		return "", invalidConfig("method %q has no point representatives", m)
	}
	buckets, palette, err := BuildPalette(ix, m, c)
	if err != nil {
		return "", err
	}
	doc, err := BinReport(buckets, palette, c.BoxSize)
	if err != nil {
		return "", err
	}
	p := filepath.Join(c.OutputDir, baseName("bin_analysis", ix, m)+".png")
	if err = prepareTopFolders(c.OutputDir); err != nil {
		return "", err
	}
	if err = writePng(doc, p); err != nil {
		return "", err
	}
	log.Printf("[*] Bin report %s in %s", p, time.Since(st))
	return p, nil
}
