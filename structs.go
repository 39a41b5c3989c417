package labtex

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
)

type Method string
type Format string
type Fallback int

const (
	MethodAverage   Method = "average"
	MethodDarkest   Method = "darkest"
	MethodBrightest Method = "brightest"
	MethodArgmax    Method = "argmax"
)

const (
	FormatBin       Format = "bin"
	FormatSlices    Format = "png_slices"
	FormatAtlas     Format = "png_atlas"
	FormatWebpAtlas Format = "webp_atlas"
	FormatGob       Format = "gob"
	FormatCube      Format = "cube"
	FormatAll       Format = "all"
)

const (
	// FallbackWhite maps points of unoccupied bins to white.
	FallbackWhite Fallback = iota
	// FallbackIdentity passes points of unoccupied bins through unchanged.
	FallbackIdentity
)

var pointMethods = []Method{MethodAverage, MethodDarkest, MethodBrightest}
var allFormats = []Format{FormatBin, FormatSlices, FormatAtlas, FormatWebpAtlas, FormatGob, FormatCube}

const (
	DefaultBatchSize = 100000
	DefaultCubeSize  = 33
	DefaultPerm      = 0644
	DefaultDirPerm   = 0755
)

type Config struct {
	OutputDir   string
	Scheme      string
	Bins        int
	Method      string
	Formats     []Format
	BatchSize   int
	Step        int
	BoxSize     int
	MaxCpuCount int
	MatrixPath  string
	NamesPath   string
	LUTPath     string
	Compress    bool
	CubeSize    int
	OptimizePNG bool
	DebugMode   bool
}

// Point is one sRGB lattice point with its Lab coordinates. Lab is stored in
// single precision; L() recomputes the lightness in double precision.
type Point struct {
	RGB colorutils.RGB
	Lab [3]float32
}

func (p Point) L() float64 {
	return p.RGB.Lightness()
}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodAverage, MethodDarkest, MethodBrightest, MethodArgmax:
		return m, nil
	}
	return "", invalidConfig("unknown method %q: must be 'average', 'darkest', 'brightest' or 'argmax'", s)
}

// ParseFormats parses a comma separated format list. "all" expands to every format.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if Format(f) == FormatAll {
			return allFormats, nil
		}
		if !isFormat(Format(f)) {
			return nil, invalidConfig("unknown format %q", f)
		}
		formats = append(formats, Format(f))
	}
	if len(formats) == 0 {
		return nil, invalidConfig("no output format")
	}
	return formats, nil
}

func isFormat(f Format) bool {
	for _, known := range allFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Validate checks the configuration before any enumeration work starts.
func (c Config) Validate() (bins.Indexer, Method, error) {
	m, err := ParseMethod(c.Method)
	if err != nil {
		return nil, "", err
	}
	ix, err := bins.ByName(c.Scheme, c.Bins)
	if err != nil {
		return nil, "", invalidConfig("%v", err)
	}
	if c.BatchSize < 0 {
		return nil, "", invalidConfig("batch size %d", c.BatchSize)
	}
	if c.Step < 0 || c.Step > 255 {
		return nil, "", invalidConfig("lattice step %d", c.Step)
	}
	if c.CubeSize < 0 || c.CubeSize == 1 {
		return nil, "", invalidConfig("cube size %d", c.CubeSize)
	}
	for _, f := range c.Formats {
		if !isFormat(f) {
			return nil, "", invalidConfig("unknown format %q", f)
		}
	}
	return ix, m, nil
}

func (c Config) workers() int {
	if c.MaxCpuCount < 1 {
		return 1
	}
	return c.MaxCpuCount
}

func (c Config) batchSize() int {
	if c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

func (c Config) step() int {
	if c.Step < 1 {
		return 1
	}
	return c.Step
}

func (c Config) enumerateOptions() EnumerateOptions {
	return EnumerateOptions{
		BatchSize: c.batchSize(),
		Step:      c.step(),
		Workers:   c.workers(),
		Debug:     c.DebugMode,
	}
}

func (c Config) cubeSize() int {
	if c.CubeSize == 0 {
		return DefaultCubeSize
	}
	return c.CubeSize
}

// schemeBins is the per-axis bin count of a cube scheme, 0 for schemes
// with fixed geometry.
func schemeBins(ix bins.Indexer) int {
	if c, ok := ix.(*bins.Cube); ok {
		return c.Bins
	}
	return 0
}

// baseName is the file name stem shared by every artefact of one build.
func baseName(pipeline string, ix bins.Indexer, m Method) string {
	if ix.Name() == bins.SchemeCube {
		l, _, _ := ix.Dims()
		return strings.Join([]string{pipeline, "bins" + strconv.Itoa(l), string(m)}, "_")
	}
	return strings.Join([]string{pipeline, ix.Name(), string(m)}, "_")
}

// recoloredName returns "<base>_recolorized<ext>" for an input image path.
func recoloredName(input string) string {
	ext := path.Ext(input)
	return strings.TrimSuffix(input, ext) + "_recolorized" + ext
}

func stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
