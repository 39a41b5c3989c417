package labtex

import (
	"log"

	"github.com/brandquad/labtex/assets"
	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
)

// Classification is the most probable colour name of one pixel.
type Classification struct {
	Index       int            `json:"index"`
	Name        string         `json:"name"`
	Probability float64        `json:"probability"`
	Color       colorutils.RGB `json:"-"`
	Hex         string         `json:"hex"`
}

// Classifier answers colour-name queries from a w2c probability matrix.
// Matrix bins use the fixed-step scheme.
type Classifier struct {
	matrix  *Matrix
	names   []string
	colors  []colorutils.RGB
	palette *Palette
	indexer bins.FixedStep
}

// NewClassifier pairs a matrix with its name list and resolves the
// representative colour of every name. Names missing from the colour table
// are drawn black.
func NewClassifier(m *Matrix, names []string) (*Classifier, error) {
	if len(names) != NumColorNames {
		return nil, schemaMismatch("%d colour names, want %d", len(names), NumColorNames)
	}

	c := &Classifier{
		matrix: m,
		names:  names,
		colors: make([]colorutils.RGB, len(names)),
	}
	for i, name := range names {
		col, ok := assets.Lookup(name)
		if !ok {
			log.Printf("[!] No RGB value defined for %q, using black", name)
			continue
		}
		c.colors[i] = colorutils.FromColorful(col)
	}

	c.palette = NewPalette(MethodArgmax, bins.StepCount)
	for bin := 0; bin < bins.StepCount; bin++ {
		if row, ok := m.Row(bin); ok {
			c.palette.Set(bin, c.colors[Argmax(row)])
		}
	}
	return c, nil
}

func (c *Classifier) Names() []string {
	return c.names
}

// Palette holds the colour of the most probable name for every matrix bin.
func (c *Classifier) Palette() *Palette {
	return c.palette
}

func (c *Classifier) Indexer() bins.Indexer {
	return c.indexer
}

// Lookup implements BinTable.
func (c *Classifier) Lookup(bin int) (colorutils.RGB, bool) {
	return c.palette.Lookup(bin)
}

// Probabilities returns the matrix row of the pixel's bin.
func (c *Classifier) Probabilities(rgb colorutils.RGB) ([]float64, bool) {
	return c.matrix.Row(c.indexer.Index(rgb.Lab()))
}

// Classify returns the most probable colour name, or false when the pixel's
// bin has no row.
func (c *Classifier) Classify(rgb colorutils.RGB) (Classification, bool) {
	probs, ok := c.Probabilities(rgb)
	if !ok {
		return Classification{}, false
	}
	i := Argmax(probs)
	return Classification{
		Index:       i,
		Name:        c.names[i],
		Probability: probs[i],
		Color:       c.colors[i],
		Hex:         c.colors[i].Hex(),
	}, true
}

// Apply returns the representative colour of the pixel's most probable name,
// or the pixel itself when its bin has no row.
func (c *Classifier) Apply(rgb colorutils.RGB) colorutils.RGB {
	if cl, ok := c.Classify(rgb); ok {
		return cl.Color
	}
	return rgb
}

// LoadClassifier reads a matrix and its name list.
func LoadClassifier(matrixPath, namesPath string) (*Classifier, error) {
	m, err := LoadMatrix(matrixPath)
	if err != nil {
		return nil, err
	}
	names, err := LoadNames(namesPath)
	if err != nil {
		return nil, err
	}
	return NewClassifier(m, names)
}
