// Package bins partitions Lab space into discrete cells.
//
// The composite index formulas and per-axis bin counts are shared with every
// persisted matrix and texture. Changing them invalidates existing artefacts.
package bins

import (
	"fmt"
	"math"
	"strings"

	"github.com/brandquad/labtex/colorutils"
)

const (
	SchemeCube = "cube"
	SchemeW2C  = "w2c"
)

// Indexer maps a Lab colour to a bin index.
type Indexer interface {
	// Index returns the composite bin index of c.
	Index(c colorutils.Lab) int
	// Axes returns the per-axis bins of c.
	Axes(c colorutils.Lab) (l, a, b int)
	Compose(l, a, b int) int
	Decompose(index int) (l, a, b int)
	// Dims returns the number of bins along L, a and b.
	Dims() (l, a, b int)
	// Count is the total number of bins.
	Count() int
	Name() string
}

// Label returns a human readable bin label like "L0a3b4".
func Label(l, a, b int) string {
	return fmt.Sprintf("L%da%db%d", l, a, b)
}

// ByName returns the indexer for a scheme name. bins is only used by the
// cube scheme.
func ByName(scheme string, bins int) (Indexer, error) {
	switch strings.ToLower(scheme) {
	case SchemeCube:
		return NewCube(bins)
	case SchemeW2C, "fixed":
		return FixedStep{}, nil
	}
	return nil, fmt.Errorf("unknown bin scheme %q", scheme)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorBin floors v and clamps it to [0, n-1]. NaN lands in bin 0.
func floorBin(v float64, offset, n int) int {
	f := math.Floor(v)
	switch {
	case math.IsNaN(f) || f < math.MinInt32:
		return 0
	case f > math.MaxInt32:
		return n - 1
	}
	return clampInt(int(f)+offset, 0, n-1)
}

// Cube splits each Lab axis into Bins equal parts. L is normalised by 1/100,
// a and b by (v+128)/255.
type Cube struct {
	Bins int
}

func NewCube(bins int) (*Cube, error) {
	if bins < 1 || bins > 256 {
		return nil, fmt.Errorf("%d bins per channel is out of range [1, 256]", bins)
	}
	return &Cube{Bins: bins}, nil
}

func (c *Cube) Axes(lab colorutils.Lab) (l, a, b int) {
	n := float64(c.Bins)
	l = floorBin(lab.L/100*n, 0, c.Bins)
	a = floorBin((lab.A+128)/255*n, 0, c.Bins)
	b = floorBin((lab.B+128)/255*n, 0, c.Bins)
	return
}

func (c *Cube) Index(lab colorutils.Lab) int {
	return c.Compose(c.Axes(lab))
}

func (c *Cube) Compose(l, a, b int) int {
	return l + a*c.Bins + b*c.Bins*c.Bins
}

func (c *Cube) Decompose(index int) (l, a, b int) {
	return index % c.Bins, index / c.Bins % c.Bins, index / (c.Bins * c.Bins)
}

func (c *Cube) Dims() (int, int, int) {
	return c.Bins, c.Bins, c.Bins
}

func (c *Cube) Count() int {
	return c.Bins * c.Bins * c.Bins
}

func (c *Cube) Name() string {
	return SchemeCube
}

// Fixed-step scheme geometry, shared with the w2c probability matrices.
const (
	StepSize  = 5
	StepL     = 20
	StepA     = 42
	StepB     = 42
	StepShift = 21
	StepCount = StepL * StepA * StepB
)

// FixedStep uses 5 unit steps: L in [0,100) over 20 bins, a and b in
// [-105,105) over 42 bins each.
type FixedStep struct{}

func (FixedStep) Axes(lab colorutils.Lab) (l, a, b int) {
	l = floorBin(lab.L/StepSize, 0, StepL)
	a = floorBin(lab.A/StepSize, StepShift, StepA)
	b = floorBin(lab.B/StepSize, StepShift, StepB)
	return
}

func (s FixedStep) Index(lab colorutils.Lab) int {
	return s.Compose(s.Axes(lab))
}

func (FixedStep) Compose(l, a, b int) int {
	return l + StepL*a + StepL*StepA*b
}

func (FixedStep) Decompose(index int) (l, a, b int) {
	return index % StepL, index / StepL % StepA, index / (StepL * StepA)
}

func (FixedStep) Dims() (int, int, int) {
	return StepL, StepA, StepB
}

func (FixedStep) Count() int {
	return StepCount
}

func (FixedStep) Name() string {
	return SchemeW2C
}
