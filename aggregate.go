package labtex

import (
	"log"
	"time"

	"github.com/brandquad/labtex/colorutils"
)

// Aggregator picks one representative colour for the points of a bin.
type Aggregator interface {
	Method() Method
	// Representative is only called with a non-empty bucket.
	Representative(points []Point) colorutils.RGB
}

// NewAggregator returns the point policy for m. argmax works on
// probability rows, not on points, and is rejected here.
func NewAggregator(m Method) (Aggregator, error) {
	switch m {
	case MethodAverage:
		return averageAggregator{}, nil
	case MethodDarkest:
		return extremeAggregator{method: MethodDarkest}, nil
	case MethodBrightest:
		return extremeAggregator{method: MethodBrightest}, nil
	}
	return nil, invalidConfig("method %q cannot aggregate points: must be one of %v", m, pointMethods)
}

// averageAggregator averages in Lab, not in RGB.
type averageAggregator struct{}

func (averageAggregator) Method() Method {
	return MethodAverage
}

func (averageAggregator) Representative(points []Point) colorutils.RGB {
	var l, a, b float64
	for _, p := range points {
		l += float64(p.Lab[0])
		a += float64(p.Lab[1])
		b += float64(p.Lab[2])
	}
	n := float64(len(points))
	return colorutils.LabToRGB(colorutils.Lab{L: l / n, A: a / n, B: b / n})
}

// extremeAggregator keeps the point with the lowest or highest L, compared in
// double precision. Ties go to the point enumerated first.
type extremeAggregator struct {
	method Method
}

func (e extremeAggregator) Method() Method {
	return e.method
}

func (e extremeAggregator) Representative(points []Point) colorutils.RGB {
	best, bestL := points[0].RGB, points[0].L()
	for _, p := range points[1:] {
		l := p.L()
		if e.method == MethodDarkest && l < bestL ||
			e.method == MethodBrightest && l > bestL {
			best, bestL = p.RGB, l
		}
	}
	return best
}

// Argmax returns the index of the highest probability, the lowest index on
// ties, or -1 for an empty row.
func Argmax(probs []float64) int {
	best := -1
	for i, p := range probs {
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	return best
}

// Palette holds the representative of every occupied bin.
type Palette struct {
	method   Method
	colors   []colorutils.RGB
	occupied []bool
}

func NewPalette(m Method, count int) *Palette {
	return &Palette{
		method:   m,
		colors:   make([]colorutils.RGB, count),
		occupied: make([]bool, count),
	}
}

func (p *Palette) Method() Method {
	return p.method
}

func (p *Palette) Set(bin int, c colorutils.RGB) {
	p.colors[bin] = c
	p.occupied[bin] = true
}

func (p *Palette) Lookup(bin int) (colorutils.RGB, bool) {
	if bin < 0 || bin >= len(p.colors) || !p.occupied[bin] {
		return colorutils.RGB{}, false
	}
	return p.colors[bin], true
}

func (p *Palette) Len() int {
	return len(p.colors)
}

// Occupied returns the bins with a representative, in index order.
func (p *Palette) Occupied() []int {
	var bins []int
	for bin, ok := range p.occupied {
		if ok {
			bins = append(bins, bin)
		}
	}
	return bins
}

// Aggregate computes the representative of every occupied bin.
func Aggregate(b *Buckets, agg Aggregator, workers int) (*Palette, error) {
	st := time.Now()
	occupied := b.Occupied()
	log.Printf("[>] Computing %d representatives using method: %s", len(occupied), agg.Method())
	defer func() {
		log.Printf("[<] Computing representatives, at %s", time.Since(st))
	}()

	palette := NewPalette(agg.Method(), b.Indexer().Count())
	reps := make([]colorutils.RGB, len(occupied))
	err := parallel(workers, len(occupied), func(i int) error {
		reps[i] = agg.Representative(b.Bucket(occupied[i]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, bin := range occupied {
		palette.Set(bin, reps[i])
	}
	return palette, nil
}
