package labtex

import (
	"log"
	"math"
	"math/bits"
	"sync/atomic"
	"time"

	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
)

// LatticeSize is the number of points in the full 8-bit sRGB gamut.
const LatticeSize = 256 * 256 * 256

// maxCursorCells bounds the per-batch histograms used for the parallel scatter.
const maxCursorCells = 1 << 24

type EnumerateOptions struct {
	// BatchSize is the number of lattice points per task.
	BatchSize int
	// Step subsamples the lattice: every Step-th value on each channel.
	Step    int
	Workers int
	Debug   bool
}

// lattice walks the sRGB cube R first, then G, then B.
type lattice struct {
	step, side int
}

func newLattice(step int) lattice {
	if step < 1 {
		step = 1
	}
	return lattice{step: step, side: 255/step + 1}
}

func (l lattice) Len() int {
	return l.side * l.side * l.side
}

func (l lattice) At(k int) colorutils.RGB {
	return colorutils.RGB{
		R: uint8(k / (l.side * l.side) * l.step),
		G: uint8(k / l.side % l.side * l.step),
		B: uint8(k % l.side * l.step),
	}
}

type batchRange struct {
	start, end int
}

func splitBatches(total, size int) []batchRange {
	if size < 1 {
		size = DefaultBatchSize
	}
	ranges := make([]batchRange, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		ranges = append(ranges, batchRange{start: start, end: min(start+size, total)})
	}
	return ranges
}

// Buckets groups lattice points by bin. Points of one bin are stored
// contiguously in enumeration order.
type Buckets struct {
	indexer bins.Indexer
	step    int
	points  []Point
	offsets []int
}

func (b *Buckets) Indexer() bins.Indexer {
	return b.indexer
}

func (b *Buckets) Step() int {
	return b.step
}

// Bucket returns the points of a bin. The slice must not be modified.
func (b *Buckets) Bucket(bin int) []Point {
	return b.points[b.offsets[bin]:b.offsets[bin+1]]
}

func (b *Buckets) Len(bin int) int {
	return b.offsets[bin+1] - b.offsets[bin]
}

// Total is the number of enumerated points.
func (b *Buckets) Total() int {
	return len(b.points)
}

// Occupied returns the bins holding at least one point, in index order.
func (b *Buckets) Occupied() []int {
	var occupied []int
	for bin := 0; bin < b.indexer.Count(); bin++ {
		if b.Len(bin) > 0 {
			occupied = append(occupied, bin)
		}
	}
	return occupied
}

func newPoint(c colorutils.RGB) Point {
	lab := c.Lab()
	return Point{RGB: c, Lab: [3]float32{float32(lab.L), float32(lab.A), float32(lab.B)}}
}

// Enumerate assigns every point of the sRGB lattice to its bin.
//
// The first pass computes bin indices batch by batch; a prefix sum over the
// bin sizes then gives each bin its slot in one flat slice, and the second
// pass writes the points there. Batch size and worker count do not change
// the result.
func Enumerate(ix bins.Indexer, opts EnumerateOptions) (*Buckets, error) {
	st := time.Now()
	lat := newLattice(opts.Step)
	total := lat.Len()
	batches := splitBatches(total, opts.BatchSize)

	log.Printf("[>] Enumerate %d sRGB points in %d batches (%s, %d bins)", total, len(batches), ix.Name(), ix.Count())
	defer func() {
		log.Printf("[<] Enumerate %d sRGB points, at %s", total, time.Since(st))
	}()

	count := ix.Count()
	binOf := make([]int32, total)

	var cursors [][]int32
	if len(batches)*count <= maxCursorCells {
		cursors = make([][]int32, len(batches))
	}

	var done atomic.Int64
	err := parallel(opts.Workers, len(batches), func(i int) error {
		r := batches[i]
		var hist []int32
		if cursors != nil {
			hist = make([]int32, count)
			cursors[i] = hist
		}
		for k := r.start; k < r.end; k++ {
			bin := ix.Index(lat.At(k).Lab())
			binOf[k] = int32(bin)
			if hist != nil {
				hist[bin]++
			}
		}
		if n := done.Add(1); opts.Debug && (n%10 == 0 || int(n) == len(batches)) {
			log.Printf("  Processed batch %d/%d", n, len(batches))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sizes := make([]int, count)
	for _, bin := range binOf {
		sizes[bin]++
	}
	offsets := make([]int, count+1)
	for bin, n := range sizes {
		offsets[bin+1] = offsets[bin] + n
	}

	buckets := &Buckets{
		indexer: ix,
		step:    lat.step,
		points:  make([]Point, total),
		offsets: offsets,
	}

	if cursors == nil {
		next := make([]int, count)
		copy(next, offsets[:count])
		for k, bin := range binOf {
			buckets.points[next[bin]] = newPoint(lat.At(k))
			next[bin]++
		}
	} else {
		// turn per-batch histograms into per-batch write cursors
		running := make([]int32, count)
		for bin := range running {
			running[bin] = int32(offsets[bin])
		}
		for _, hist := range cursors {
			for bin, n := range hist {
				hist[bin] = running[bin]
				running[bin] += n
			}
		}
		err = parallel(opts.Workers, len(batches), func(i int) error {
			r, next := batches[i], cursors[i]
			for k := r.start; k < r.end; k++ {
				bin := binOf[k]
				buckets.points[next[bin]] = newPoint(lat.At(k))
				next[bin]++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	occupied := 0
	for _, n := range sizes {
		if n > 0 {
			occupied++
		}
	}
	log.Printf("Occupied bins: %d/%d (%.1f%%)", occupied, count, 100*float64(occupied)/float64(count))
	return buckets, nil
}

// Lab grid used to measure how much of Lab space the sRGB gamut reaches.
const (
	coverageL    = 101
	coverageAB   = 256
	coverageGrid = coverageL * coverageAB * coverageAB
)

type Coverage struct {
	Occupied int     `json:"occupied"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// GamutCoverage counts the integer Lab grid points (L in [0,100], a and b in
// [-128,127]) that some sRGB lattice point rounds to.
func GamutCoverage(opts EnumerateOptions) (Coverage, error) {
	st := time.Now()
	log.Println("[>] Checking sRGB gamut coverage of Lab space")
	defer func() {
		log.Printf("[<] Checking sRGB gamut coverage, at %s", time.Since(st))
	}()

	lat := newLattice(opts.Step)
	batches := splitBatches(lat.Len(), opts.BatchSize)
	grid := make([]uint32, (coverageGrid+31)/32)

	err := parallel(opts.Workers, len(batches), func(i int) error {
		for k := batches[i].start; k < batches[i].end; k++ {
			lab := lat.At(k).Lab()
			l := clampRound(lab.L, 0, 100)
			a := clampRound(lab.A, -128, 127) + 128
			b := clampRound(lab.B, -128, 127) + 128
			cell := (l*coverageAB+a)*coverageAB + b
			atomic.OrUint32(&grid[cell/32], 1<<(cell%32))
		}
		return nil
	})
	if err != nil {
		return Coverage{}, err
	}

	occupied := 0
	for _, w := range grid {
		occupied += bits.OnesCount32(w)
	}
	c := Coverage{
		Occupied: occupied,
		Total:    coverageGrid,
		Percent:  100 * float64(occupied) / float64(coverageGrid),
	}
	log.Printf("Occupied Lab grid points: %d/%d (%.1f%%)", c.Occupied, c.Total, c.Percent)
	return c, nil
}

func clampRound(v float64, lo, hi int) int {
	r := math.RoundToEven(v)
	if r < float64(lo) {
		return lo
	}
	if r > float64(hi) {
		return hi
	}
	return int(r)
}
