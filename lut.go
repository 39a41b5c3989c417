package labtex

import (
	"bytes"
	"log"
	"sort"
	"time"

	"github.com/brandquad/labtex/bins"
	"github.com/brandquad/labtex/colorutils"
)

const (
	lutSide     = 256
	lutChannels = 3
	sliceBytes  = lutSide * lutSide * lutChannels
	// LUTBytes is the size of a dense 256×256×256×3 table.
	LUTBytes = LatticeSize * lutChannels
)

// LUT is a dense lookup texture: one output colour for every 8-bit sRGB
// input, stored row-major as data[r*256*256*3 + g*256*3 + b*3 + channel].
// A finished LUT is read-only and safe for concurrent readers.
type LUT struct {
	data []byte
}

func NewLUT() *LUT {
	return &LUT{data: make([]byte, LUTBytes)}
}

// IdentityLUT maps every colour to itself.
func IdentityLUT() *LUT {
	l := NewLUT()
	for k := 0; k < LatticeSize; k++ {
		l.data[k*3] = uint8(k >> 16)
		l.data[k*3+1] = uint8(k >> 8)
		l.data[k*3+2] = uint8(k)
	}
	return l
}

// LUTFromBytes wraps a raw row-major table without copying it.
func LUTFromBytes(data []byte) (*LUT, error) {
	if len(data) != LUTBytes {
		return nil, schemaMismatch("LUT has %d bytes, want %d (256×256×256×3)", len(data), LUTBytes)
	}
	return &LUT{data: data}, nil
}

func lutOffset(r, g, b uint8) int {
	return int(r)*sliceBytes + int(g)*lutSide*lutChannels + int(b)*lutChannels
}

func (l *LUT) Lookup(r, g, b uint8) colorutils.RGB {
	o := lutOffset(r, g, b)
	return colorutils.RGB{R: l.data[o], G: l.data[o+1], B: l.data[o+2]}
}

func (l *LUT) At(c colorutils.RGB) colorutils.RGB {
	return l.Lookup(c.R, c.G, c.B)
}

func (l *LUT) Set(in, out colorutils.RGB) {
	o := lutOffset(in.R, in.G, in.B)
	l.data[o], l.data[o+1], l.data[o+2] = out.R, out.G, out.B
}

// Bytes returns the underlying table.
func (l *LUT) Bytes() []byte {
	return l.data
}

// Slice returns the 256×256 G-B plane for one red value.
func (l *LUT) Slice(r uint8) []byte {
	o := int(r) * sliceBytes
	return l.data[o : o+sliceBytes]
}

func (l *LUT) Equal(o *LUT) bool {
	return bytes.Equal(l.data, o.data)
}

// BinTable yields the output colour of a bin.
type BinTable interface {
	Lookup(bin int) (colorutils.RGB, bool)
}

// BuildLUT walks the whole lattice again, indexes every point with ix and
// stores the bin's colour from table. Points of bins missing from the table
// take the fallback.
func BuildLUT(ix bins.Indexer, table BinTable, fallback Fallback, workers int) (*LUT, error) {
	st := time.Now()
	log.Println("[>] Building RGB-indexed texture (256×256×256×3)")
	defer func() {
		log.Printf("[<] Building RGB-indexed texture, at %s", time.Since(st))
	}()

	white := colorutils.RGB{R: 255, G: 255, B: 255}
	lut := NewLUT()
	err := parallel(workers, lutSide, func(r int) error {
		for g := 0; g < lutSide; g++ {
			for b := 0; b < lutSide; b++ {
				in := colorutils.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
				out, ok := table.Lookup(ix.Index(in.Lab()))
				if !ok {
					if fallback == FallbackIdentity {
						out = in
					} else {
						out = white
					}
				}
				lut.Set(in, out)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lut, nil
}

// Downsample keeps every step-th value on each input axis, giving a smaller
// preview table in the same row-major layout.
func (l *LUT) Downsample(step int) []byte {
	lat := newLattice(step)
	out := make([]byte, 0, lat.Len()*lutChannels)
	for k := 0; k < lat.Len(); k++ {
		c := l.At(lat.At(k))
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

type ColorCount struct {
	Color colorutils.RGB `json:"-"`
	Hex   string         `json:"hex"`
	Name  string         `json:"name,omitempty"`
	Count int            `json:"count"`
}

type LUTStats struct {
	UniqueColors int          `json:"unique_colors"`
	Top          []ColorCount `json:"top"`
}

// Stats counts the distinct output colours of the whole table and the most
// frequent ones over a 64³ sample.
func (l *LUT) Stats(top int) LUTStats {
	seen := make([]uint64, LatticeSize/64)
	unique := 0
	for o := 0; o < len(l.data); o += lutChannels {
		k := int(l.data[o])<<16 | int(l.data[o+1])<<8 | int(l.data[o+2])
		if seen[k/64]&(1<<(k%64)) == 0 {
			seen[k/64] |= 1 << (k % 64)
			unique++
		}
	}

	counts := make(map[colorutils.RGB]int)
	lat := newLattice(4)
	for k := 0; k < lat.Len(); k++ {
		counts[l.At(lat.At(k))]++
	}
	ranked := make([]ColorCount, 0, len(counts))
	for c, n := range counts {
		ranked = append(ranked, ColorCount{Color: c, Hex: c.Hex(), Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Hex < ranked[j].Hex
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return LUTStats{UniqueColors: unique, Top: ranked}
}
