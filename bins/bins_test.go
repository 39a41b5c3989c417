package bins

import (
	"math"
	"testing"

	"github.com/brandquad/labtex/colorutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redFixedStepIndex pins the w2c bin of RGB(255,0,0).
const redFixedStepIndex = 29310

func TestFixedStepRed(t *testing.T) {
	lab := colorutils.RGB{R: 255}.Lab()
	s := FixedStep{}

	l, a, b := s.Axes(lab)
	assert.Equal(t, 10, l)
	assert.Equal(t, 37, a)
	assert.Equal(t, 34, b)
	assert.Equal(t, redFixedStepIndex, s.Index(lab))
}

func TestFixedStepClamps(t *testing.T) {
	s := FixedStep{}
	tests := []struct {
		name    string
		in      colorutils.Lab
		l, a, b int
	}{
		{"white", colorutils.Lab{L: 100}, 19, 21, 21},
		{"negative L", colorutils.Lab{L: -3}, 0, 21, 21},
		{"low a b", colorutils.Lab{L: 50, A: -200, B: -106}, 10, 0, 0},
		{"high a b", colorutils.Lab{L: 50, A: 105, B: 300}, 10, 41, 41},
		{"negative floor", colorutils.Lab{L: 4.99, A: -0.1, B: -5}, 0, 20, 20},
		{"nan", colorutils.Lab{L: math.NaN()}, 0, 21, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, a, b := s.Axes(tt.in)
			assert.Equal(t, []int{tt.l, tt.a, tt.b}, []int{l, a, b})
		})
	}
}

func TestCube(t *testing.T) {
	c, err := NewCube(3)
	require.NoError(t, err)
	assert.Equal(t, 27, c.Count())

	tests := []struct {
		name    string
		in      colorutils.Lab
		l, a, b int
	}{
		{"black", colorutils.Lab{}, 0, 1, 1},
		{"white", colorutils.Lab{L: 100}, 2, 1, 1},
		{"lower edge", colorutils.Lab{L: 0, A: -128, B: -128}, 0, 0, 0},
		{"upper edge", colorutils.Lab{L: 100, A: 127, B: 127}, 2, 2, 2},
		{"beyond", colorutils.Lab{L: 150, A: 300, B: -300}, 2, 2, 0},
		{"mixed", colorutils.Lab{L: 34, A: -50, B: 50}, 1, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, a, b := c.Axes(tt.in)
			assert.Equal(t, []int{tt.l, tt.a, tt.b}, []int{l, a, b})
			assert.Equal(t, tt.l+tt.a*3+tt.b*9, c.Index(tt.in))
		})
	}
}

func TestComposeDecompose(t *testing.T) {
	c, err := NewCube(5)
	require.NoError(t, err)

	for _, ix := range []Indexer{c, FixedStep{}} {
		t.Run(ix.Name(), func(t *testing.T) {
			for i := 0; i < ix.Count(); i++ {
				l, a, b := ix.Decompose(i)
				if got := ix.Compose(l, a, b); got != i {
					t.Fatalf("Compose(Decompose(%d)) = %d", i, got)
				}
			}
			dl, da, db := ix.Dims()
			assert.Equal(t, ix.Count(), dl*da*db)
		})
	}
}

func TestNewCubeRejects(t *testing.T) {
	for _, n := range []int{0, -1, 257} {
		_, err := NewCube(n)
		assert.Error(t, err)
	}
}

func TestByName(t *testing.T) {
	ix, err := ByName("cube", 4)
	require.NoError(t, err)
	assert.Equal(t, 64, ix.Count())

	ix, err = ByName("W2C", 0)
	require.NoError(t, err)
	assert.Equal(t, StepCount, ix.Count())
	assert.Equal(t, 35280, ix.Count())

	_, err = ByName("hexagon", 3)
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "L0a3b4", Label(0, 3, 4))
}
