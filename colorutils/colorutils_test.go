package colorutils

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/icc"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		r, g, b := rng.Float64(), rng.Float64(), rng.Float64()
		r2, g2, b2 := LabToRgb(RgbToLab(r, g, b))
		if math.Abs(r-r2) > 1e-3 || math.Abs(g-g2) > 1e-3 || math.Abs(b-b2) > 1e-3 {
			t.Fatalf("round trip (%f, %f, %f) -> (%f, %f, %f)", r, g, b, r2, g2, b2)
		}
	}
}

func TestRoundTrip8(t *testing.T) {
	for v := 0; v < 256; v++ {
		for _, c := range []RGB{
			{R: uint8(v)},
			{G: uint8(v)},
			{B: uint8(v)},
			{R: uint8(v), G: uint8(255 - v), B: uint8(v / 2)},
		} {
			require.Equal(t, c, LabToRGB(c.Lab()))
		}
	}
}

func TestKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want Lab
	}{
		{"black", RGB{0, 0, 0}, Lab{0, 0, 0}},
		{"white", RGB{255, 255, 255}, Lab{100, 0, 0}},
		{"red", RGB{255, 0, 0}, Lab{53.24, 80.09, 67.20}},
		{"green", RGB{0, 255, 0}, Lab{87.73, -86.18, 83.18}},
		{"blue", RGB{0, 0, 255}, Lab{32.30, 79.19, -107.86}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Lab()
			assert.InDelta(t, tt.want.L, got.L, 0.05)
			assert.InDelta(t, tt.want.A, got.A, 0.05)
			assert.InDelta(t, tt.want.B, got.B, 0.05)
		})
	}
}

func TestLabTableMatchesFloatPath(t *testing.T) {
	for v := 0; v < 256; v += 5 {
		c := RGB{R: uint8(v), G: uint8(255 - v), B: uint8(v * 7 % 256)}
		r, g, b := c.Float()
		assert.Equal(t, RgbToLab(r, g, b), c.Lab())
	}
}

func TestMatchesColorful(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		c := RGB{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
		l, a, b := c.Colorful().Lab()
		got := c.Lab()
		assert.InDelta(t, l*100, got.L, 0.05, "L of %s", c)
		assert.InDelta(t, a*100, got.A, 0.05, "a of %s", c)
		assert.InDelta(t, b*100, got.B, 0.05, "b of %s", c)
	}
}

func TestNeutralLightnessMatchesICCProfile(t *testing.T) {
	p, err := icc.Decode(icc.SRGBv4Profile)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	tr, err := icc.NewTransform(p, icc.DeviceToPCS, icc.Perceptual)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	for v := 0; v < 256; v += 15 {
		f := float64(v) / 255
		_, y, _ := tr.ToXYZ([]float64{f, f, f})
		want := XyzToLab(XYZ{X: WhiteX, Y: y, Z: WhiteZ}).L
		got := RGB{uint8(v), uint8(v), uint8(v)}.Lab()
		if math.Abs(got.L-want) > 0.5 {
			t.Errorf("L(%d) = %f, profile gives %f", v, got.L, want)
		}
		assert.InDelta(t, 0, got.A, 1e-3)
		assert.InDelta(t, 0, got.B, 1e-3)
	}
}

func TestOutOfGamutClamps(t *testing.T) {
	for _, c := range []Lab{
		{L: 50, A: 127, B: 127},
		{L: 100, A: -128, B: -128},
		{L: 0, A: 127, B: -128},
		{L: 120, A: 0, B: 0},
	} {
		r, g, b := LabToRgb(c)
		for _, v := range []float64{r, g, b} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	r, _, _ := XyzToRgb(LabToXyz(Lab{L: 50, A: 127, B: 0}))
	assert.Greater(t, r, 1.0)
}

func TestBatch(t *testing.T) {
	src := []RGB{{10, 10, 10}, {200, 200, 200}, {255, 0, 0}}
	labs := make([]Lab, len(src))
	RgbToLabBatch(labs, src)
	for i, c := range src {
		assert.Equal(t, c.Lab(), labs[i])
	}

	back := make([]RGB, len(labs))
	LabToRgbBatch(back, labs)
	assert.Equal(t, src, back)
}

func TestHex(t *testing.T) {
	c := RGB{R: 139, G: 69, B: 19}
	assert.Equal(t, "#8b4513", c.Hex())
	assert.Equal(t, c, FromColorful(c.Colorful()))
}
