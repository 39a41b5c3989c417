package colorutils

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// D65 reference white
const (
	WhiteX = 0.95047
	WhiteY = 1.00000
	WhiteZ = 1.08883
)

// CIE transfer function constants
const (
	Epsilon = 0.008856
	Kappa   = 903.3
)

var rgbToXyz = [3][3]float64{
	{0.4124564, 0.3575761, 0.1804375},
	{0.2126729, 0.7151522, 0.0721750},
	{0.0193339, 0.1191920, 0.9503041},
}

var xyzToRgb = [3][3]float64{
	{3.2404542, -1.5371385, -0.4985314},
	{-0.9692660, 1.8760108, 0.0415560},
	{0.0556434, -0.2040259, 1.0572252},
}

// linear8 holds the gamma-decoded value of every 8-bit channel value.
var linear8 [256]float64

func init() {
	for i := range linear8 {
		linear8[i] = ToLinear(float64(i) / 255)
	}
}

// RGB is an 8-bit sRGB colour.
type RGB struct {
	R, G, B uint8
}

// Lab is a CIE L*a*b* colour relative to the D65 white point.
type Lab struct {
	L, A, B float64
}

// XYZ is a CIE XYZ colour with Y normalised to 1 for the reference white.
type XYZ struct {
	X, Y, Z float64
}

// Float returns the channels scaled to [0,1].
func (c RGB) Float() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Lab converts the colour to Lab using the precomputed linearisation table.
func (c RGB) Lab() Lab {
	return XyzToLab(linearToXyz(linear8[c.R], linear8[c.G], linear8[c.B]))
}

// Lightness is Lab().L without the chroma terms.
func (c RGB) Lightness() float64 {
	m := &rgbToXyz
	y := m[1][0]*linear8[c.R] + m[1][1]*linear8[c.G] + m[1][2]*linear8[c.B]
	return 116*labF(y/WhiteY) - 16
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d,%d,%d)", c.R, c.G, c.B)
}

func (c RGB) Colorful() colorful.Color {
	r, g, b := c.Float()
	return colorful.Color{R: r, G: g, B: b}
}

// FromColorful quantises a colorful.Color, clamping out of gamut values.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// ToLinear gamma-decodes one sRGB channel in [0,1].
func ToLinear(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

// FromLinear gamma-encodes one linear channel.
func FromLinear(v float64) float64 {
	if v > 0.0031308 {
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return 12.92 * v
}

func linearToXyz(r, g, b float64) XYZ {
	m := &rgbToXyz
	return XYZ{
		X: m[0][0]*r + m[0][1]*g + m[0][2]*b,
		Y: m[1][0]*r + m[1][1]*g + m[1][2]*b,
		Z: m[2][0]*r + m[2][1]*g + m[2][2]*b,
	}
}

// RgbToXyz converts an sRGB colour with channels in [0,1] to XYZ.
func RgbToXyz(r, g, b float64) XYZ {
	return linearToXyz(ToLinear(r), ToLinear(g), ToLinear(b))
}

func labF(t float64) float64 {
	if t > Epsilon {
		return math.Cbrt(t)
	}
	return (Kappa*t + 16) / 116
}

// XyzToLab converts XYZ to Lab.
func XyzToLab(c XYZ) Lab {
	fx := labF(c.X / WhiteX)
	fy := labF(c.Y / WhiteY)
	fz := labF(c.Z / WhiteZ)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// RgbToLab converts an sRGB colour with channels in [0,1] to Lab.
func RgbToLab(r, g, b float64) Lab {
	return XyzToLab(RgbToXyz(r, g, b))
}

// LabToXyz converts Lab to XYZ.
func LabToXyz(c Lab) XYZ {
	fy := (c.L + 16) / 116
	fx := c.A/500 + fy
	fz := fy - c.B/200

	var xr, yr, zr float64
	if fx3 := fx * fx * fx; fx3 > Epsilon {
		xr = fx3
	} else {
		xr = (116*fx - 16) / Kappa
	}
	if c.L > Kappa*Epsilon {
		yr = fy * fy * fy
	} else {
		yr = c.L / Kappa
	}
	if fz3 := fz * fz * fz; fz3 > Epsilon {
		zr = fz3
	} else {
		zr = (116*fz - 16) / Kappa
	}
	return XYZ{X: xr * WhiteX, Y: yr * WhiteY, Z: zr * WhiteZ}
}

// XyzToRgb converts XYZ to sRGB without clamping. Channels of colours
// outside the sRGB gamut fall outside [0,1].
func XyzToRgb(c XYZ) (r, g, b float64) {
	m := &xyzToRgb
	lr := m[0][0]*c.X + m[0][1]*c.Y + m[0][2]*c.Z
	lg := m[1][0]*c.X + m[1][1]*c.Y + m[1][2]*c.Z
	lb := m[2][0]*c.X + m[2][1]*c.Y + m[2][2]*c.Z
	return FromLinear(lr), FromLinear(lg), FromLinear(lb)
}

// LabToRgb converts Lab to sRGB with channels clamped to [0,1].
func LabToRgb(c Lab) (r, g, b float64) {
	r, g, b = XyzToRgb(LabToXyz(c))
	return clamp01(r), clamp01(g), clamp01(b)
}

// LabToRGB converts Lab to an 8-bit colour, rounding to the nearest value.
func LabToRGB(c Lab) RGB {
	r, g, b := LabToRgb(c)
	return RGB{R: quantize(r), G: quantize(g), B: quantize(b)}
}

// RgbToLabBatch converts src into dst. dst must be at least as long as src.
func RgbToLabBatch(dst []Lab, src []RGB) {
	for i, c := range src {
		dst[i] = c.Lab()
	}
}

// LabToRgbBatch converts src into dst. dst must be at least as long as src.
func LabToRgbBatch(dst []RGB, src []Lab) {
	for i, c := range src {
		dst[i] = LabToRGB(c)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func quantize(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
