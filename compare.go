package labtex

import (
	"image"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	labelHeight = 28
	labelSize   = 16
	comparePad  = 8
)

var (
	paperColor = colorful.Color{R: 1, G: 1, B: 1}
	inkColor   = colorful.Color{R: 0.1, G: 0.1, B: 0.1}
)

func labelFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawLabel writes text with its baseline at (x, y).
func drawLabel(dst draw.Image, face font.Face, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(inkColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// scaleToHeight resizes img to height pixels, keeping its aspect ratio.
func scaleToHeight(img image.Image, height int) image.Image {
	b := img.Bounds()
	if b.Dy() == height || b.Dy() == 0 {
		return img
	}
	w := max(1, b.Dx()*height/b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// CompareImages puts the original and the recoloured image side by side,
// both scaled to height, with a caption above each.
func CompareImages(original, recolored image.Image, height int) (*image.RGBA, error) {
	if height < 1 {
		height = original.Bounds().Dy()
	}
	left := scaleToHeight(original, height)
	right := scaleToHeight(recolored, height)
	lw, rw := left.Bounds().Dx(), right.Bounds().Dx()

	out := fillImage(lw+rw+3*comparePad, height+labelHeight+2*comparePad, paperColor)
	draw.Draw(out, image.Rect(comparePad, labelHeight+comparePad, comparePad+lw, labelHeight+comparePad+height),
		left, left.Bounds().Min, draw.Src)
	x := 2*comparePad + lw
	draw.Draw(out, image.Rect(x, labelHeight+comparePad, x+rw, labelHeight+comparePad+height),
		right, right.Bounds().Min, draw.Src)

	face, err := labelFace(labelSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	drawLabel(out, face, comparePad, labelHeight, "Original")
	drawLabel(out, face, x, labelHeight, "Recolorized")
	return out, nil
}

// CompareFiles writes the side by side comparison of two image files.
func CompareFiles(original, recolored, output string, height int) error {
	a, err := decodeFile(original)
	if err != nil {
		return err
	}
	b, err := decodeFile(recolored)
	if err != nil {
		return err
	}
	img, err := CompareImages(a, b, height)
	if err != nil {
		return err
	}
	return encodeFile(img, output)
}
