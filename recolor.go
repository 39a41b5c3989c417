package labtex

import (
	"image"
	"image/color"
	"log"
	"time"
)

// Recolor maps every pixel through the table. Alpha is kept; rows are
// processed in parallel.
func Recolor(img image.Image, lut *LUT, workers int) (*image.NRGBA, error) {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	err := parallel(workers, b.Dy(), func(y int) error {
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()*4]
		switch src := img.(type) {
		case *image.NRGBA:
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < b.Dx(); x++ {
				recolorPixel(dst[x*4:], lut, row[x*4], row[x*4+1], row[x*4+2], row[x*4+3])
			}
		default:
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				recolorPixel(dst[x*4:], lut, c.R, c.G, c.B, c.A)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func recolorPixel(dst []uint8, lut *LUT, r, g, b, a uint8) {
	o := lutOffset(r, g, b)
	dst[0], dst[1], dst[2], dst[3] = lut.data[o], lut.data[o+1], lut.data[o+2], a
}

// RecolorFile recolours one image file. An empty output becomes
// "<base>_recolorized<ext>" next to the input. It returns the file written.
func RecolorFile(input, output string, lut *LUT, workers int) (string, error) {
	st := time.Now()
	if output == "" {
		output = recoloredName(input)
	}
	log.Printf("[>] Recolor %s", input)
	defer func() {
		log.Printf("[<] Recolor %s -> %s, at %s", input, output, time.Since(st))
	}()

	img, err := decodeFile(input)
	if err != nil {
		return "", err
	}
	log.Printf("Image size: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())

	out, err := Recolor(img, lut, workers)
	if err != nil {
		return "", err
	}
	if err = encodeFile(out, output); err != nil {
		return "", err
	}
	return output, nil
}
