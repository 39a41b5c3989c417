package labtex

import (
	"bufio"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/lucasb-eyer/go-colorful"
)

func prepareTopFolders(folders ...string) error {
	for _, folder := range folders {
		if err := os.MkdirAll(folder, DefaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

func writePng(img image.Image, output string) error {
	if err := prepareTopFolders(filepath.Dir(output)); err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err = png.Encode(w, img); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func readPng(input string) (image.Image, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(bufio.NewReader(f))
}

func toPng(ref *vips.ImageRef, output string) error {
	params := vips.NewPngExportParams()
	params.Compression = 9
	params.StripMetadata = true
	buffer, _, err := ref.ExportPng(params)
	if err != nil {
		return err
	}
	return os.WriteFile(output, buffer, DefaultPerm)
}

// fillImage returns an opaque image of one colour.
func fillImage(w, h int, c colorful.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r, g, b := c.RGB255()
	for o := 0; o < len(img.Pix); o += 4 {
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = r, g, b, 0xff
	}
	return img
}
