package labtex

import (
	"bufio"
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/deepteams/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const jpegQuality = 95

// decodeFile decodes any format registered with the image package (png,
// jpeg, gif, webp, bmp, tiff). Other formats go through libvips.
func decodeFile(input string) (image.Image, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if errors.Is(err, image.ErrFormat) {
		log.Printf("[!] %s is not a Go-decodable image, loading with libvips", input)
		return vipsDecode(input)
	}
	return img, err
}

// vipsDecode loads a file with libvips, converts it to sRGB and hands it
// over as PNG.
func vipsDecode(input string) (image.Image, error) {
	ref, err := vips.LoadImageFromFile(input, nil)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	switch ref.ColorSpace() {
	case vips.InterpretationSRGB:
	case vips.InterpretationCMYK, vips.InterpretationRGB, vips.InterpretationRGB16, vips.InterpretationBW, vips.InterpretationGrey16:
		if err = ref.ToColorSpace(vips.InterpretationSRGB); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported color space")
	}

	buffer, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(buffer))
}

// encodeFile writes img in the format named by the output extension.
func encodeFile(img image.Image, output string) error {
	ext := strings.ToLower(filepath.Ext(output))
	if ext == ".png" {
		return writePng(img, output)
	}

	var buf bytes.Buffer
	var err error
	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case ".webp":
		opts := webp.DefaultOptions()
		opts.Lossless = true
		opts.Exact = true
		err = webp.Encode(&buf, img, opts)
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return vipsEncode(img, output, ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(output, buf.Bytes(), DefaultPerm)
}

func vipsEncode(img image.Image, output, ext string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return err
	}
	defer ref.Close()

	var buffer []byte
	switch ext {
	case ".gif":
		buffer, _, err = ref.ExportGIF(vips.NewGifExportParams())
	case ".avif":
		buffer, _, err = ref.ExportAvif(vips.NewAvifExportParams())
	case ".heic", ".heif":
		buffer, _, err = ref.ExportHeif(vips.NewHeifExportParams())
	default:
		return invalidConfig("unsupported output format %q", ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(output, buffer, DefaultPerm)
}
