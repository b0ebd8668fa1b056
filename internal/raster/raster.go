// Package raster turns encoded images into the 1-bit monochrome bitmaps
// label printers consume.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

var ErrEmptyImage = errors.New("image has no pixels")

// Options control decoding and binarization. Zero Width/Height keep the
// intrinsic image size; Threshold zero means the default of 128.
type Options struct {
	Width     int
	Height    int
	Threshold int
	Invert    bool
}

// Bitmap is a binarized raster: one bit per pixel, MSB first within each
// byte, rows padded to BytesPerRow = ceil(Width/8).
type Bitmap struct {
	Width       int
	Height      int
	BytesPerRow int
	Data        []byte
}

// Decode reads image bytes (PNG, JPEG or GIF) into a raster image,
// resizing when the options request an explicit geometry.
func Decode(data []byte, opts Options) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	sz := img.Bounds().Size()
	if sz.X == 0 || sz.Y == 0 {
		return nil, ErrEmptyImage
	}

	// Geometry is client-controlled; a negative value must not reach the
	// uint conversion below.
	width, height := opts.Width, opts.Height
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	if (width > 0 && width != sz.X) || (height > 0 && height != sz.Y) {
		img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
		if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
			return nil, ErrEmptyImage
		}
	}

	return img, nil
}

// Binarize packs an image into a monochrome bitmap. A pixel is a mark
// (prints black) when its luminance 0.299R+0.587G+0.114B falls below the
// threshold; Invert flips the comparison.
func Binarize(img image.Image, opts Options) *Bitmap {
	threshold := float64(opts.Threshold)
	if opts.Threshold <= 0 || opts.Threshold > 255 {
		threshold = 128
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerRow := width / 8
	if width%8 != 0 {
		bytesPerRow++
	}

	data := make([]byte, bytesPerRow*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)

			mark := luma < threshold
			if opts.Invert {
				mark = !mark
			}
			if mark {
				data[y*bytesPerRow+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return &Bitmap{
		Width:       width,
		Height:      height,
		BytesPerRow: bytesPerRow,
		Data:        data,
	}
}

// Rasterize decodes and binarizes in one step.
func Rasterize(data []byte, opts Options) (*Bitmap, error) {
	img, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	return Binarize(img, opts), nil
}
