package main

import (
	"fmt"
	"image"
	"os"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"golang.org/x/image/tiff"

	"github.com/ajroetker/go-nankill"
)

// maskLevels maps each outcome to a gray level so the mask is readable in
// any viewer.
var maskLevels = [...]uint8{
	nankill.Passthrough:   0,
	nankill.Reconstructed: 128,
	nankill.Fallback:      255,
}

// maskToGray converts an outcome mask into an 8-bit gray image.
func maskToGray(mask *hwyimage.Image[uint8]) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := range mask.Height() {
		src := mask.RowSlice(y)
		dst := g.Pix[y*g.Stride : y*g.Stride+mask.Width()]
		for x, o := range src {
			if int(o) < len(maskLevels) {
				dst[x] = maskLevels[o]
			}
		}
	}
	return g
}

// writeMask writes mask to path as a deflate-compressed TIFF.
func writeMask(path string, mask *hwyimage.Image[uint8]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if err := tiff.Encode(f, maskToGray(mask), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return fmt.Errorf("mask: encode: %w", err)
	}
	return f.Close()
}
