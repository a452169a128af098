package qr

import (
	"image"
	"image/color"
)

// Raster is a 1-bit image produced by EncodePacket: Pix[y*Width+x] is true
// for a black module pixel, false for white.
type Raster struct {
	Width, Height int
	Pix           []bool
}

// At reports whether the pixel at (x, y) is black.
func (r Raster) At(x, y int) bool {
	return r.Pix[y*r.Width+x]
}

// Image renders the raster as a grayscale image.Image, for callers that
// want to hand it to image/png or image/gif (cmd/fountain-encode).
func (r Raster) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := uint8(255)
			if r.At(x, y) {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
