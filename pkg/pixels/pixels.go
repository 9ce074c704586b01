// Package pixels provides the engine-owned working copy of a source image:
// an NRGBA pixel grid with float accessors and a precomputed luminance plane.
package pixels

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Buffer is a read-only pixel grid derived from a source image. All
// detector passes operate on a Buffer; the source image itself is never
// touched after construction.
type Buffer struct {
	W, H int

	img *image.NRGBA
	lum []float64 // Rec.709 luminance, 0..255, row-major
}

// FromImage copies img into a new Buffer. The copy decouples the engine
// from the caller's image, which may be backed by any color model.
func FromImage(img image.Image) (*Buffer, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("pixels: empty image %dx%d", b.Dx(), b.Dy())
	}
	return fromNRGBA(imaging.Clone(img)), nil
}

// Downscale produces a working Buffer whose larger dimension does not
// exceed maxDim, resampling with Lanczos to keep edge and saturation
// signals intact. Images already within the cap are copied unchanged.
// The returned factor is working size over source size; it is 1 exactly
// when no resampling happened.
func Downscale(img image.Image, maxDim int) (*Buffer, float64, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, 0, fmt.Errorf("pixels: empty image %dx%d", w, h)
	}
	if w <= maxDim && h <= maxDim {
		buf, err := FromImage(img)
		return buf, 1.0, err
	}

	var resized *image.NRGBA
	var factor float64
	if w >= h {
		resized = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		factor = float64(resized.Bounds().Dx()) / float64(w)
	} else {
		resized = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		factor = float64(resized.Bounds().Dy()) / float64(h)
	}
	return fromNRGBA(resized), factor, nil
}

func fromNRGBA(img *image.NRGBA) *Buffer {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	buf := &Buffer{W: w, H: h, img: img, lum: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		i := y * img.Stride
		for x := 0; x < w; x++ {
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			buf.lum[y*w+x] = 0.2126*r + 0.7152*g + 0.0722*bl
			i += 4
		}
	}
	return buf
}

// RGB returns the pixel at (x, y) as floats in [0, 255].
func (b *Buffer) RGB(x, y int) (r, g, bl float64) {
	i := y*b.img.Stride + x*4
	return float64(b.img.Pix[i]), float64(b.img.Pix[i+1]), float64(b.img.Pix[i+2])
}

// Lum returns the Rec.709 luminance at (x, y) in [0, 255].
func (b *Buffer) Lum(x, y int) float64 {
	return b.lum[y*b.W+x]
}

// Image exposes the underlying NRGBA grid for collaborators that need a
// full image (face detectors, the debug overlay). Callers must not write
// to it.
func (b *Buffer) Image() *image.NRGBA {
	return b.img
}

// Bounds returns the working-image rectangle, anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.W, b.H)
}
