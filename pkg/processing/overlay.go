package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/smartthumb/pkg/salience"
)

// RenderOverlay paints the merged importance map as a green tint over the
// working image and outlines the winning crop in red. Both inputs are in
// working-image coordinates.
func RenderOverlay(working *image.NRGBA, importance *salience.Map, rect image.Rectangle) image.Image {
	out := imaging.Clone(working)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	// Scale the tint to the map's dynamic range so faint signals stay
	// visible.
	var peak float64
	for _, v := range importance.Pix {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		peak = 1
	}

	for y := 0; y < h && y < importance.H; y++ {
		i := y * out.Stride
		for x := 0; x < w && x < importance.W; x++ {
			g := float64(out.Pix[i+1]) + importance.At(x, y)/peak*128
			out.Pix[i+1] = uint8(math.Min(g, 255))
			i += 4
		}
	}

	red := color.NRGBA{255, 0, 0, 255}
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h))))
	drawBox(out, rect, red, stroke)
	return out
}

func drawBox(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
