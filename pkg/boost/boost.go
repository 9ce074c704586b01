// Package boost builds the additive bonus layer of the importance signal:
// a precomputed rule-of-thirds positional map plus zero or more face or
// subject boosts supplied by an external detector.
package boost

import (
	"image"
	"math"

	"github.com/menta2k/smartthumb/pkg/salience"
)

// Boost is a rectangular additive bonus in working-image coordinates.
// Boosts only ever add weight; applying one can never lower a score.
type Boost struct {
	Rect   image.Rectangle
	Weight float64
}

// RuleOfThirds returns the positional map for a w x h working image,
// scaled by weight. The map combines closeness to the image center with
// the classic thirds curve per axis, so it peaks at the four third-line
// intersections and falls off toward the borders. A featureless image
// therefore still resolves to a centered crop.
func RuleOfThirds(w, h int, weight float64) *salience.Map {
	m := salience.NewMap(w, h)
	if weight == 0 {
		return m
	}
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		py := math.Abs(0.5-v) * 2
		ty := thirds(py)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			px := math.Abs(0.5-u) * 2
			s := 1.41 - math.Sqrt(px*px+py*py)
			if s < 0 {
				s = 0
			}
			m.Set(x, y, weight*(s+thirds(px)+ty))
		}
	}
	return m
}

// thirds maps a distance-from-center coordinate in [0, 1] to a weight in
// [0, 1] peaking where the coordinate crosses a third line.
func thirds(x float64) float64 {
	x = (math.Mod(x+2.0/3.0, 2.0)*0.5 - 0.5) * 16
	return math.Max(1-x*x, 0)
}

// Apply accumulates b into dst. falloff is the fraction of the rectangle
// over which the bonus ramps linearly from zero at the edge to full
// strength; zero applies the full weight across the whole rectangle.
// Negative weights are ignored to preserve the additive-only policy.
func Apply(dst *salience.Map, b Boost, falloff float64) {
	if b.Weight <= 0 {
		return
	}
	r := b.Rect.Intersect(image.Rect(0, 0, dst.W, dst.H))
	if r.Empty() {
		return
	}
	rampX := falloff * float64(r.Dx()) / 2
	rampY := falloff * float64(r.Dy()) / 2
	for y := r.Min.Y; y < r.Max.Y; y++ {
		fy := ramp(float64(y-r.Min.Y)+0.5, float64(r.Max.Y-y)-0.5, rampY)
		for x := r.Min.X; x < r.Max.X; x++ {
			fx := ramp(float64(x-r.Min.X)+0.5, float64(r.Max.X-x)-0.5, rampX)
			dst.AddAt(x, y, b.Weight*fx*fy)
		}
	}
}

// ramp returns the linear falloff factor for a point at the given
// distances from the two opposing edges.
func ramp(distLo, distHi, width float64) float64 {
	if width <= 0 {
		return 1
	}
	d := math.Min(distLo, distHi)
	if d >= width {
		return 1
	}
	if d < 0 {
		return 0
	}
	return d / width
}
