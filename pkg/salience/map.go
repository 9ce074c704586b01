// Package salience computes per-pixel importance maps for a working image:
// one map per feature detector (edge, skin, saturation) plus weighted
// merging and integral-image region sums for the scorer.
package salience

import "image"

// Map is a dense grid of non-negative importance weights with the same
// dimensions as the working image.
type Map struct {
	W, H int
	Pix  []float64 // row-major
}

// NewMap returns a zeroed map of the given dimensions.
func NewMap(w, h int) *Map {
	return &Map{W: w, H: h, Pix: make([]float64, w*h)}
}

// At returns the weight at (x, y).
func (m *Map) At(x, y int) float64 {
	return m.Pix[y*m.W+x]
}

// Set overwrites the weight at (x, y).
func (m *Map) Set(x, y int, v float64) {
	m.Pix[y*m.W+x] = v
}

// AddAt accumulates v into the weight at (x, y).
func (m *Map) AddAt(x, y int, v float64) {
	m.Pix[y*m.W+x] += v
}

// Merge combines maps pixel-wise with the given weights. All maps must
// share the receiver dimensions; weights and maps are matched by index.
func Merge(maps []*Map, weights []float64) *Map {
	out := NewMap(maps[0].W, maps[0].H)
	for i, m := range maps {
		w := weights[i]
		if w == 0 {
			continue
		}
		for j, v := range m.Pix {
			out.Pix[j] += w * v
		}
	}
	return out
}

// Integral is a summed-area table over a Map, giving O(1) rectangle sums.
type Integral struct {
	w, h int
	sums []float64 // (w+1) x (h+1)
}

// Integral builds the summed-area table for the map.
func (m *Map) Integral() *Integral {
	w, h := m.W, m.H
	it := &Integral{w: w, h: h, sums: make([]float64, (w+1)*(h+1))}
	stride := w + 1
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += m.Pix[y*w+x]
			it.sums[(y+1)*stride+x+1] = it.sums[y*stride+x+1] + row
		}
	}
	return it
}

// Sum returns the total weight inside r. The rectangle is clamped to the
// map extent first, so out-of-range queries are safe.
func (it *Integral) Sum(r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, it.w, it.h))
	if r.Empty() {
		return 0
	}
	stride := it.w + 1
	return it.sums[r.Max.Y*stride+r.Max.X] -
		it.sums[r.Min.Y*stride+r.Max.X] -
		it.sums[r.Max.Y*stride+r.Min.X] +
		it.sums[r.Min.Y*stride+r.Min.X]
}

// Total returns the sum over the whole map.
func (it *Integral) Total() float64 {
	return it.sums[len(it.sums)-1]
}
