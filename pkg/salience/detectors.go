package salience

import (
	"fmt"
	"math"

	"github.com/menta2k/smartthumb/pkg/pixels"
)

// SkinOptions gates the skin detector. A pixel contributes when its
// unit-RGB direction is close to SkinColor and its brightness falls
// between the min and max gates.
type SkinOptions struct {
	SkinColor     [3]float64
	Threshold     float64
	BrightnessMin float64
	BrightnessMax float64
}

// DefaultSkinOptions returns the empirically tuned skin gates.
func DefaultSkinOptions() SkinOptions {
	return SkinOptions{
		SkinColor:     [3]float64{0.78, 0.57, 0.44},
		Threshold:     0.8,
		BrightnessMin: 0.2,
		BrightnessMax: 1.0,
	}
}

// Validate reports the first out-of-range gate.
func (o SkinOptions) Validate() error {
	if o.Threshold < 0 || o.Threshold >= 1 {
		return fmt.Errorf("skin threshold %g, must be in [0, 1)", o.Threshold)
	}
	if o.BrightnessMin < 0 || o.BrightnessMax > 1 || o.BrightnessMin > o.BrightnessMax {
		return fmt.Errorf("skin brightness gates [%g, %g] out of order", o.BrightnessMin, o.BrightnessMax)
	}
	return nil
}

// SaturationOptions gates the saturation detector.
type SaturationOptions struct {
	Threshold     float64
	BrightnessMin float64
	BrightnessMax float64
}

// DefaultSaturationOptions returns the empirically tuned saturation gates.
func DefaultSaturationOptions() SaturationOptions {
	return SaturationOptions{
		Threshold:     0.4,
		BrightnessMin: 0.05,
		BrightnessMax: 0.9,
	}
}

// Validate reports the first out-of-range gate.
func (o SaturationOptions) Validate() error {
	if o.Threshold < 0 || o.Threshold >= 1 {
		return fmt.Errorf("saturation threshold %g, must be in [0, 1)", o.Threshold)
	}
	if o.BrightnessMin < 0 || o.BrightnessMax > 1 || o.BrightnessMin > o.BrightnessMax {
		return fmt.Errorf("saturation brightness gates [%g, %g] out of order", o.BrightnessMin, o.BrightnessMax)
	}
	return nil
}

// EdgeDetect approximates local contrast with a 4-neighbor Laplacian over
// the luminance plane, normalized to [0, 1]. Border pixels are zero: the
// kernel is undefined there and a consistent policy keeps scores
// reproducible.
func EdgeDetect(b *pixels.Buffer) *Map {
	m := NewMap(b.W, b.H)
	for y := 1; y < b.H-1; y++ {
		for x := 1; x < b.W-1; x++ {
			lap := 4*b.Lum(x, y) - b.Lum(x, y-1) - b.Lum(x-1, y) - b.Lum(x+1, y) - b.Lum(x, y+1)
			if lap > 255 {
				lap = 255
			}
			if lap > 0 {
				m.Set(x, y, lap/255)
			}
		}
	}
	return m
}

// SkinDetect classifies each pixel's likelihood of being skin, in [0, 1].
// Likelihood is one minus the distance between the pixel's unit RGB vector
// and the reference skin color, remapped so the threshold lands at zero.
func SkinDetect(b *pixels.Buffer, o SkinOptions) *Map {
	m := NewMap(b.W, b.H)
	scale := 1 / (1 - o.Threshold)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			lightness := b.Lum(x, y) / 255
			if lightness < o.BrightnessMin || lightness > o.BrightnessMax {
				continue
			}
			r, g, bl := b.RGB(x, y)
			if v := skinLikeness(r, g, bl, o.SkinColor); v > o.Threshold {
				m.Set(x, y, (v-o.Threshold)*scale)
			}
		}
	}
	return m
}

func skinLikeness(r, g, bl float64, ref [3]float64) float64 {
	mag := math.Sqrt(r*r + g*g + bl*bl)
	if mag < 1e-6 {
		return 0
	}
	rd := r/mag - ref[0]
	gd := g/mag - ref[1]
	bd := bl/mag - ref[2]
	return 1 - math.Sqrt(rd*rd+gd*gd+bd*bd)
}

// SaturationDetect measures HSL saturation above a threshold, in [0, 1].
// Low-saturation pixels are suppressed entirely so that desaturated noise
// is never rewarded.
func SaturationDetect(b *pixels.Buffer, o SaturationOptions) *Map {
	m := NewMap(b.W, b.H)
	scale := 1 / (1 - o.Threshold)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			lightness := b.Lum(x, y) / 255
			if lightness < o.BrightnessMin || lightness > o.BrightnessMax {
				continue
			}
			if s := saturation(b.RGB(x, y)); s > o.Threshold {
				m.Set(x, y, (s-o.Threshold)*scale)
			}
		}
	}
	return m
}

func saturation(r, g, bl float64) float64 {
	maximum := math.Max(r, math.Max(g, bl)) / 255
	minimum := math.Min(r, math.Min(g, bl)) / 255
	if maximum == minimum {
		return 0
	}
	l := (maximum + minimum) / 2
	d := maximum - minimum
	if l > 0.5 {
		return d / (2 - maximum - minimum)
	}
	return d / (maximum + minimum)
}
