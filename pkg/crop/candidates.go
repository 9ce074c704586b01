// Package crop enumerates candidate crop rectangles, scores them against
// the importance maps and selects the winner deterministically.
package crop

import (
	"errors"
	"math"
)

// ErrNoCandidates is returned when no candidate of the requested ratio
// fits the working image without upscaling.
var ErrNoCandidates = errors.New("crop: no candidates")

// Candidate is one trial crop rectangle in working-image coordinates.
// Index is its position in the deterministic enumeration order and breaks
// score ties regardless of how scoring is parallelized.
type Candidate struct {
	Index int `json:"index"`
	X     int `json:"x"`
	Y     int `json:"y"`
	W     int `json:"width"`
	H     int `json:"height"`
}

// Params control candidate enumeration.
type Params struct {
	TargetWidth  int
	TargetHeight int

	// Scale schedule, relative to the largest crop of the target ratio
	// that fits the working image.
	MinScale  float64
	MaxScale  float64
	ScaleStep float64

	// Step is the slide step in pixels.
	Step int

	// AllowUpscaling clamps the effective minimum scale instead of
	// failing when the target exceeds the source.
	AllowUpscaling bool
}

const scaleEps = 1e-9

// Generate enumerates candidates of the target aspect ratio over a
// workW x workH working image. Order is fixed: scale outer (largest
// first), then y, then x, so the optimizer's first-seen-maximum rule is
// reproducible. The last position on each axis is clamped in-bounds
// rather than skipped, so the far edges are always reachable.
//
// The effective minimum scale is raised to 1/fitScale so no candidate
// would require upscaling against the requested target. If that pushes
// it above MaxScale the target is unreachable and ErrNoCandidates is
// returned, unless AllowUpscaling is set, in which case the schedule is
// clamped the way the classic implementations do.
func Generate(workW, workH int, p Params) ([]Candidate, error) {
	fitScale := math.Min(float64(workW)/float64(p.TargetWidth), float64(workH)/float64(p.TargetHeight))
	if fitScale <= 0 {
		return nil, ErrNoCandidates
	}
	baseW := float64(p.TargetWidth) * fitScale
	baseH := float64(p.TargetHeight) * fitScale

	minScale := math.Max(1/fitScale, p.MinScale)
	if minScale > p.MaxScale+scaleEps {
		if !p.AllowUpscaling {
			return nil, ErrNoCandidates
		}
		minScale = p.MaxScale
	}

	var out []Candidate
	for scale := p.MaxScale; scale >= minScale-scaleEps; scale -= p.ScaleStep {
		cw := int(math.Floor(baseW * scale))
		ch := int(math.Floor(baseH * scale))
		if cw < 1 || ch < 1 {
			continue
		}
		for _, y := range positions(workH-ch, p.Step) {
			for _, x := range positions(workW-cw, p.Step) {
				out = append(out, Candidate{Index: len(out), X: x, Y: y, W: cw, H: ch})
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}
	return out, nil
}

// positions returns 0, step, 2*step, ... plus the final in-bounds
// position max itself when the grid does not land on it.
func positions(max, step int) []int {
	if max < 0 {
		return nil
	}
	out := make([]int, 0, max/step+2)
	for p := 0; p <= max; p += step {
		out = append(out, p)
	}
	if last := out[len(out)-1]; last != max {
		out = append(out, max)
	}
	return out
}
