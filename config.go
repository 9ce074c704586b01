package smartthumb

import (
	"fmt"

	"github.com/menta2k/smartthumb/pkg/crop"
	"github.com/menta2k/smartthumb/pkg/salience"
)

// Config holds every tunable of a single analysis call. It is passed by
// value and never mutated by the engine, so concurrent calls with different
// tunings cannot interfere.
type Config struct {
	// MaxDimension caps the larger dimension of the working image. The
	// source is downscaled to fit before any analysis; it is never upscaled.
	MaxDimension int

	// MinScale, MaxScale and ScaleStep define the candidate scale schedule,
	// relative to the largest crop of the target ratio that fits the
	// working image.
	MinScale  float64
	MaxScale  float64
	ScaleStep float64

	// Step is the slide step in working-image pixels when enumerating
	// candidate positions.
	Step int

	// Weights combine the per-detector sub-scores into the total score and
	// the per-detector maps into the merged importance map.
	Weights crop.Weights

	// RuleOfThirdsWeight scales the positional boost map.
	RuleOfThirdsWeight float64

	// FaceBoostWeight scales each face boost; it is further multiplied by
	// the detector's confidence for that face.
	FaceBoostWeight float64

	// FaceBoostFalloff is the fraction of a face rectangle over which its
	// boost ramps down linearly toward the edges. Zero means a hard edge.
	FaceBoostFalloff float64

	// OutsideImportance weighs salient content left outside a candidate.
	// It must be <= 0: content outside the crop can only hurt.
	OutsideImportance float64

	// AllowUpscaling permits targets larger than the source. When false,
	// such requests fail with ErrUnsatisfiableCrop.
	AllowUpscaling bool

	// IncludeCandidates retains the full scored candidate list on the
	// result for debugging consumers.
	IncludeCandidates bool

	Skin       salience.SkinOptions
	Saturation salience.SaturationOptions
}

// Default returns the calibrated default configuration. The detector
// thresholds are a calibration surface, not universal truths; they were
// tuned against photographic corpora and may need adjustment for other
// image domains.
func Default() Config {
	return Config{
		MaxDimension:       1024,
		MinScale:           0.9,
		MaxScale:           1.0,
		ScaleStep:          0.1,
		Step:               8,
		Weights:            crop.Weights{Detail: 1.0, Saturation: 0.6, Skin: 1.2, Boost: 1.0},
		RuleOfThirdsWeight: 0.25,
		FaceBoostWeight:    0.8,
		FaceBoostFalloff:   0.25,
		OutsideImportance:  -0.5,
		AllowUpscaling:     false,
		Skin:               salience.DefaultSkinOptions(),
		Saturation:         salience.DefaultSaturationOptions(),
	}
}

// Validate checks the configuration and reports the first offending value.
func (c Config) Validate() error {
	if c.MaxDimension < 16 {
		return fmt.Errorf("%w: max dimension %d, must be >= 16", ErrConfiguration, c.MaxDimension)
	}
	if c.MinScale <= 0 || c.MinScale > 1 {
		return fmt.Errorf("%w: min scale %g, must be in (0, 1]", ErrConfiguration, c.MinScale)
	}
	if c.MaxScale <= 0 || c.MaxScale > 1 {
		return fmt.Errorf("%w: max scale %g, must be in (0, 1]", ErrConfiguration, c.MaxScale)
	}
	if c.MinScale > c.MaxScale {
		return fmt.Errorf("%w: min scale %g exceeds max scale %g", ErrConfiguration, c.MinScale, c.MaxScale)
	}
	if c.ScaleStep <= 0 {
		return fmt.Errorf("%w: scale step %g, must be positive", ErrConfiguration, c.ScaleStep)
	}
	if c.Step < 1 {
		return fmt.Errorf("%w: step %d, must be >= 1", ErrConfiguration, c.Step)
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"detail weight", c.Weights.Detail},
		{"saturation weight", c.Weights.Saturation},
		{"skin weight", c.Weights.Skin},
		{"boost weight", c.Weights.Boost},
		{"rule-of-thirds weight", c.RuleOfThirdsWeight},
		{"face boost weight", c.FaceBoostWeight},
	} {
		if w.value < 0 {
			return fmt.Errorf("%w: %s %g, must be >= 0", ErrConfiguration, w.name, w.value)
		}
	}
	if c.OutsideImportance > 0 {
		return fmt.Errorf("%w: outside importance %g, must be <= 0", ErrConfiguration, c.OutsideImportance)
	}
	if c.FaceBoostFalloff < 0 || c.FaceBoostFalloff > 1 {
		return fmt.Errorf("%w: face boost falloff %g, must be in [0, 1]", ErrConfiguration, c.FaceBoostFalloff)
	}
	if err := c.Skin.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := c.Saturation.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
