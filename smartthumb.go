// Package smartthumb finds the best crop of a target size inside a source
// image. It downscales the source to a working copy, runs edge, skin and
// saturation detectors over it, layers rule-of-thirds and optional
// face-detection boosts on top, then scores candidate rectangles of the
// target ratio and returns the highest-scoring one mapped back to source
// coordinates.
//
// Basic usage:
//
//	analyzer := smartthumb.New()
//	result, err := analyzer.FindBestCrop(ctx, img, 300, 200)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Rect, result.Score.Total)
//
// The returned rectangle has the requested aspect ratio within one pixel
// of rounding; cutting and resizing the crop to the exact target size is
// the caller's (or the CLI's) job.
package smartthumb

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/smartthumb/pkg/boost"
	"github.com/menta2k/smartthumb/pkg/crop"
	"github.com/menta2k/smartthumb/pkg/face"
	"github.com/menta2k/smartthumb/pkg/pixels"
	"github.com/menta2k/smartthumb/pkg/salience"
)

// Analyzer runs the crop analysis pipeline. It holds no per-call state:
// every FindBestCrop call owns its own working image and maps, so a
// single Analyzer may be used from concurrent goroutines.
type Analyzer struct {
	cfg   Config
	log   *zap.Logger
	faces face.Detector
}

// New returns an Analyzer with the default configuration.
func New() *Analyzer {
	a, _ := NewWithConfig(Default())
	return a
}

// NewWithConfig returns an Analyzer with the given configuration, or
// ErrConfiguration if any parameter is out of range.
func NewWithConfig(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, log: zap.NewNop()}, nil
}

// SetLogger installs a logger for pipeline diagnostics. The default
// discards everything.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	if l != nil {
		a.log = l
	}
}

// SetFaceDetector installs an optional face or subject detector whose
// regions become additive boosts. Detector failures are downgraded to
// "no boosts" and never fail the analysis.
func (a *Analyzer) SetFaceDetector(d face.Detector) {
	a.faces = d
}

// CropResult is the outcome of one analysis.
type CropResult struct {
	// Rect is the winning crop in source-image coordinates.
	Rect image.Rectangle

	// Score is the winner's breakdown.
	Score crop.Breakdown

	// Candidates holds every evaluated candidate with its score, in
	// enumeration order. Populated only when Config.IncludeCandidates is
	// set.
	Candidates []crop.Scored

	// Debug exposes the analysis artifacts for visualization consumers.
	Debug DebugInfo
}

// DebugInfo carries the working-image artifacts a debug renderer needs.
type DebugInfo struct {
	// Working is the downscaled image the analysis ran on. Read-only.
	Working *image.NRGBA

	// Importance is the merged importance map including boosts.
	Importance *salience.Map

	// WorkingRect is the winning crop in working-image coordinates.
	WorkingRect image.Rectangle

	// ScaleFactor is working size over source size (1 when the source
	// was already within the dimension cap).
	ScaleFactor float64
}

// FindBestCrop analyzes img and returns the best crop of the given target
// size. The source image is only read; the result holds no reference to
// the engine.
func (a *Analyzer) FindBestCrop(ctx context.Context, img image.Image, width, height int) (*CropResult, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: source image is %dx%d", ErrInvalidInput, bounds.Dx(), bounds.Dy())
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrInvalidInput, width, height)
	}

	working, factor, err := pixels.Downscale(img, a.cfg.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	a.log.Debug("working image ready",
		zap.Int("width", working.W),
		zap.Int("height", working.H),
		zap.Float64("factor", factor))

	edge, sat, skin := a.detect(working)
	boosts := a.boosts(ctx, working)

	boostMap := boost.RuleOfThirds(working.W, working.H, a.cfg.RuleOfThirdsWeight)
	for _, b := range boosts {
		boost.Apply(boostMap, b, a.cfg.FaceBoostFalloff)
	}

	cands, err := crop.Generate(working.W, working.H, crop.Params{
		TargetWidth:    width,
		TargetHeight:   height,
		MinScale:       a.cfg.MinScale,
		MaxScale:       a.cfg.MaxScale,
		ScaleStep:      a.cfg.ScaleStep,
		Step:           a.cfg.Step,
		AllowUpscaling: a.cfg.AllowUpscaling,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: target %dx%d does not fit %dx%d at min scale %g",
			ErrUnsatisfiableCrop, width, height, bounds.Dx(), bounds.Dy(), a.cfg.MinScale)
	}
	a.log.Debug("candidates generated", zap.Int("count", len(cands)))

	scorer := crop.NewScorer(edge, sat, skin, boostMap, a.cfg.Weights, a.cfg.OutsideImportance)
	top, score, err := crop.Optimize(cands, scorer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsatisfiableCrop, err)
	}

	result := &CropResult{
		Rect:  crop.MapToSource(top, factor, bounds),
		Score: score,
		Debug: DebugInfo{
			Working:     working.Image(),
			Importance:  a.mergedMap(edge, sat, skin, boostMap),
			WorkingRect: image.Rect(top.X, top.Y, top.X+top.W, top.Y+top.H),
			ScaleFactor: factor,
		},
	}
	if a.cfg.IncludeCandidates {
		result.Candidates = scorer.ScoreAll(cands)
	}
	a.log.Debug("crop selected",
		zap.Any("rect", result.Rect),
		zap.Float64("total", score.Total))
	return result, nil
}

// detect runs the three feature detectors concurrently. They are pure
// passes over the shared read-only working buffer, so no locking is
// needed.
func (a *Analyzer) detect(working *pixels.Buffer) (edge, sat, skin *salience.Map) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		edge = salience.EdgeDetect(working)
	}()
	go func() {
		defer wg.Done()
		sat = salience.SaturationDetect(working, a.cfg.Saturation)
	}()
	go func() {
		defer wg.Done()
		skin = salience.SkinDetect(working, a.cfg.Skin)
	}()
	wg.Wait()
	return edge, sat, skin
}

// boosts asks the optional detector for face or subject regions. Any
// failure is recoverable by design: it is logged and treated as zero
// boosts.
func (a *Analyzer) boosts(ctx context.Context, working *pixels.Buffer) []boost.Boost {
	if a.faces == nil {
		return nil
	}
	regions, err := a.faces.Detect(ctx, working.Image())
	if err != nil {
		a.log.Warn("face detection failed, continuing without boosts", zap.Error(err))
		return nil
	}
	bounds := working.Bounds()
	out := make([]boost.Boost, 0, len(regions))
	for _, r := range regions {
		// Cascade detectors can report rectangles hanging off the
		// image edges; only the visible part boosts.
		rect := r.Rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		out = append(out, boost.Boost{
			Rect:   rect,
			Weight: a.cfg.FaceBoostWeight * r.Confidence,
		})
	}
	a.log.Debug("face boosts applied", zap.Int("count", len(out)))
	return out
}

// mergedMap folds the detector maps and the boost layer into the single
// importance map the debug overlay consumes.
func (a *Analyzer) mergedMap(edge, sat, skin, boostMap *salience.Map) *salience.Map {
	merged := salience.Merge(
		[]*salience.Map{edge, sat, skin},
		[]float64{a.cfg.Weights.Detail, a.cfg.Weights.Saturation, a.cfg.Weights.Skin},
	)
	for i, v := range boostMap.Pix {
		merged.Pix[i] += a.cfg.Weights.Boost * v
	}
	return merged
}
