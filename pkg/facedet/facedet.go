// Package facedet implements face.Detector with pigo, a pure-Go cascade
// classifier. It needs no cgo and no system libraries, only a cascade
// binary on disk.
package facedet

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/smartthumb/pkg/face"
)

// Options tune the cascade scan. The defaults favor recall on working
// images around 1024px; raise MinQuality to cut false positives.
type Options struct {
	MinSize     int     // smallest face in pixels
	MaxSize     int     // largest face in pixels
	ShiftFactor float64 // detection window stride, fraction of size
	ScaleFactor float64 // size growth between scan passes
	MinQuality  float32 // cascade quality threshold
	IoU         float64 // cluster overlap threshold
}

// DefaultOptions returns the standard scan parameters.
func DefaultOptions() Options {
	return Options{
		MinSize:     20,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		MinQuality:  5.0,
		IoU:         0.2,
	}
}

// Detector is a pigo-backed face detector.
type Detector struct {
	classifier *pigo.Pigo
	opts       Options
}

// New reads and unpacks the cascade file at path.
func New(path string, opts Options) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("facedet: reading cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("facedet: unpacking cascade: %w", err)
	}
	return &Detector{classifier: classifier, opts: opts}, nil
}

// Detect runs the cascade over img and returns clustered face regions.
// Confidence is the cascade quality score squashed into [0, 1].
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]face.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	maxSize := d.opts.MaxSize
	if m := minInt(cols, rows); maxSize > m {
		maxSize = m
	}

	params := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.opts.IoU)

	var regions []face.Region
	for _, det := range dets {
		if det.Q < d.opts.MinQuality {
			continue
		}
		half := det.Scale / 2
		regions = append(regions, face.Region{
			Rect:       image.Rect(det.Col-half, det.Row-half, det.Col-half+det.Scale, det.Row-half+det.Scale),
			Confidence: quality(det.Q),
		})
	}
	return regions, nil
}

// quality maps the open-ended cascade score onto [0, 1]; scores at or
// above 50 saturate.
func quality(q float32) float64 {
	c := float64(q) / 50
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
