// Package face defines the narrow interface the engine uses to obtain
// face or subject rectangles from an external detector. Any concrete
// detector is a swappable adapter behind this interface.
package face

import (
	"context"
	"image"
)

// Region is one detection in working-image coordinates.
type Region struct {
	Rect       image.Rectangle
	Confidence float64 // in [0, 1]
}

// Detector locates faces or dominant subjects in a working image.
// Implementations must be safe for use from a single analysis call at a
// time; they are not required to be concurrency-safe.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Region, error)
}
