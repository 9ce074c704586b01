package smartthumb

import "errors"

// Error kinds returned by FindBestCrop. Callers should match them with
// errors.Is; the returned error always carries the offending value.
var (
	// ErrInvalidInput indicates a zero-area source image or a non-positive
	// target width or height.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsatisfiableCrop indicates that the requested target size cannot
	// be reached from the source image without upscaling at the configured
	// minimum scale.
	ErrUnsatisfiableCrop = errors.New("unsatisfiable crop")

	// ErrConfiguration indicates weight or scale parameters outside their
	// valid ranges.
	ErrConfiguration = errors.New("invalid configuration")
)
