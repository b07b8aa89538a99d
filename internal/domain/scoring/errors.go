package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNoUsableWeights = errors.New("no usable factor weights")
)
