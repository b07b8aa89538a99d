package settings

import "errors"

// Sentinel kinds for settings errors.
var (
	// ErrSaveFailed means no key was written.
	ErrSaveFailed = errors.New("settings save failed")

	// ErrPartialWrite means some keys were written before a failure; the
	// stored configuration must be treated as possibly partial until a
	// reload confirms it.
	ErrPartialWrite = errors.New("settings partially written")
)
