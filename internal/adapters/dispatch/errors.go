package dispatch

import "errors"

// Sentinel kinds for dispatch errors.
var (
	ErrDispatchFailed = errors.New("invitation dispatch failed")
)
