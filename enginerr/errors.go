// Package enginerr defines the sentinel errors surfaced at the engine's
// external boundary. Internal misuse of the grid or render graph is a
// programming error and still panics; these are reserved for conditions a
// caller can reasonably expect to recover from.
package enginerr

import "errors"

var (
	ErrNotInitialised       = errors.New("engine: not initialised")
	ErrOutOfBounds          = errors.New("engine: point outside world rectangle")
	ErrDegeneratePolygon    = errors.New("engine: degenerate polygon")
	ErrOutsideAllVolumes    = errors.New("engine: position is outside every collision volume")
	ErrLightCapacityExceeded = errors.New("engine: light capacity exceeded")
	ErrUnknownResource      = errors.New("engine: unknown resource handle")
	ErrFeatureSetUncompiled = errors.New("engine: no pipeline compiled for feature set")
	ErrDeviceLost           = errors.New("engine: graphics device lost")
	ErrSwapchainOutdated    = errors.New("engine: swapchain outdated")
)
