package scene

import "errors"

var (
	ErrLoad   = errors.New("failed to load scene")
	ErrUnload = errors.New("failed to unload scene")
)
