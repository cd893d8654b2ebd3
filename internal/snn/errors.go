package snn

import "errors"

var (
	// ErrInvalidConfig indicates a network spec that cannot be built.
	ErrInvalidConfig = errors.New("snn: invalid network config")

	// ErrUnknownGroup indicates a reference to a group name that does not exist.
	ErrUnknownGroup = errors.New("snn: unknown group")
)
