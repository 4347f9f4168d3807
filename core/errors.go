package core

import "errors"

// Error taxonomy shared by every package in the module. Callers match
// with errors.Is; detailed errors wrap one of these with fmt.Errorf("%w").
var (
	// ErrShapeMismatch reports buffers or inputs of incompatible dimensions.
	// The destination is never truncated, padded or modified.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrAliasing reports a step whose read and write grids share storage.
	ErrAliasing = errors.New("read and write grids alias")

	// ErrUnsupportedType reports a cell representation the kernel cannot process.
	ErrUnsupportedType = errors.New("unsupported cell type")

	// ErrDevice reports a failure of the execution substrate. The write
	// grid of the failed step holds undefined contents.
	ErrDevice = errors.New("device error")

	// ErrInvalidShape reports a shape with a non-positive dimension.
	ErrInvalidShape = errors.New("invalid shape")
)
