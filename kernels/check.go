package kernels

import (
	"fmt"

	"github.com/sbl8/conway/core"
)

// Supported reports whether the kernel can step grids of dtype d.
func Supported(d core.DType) bool {
	return d == core.Uint8 || d == core.Int32
}

// CheckStep validates a step invocation before anything is written:
// both grids must exist with equal shapes, must not share storage, and
// must hold the same supported cell type.
func CheckStep(read, write *core.Grid) error {
	if read == nil || write == nil {
		return fmt.Errorf("%w: nil grid", core.ErrShapeMismatch)
	}
	if read.Shape() != write.Shape() {
		return fmt.Errorf("%w: read %s, write %s", core.ErrShapeMismatch, read.Shape(), write.Shape())
	}
	if read.Overlaps(write) {
		return core.ErrAliasing
	}
	if !Supported(read.DType()) {
		return fmt.Errorf("%w: %s", core.ErrUnsupportedType, read.DType())
	}
	if read.DType() != write.DType() {
		return fmt.Errorf("%w: read %s, write %s", core.ErrUnsupportedType, read.DType(), write.DType())
	}
	return nil
}
