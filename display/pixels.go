package display

import (
	"fmt"

	"github.com/sbl8/conway/core"
)

const bytesPerPixel = 4

// ARGB8888 words as laid out in memory on little-endian hosts (B, G, R, A).
var (
	aliveColor = [bytesPerPixel]byte{0xFF, 0xFF, 0xFF, 0xFF}
	deadColor  = [bytesPerPixel]byte{0x00, 0x00, 0x00, 0xFF}
)

// fillPixels writes one pixel per cell of m into dst.
func fillPixels(dst []byte, m *core.Matrix, shape core.Shape) error {
	if m == nil || m.Shape != shape {
		return fmt.Errorf("%w: window %s", core.ErrShapeMismatch, shape)
	}
	if len(dst) < shape.Cells()*bytesPerPixel {
		return fmt.Errorf("%w: pixel buffer holds %d bytes", core.ErrShapeMismatch, len(dst))
	}
	for i, v := range m.Cells {
		px := dst[i*bytesPerPixel : (i+1)*bytesPerPixel]
		if v != 0 {
			copy(px, aliveColor[:])
		} else {
			copy(px, deadColor[:])
		}
	}
	return nil
}
