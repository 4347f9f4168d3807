package display

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sbl8/conway/core"
)

func TestFillPixels(t *testing.T) {
	t.Parallel()
	m, _ := core.MatrixFromRows([][]uint8{
		{1, 0},
		{0, 7},
	})
	dst := make([]byte, 4*bytesPerPixel)
	if err := fillPixels(dst, m, m.Shape); err != nil {
		t.Fatalf("fillPixels failed: %v", err)
	}

	want := [][bytesPerPixel]byte{aliveColor, deadColor, deadColor, aliveColor}
	for i, px := range want {
		if got := dst[i*bytesPerPixel : (i+1)*bytesPerPixel]; !bytes.Equal(got, px[:]) {
			t.Errorf("pixel %d = %v, want %v", i, got, px)
		}
	}
}

func TestFillPixelsShapeMismatch(t *testing.T) {
	t.Parallel()
	m := core.NewMatrix(core.Shape{H: 2, W: 3})
	dst := make([]byte, 6*bytesPerPixel)

	if err := fillPixels(dst, m, core.Shape{H: 3, W: 2}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("shape mismatch error = %v", err)
	}
	if err := fillPixels(dst[:4], m, m.Shape); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("short buffer error = %v", err)
	}
}
