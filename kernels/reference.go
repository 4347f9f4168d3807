package kernels

import (
	"math"

	"github.com/sbl8/conway/core"
)

// NeighborKernel is the 3x3 convolution kernel that sums the eight
// neighbours of a cell and ignores the cell itself.
var NeighborKernel = [3][3]float32{
	{1, 1, 1},
	{1, 0, 1},
	{1, 1, 1},
}

// Convolve3x3Same correlates m with k using "same" zero padding: the
// output has the shape of m and every tap that falls outside m reads 0.
// Cells contribute 1 when alive.
func Convolve3x3Same(m *core.Matrix, k [3][3]float32) []float32 {
	h, w := m.Shape.H, m.Shape.W
	out := make([]float32, h*w)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			var sum float32
			for kr := 0; kr < 3; kr++ {
				rr := r + kr - 1
				if rr < 0 || rr >= h {
					continue
				}
				for kc := 0; kc < 3; kc++ {
					cc := c + kc - 1
					if cc < 0 || cc >= w {
						continue
					}
					if m.Alive(rr, cc) {
						sum += k[kr][kc]
					}
				}
			}
			out[r*w+c] = sum
		}
	}
	return out
}

// ReferenceStep computes the next generation of m with a convolution
// neighbour count and the same transition rule. It shares no code with
// the step kernel and serves as the validation oracle.
func ReferenceStep(m *core.Matrix) *core.Matrix {
	counts := Convolve3x3Same(m, NeighborKernel)
	next := core.NewMatrix(m.Shape)
	for i, v := range m.Cells {
		n := int(math.Round(float64(counts[i])))
		if n == 3 || (v != 0 && n == 2) {
			next.Cells[i] = 1
		}
	}
	return next
}
