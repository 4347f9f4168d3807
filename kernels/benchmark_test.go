package kernels

import (
	"math/rand"
	"testing"

	"github.com/sbl8/conway/core"
)

func benchmarkStep(b *testing.B, size int, dtype core.DType) {
	host := core.RandomMatrix(core.Shape{H: size, W: size}, rand.New(rand.NewSource(1)))
	read := mustGrid(b, host, dtype)
	write := mustEmpty(b, host.Shape, dtype)

	b.SetBytes(int64(host.Shape.Cells()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		StepRows(read, write, 0, size)
		read, write = write, read
	}
}

func BenchmarkStep_Uint8_256(b *testing.B) { benchmarkStep(b, 256, core.Uint8) }
func BenchmarkStep_Uint8_1K(b *testing.B) { benchmarkStep(b, 1024, core.Uint8) }
func BenchmarkStep_Int32_256(b *testing.B) { benchmarkStep(b, 256, core.Int32) }
func BenchmarkStep_Int32_1K(b *testing.B) { benchmarkStep(b, 1024, core.Int32) }

func BenchmarkReferenceStep_256(b *testing.B) {
	host := core.RandomMatrix(core.Shape{H: 256, W: 256}, rand.New(rand.NewSource(1)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		host = ReferenceStep(host)
	}
}
