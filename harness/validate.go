package harness

import (
	"fmt"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/kernels"
	"github.com/sbl8/conway/pattern"
	"github.com/sbl8/conway/runtime"
)

// ValidateOptions configures a reference comparison.
type ValidateOptions struct {
	Shape core.Shape
	DType core.DType
	Seed  int64
	// Generations is the number of steps compared; zero means one.
	Generations int
}

// DefaultValidateOptions returns a single-step check on a 16x16 int32 grid.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		Shape:       core.Shape{H: 16, W: 16},
		DType:       core.Int32,
		Seed:        1,
		Generations: 1,
	}
}

// ValidationReport holds both outputs of a comparison.
type ValidationReport struct {
	Input *core.Matrix
	Got   *core.Matrix
	Want  *core.Matrix
	// Diff marks every cell whose liveness differs (Got XOR Want).
	Diff       *core.Matrix
	Mismatches int
}

// Match reports whether the device agreed with the reference everywhere.
func (r ValidationReport) Match() bool { return r.Mismatches == 0 }

// Validate steps a seeded random grid on dev and compares the result with
// kernels.ReferenceStep.
func Validate(dev *runtime.Device, opts ValidateOptions) (ValidationReport, error) {
	gens := opts.Generations
	if gens == 0 {
		gens = 1
	}
	if gens < 0 {
		return ValidationReport{}, fmt.Errorf("%w: negative generations %d", ErrInvalidOptions, gens)
	}

	buf, err := runtime.NewDoubleBuffer(dev, opts.Shape, opts.DType)
	if err != nil {
		return ValidationReport{}, err
	}
	defer buf.Free()

	input := pattern.Random(opts.Shape, opts.Seed)
	if err := buf.Load(input); err != nil {
		return ValidationReport{}, err
	}
	if err := buf.Run(gens, nil); err != nil {
		return ValidationReport{}, err
	}

	want := input
	for i := 0; i < gens; i++ {
		want = kernels.ReferenceStep(want)
	}
	got := buf.Current().ReadToHost()

	diff, n := difference(got, want)
	return ValidationReport{
		Input:      input,
		Got:        got,
		Want:       want,
		Diff:       diff,
		Mismatches: n,
	}, nil
}

// difference returns the cellwise XOR of liveness and its population.
func difference(a, b *core.Matrix) (*core.Matrix, int) {
	diff := core.NewMatrix(a.Shape)
	n := 0
	for i := range diff.Cells {
		if (a.Cells[i] != 0) != (b.Cells[i] != 0) {
			diff.Cells[i] = 1
			n++
		}
	}
	return diff, n
}
