// Package harness drives the step kernel end to end.
//
// Profile measures sustained throughput the way a batch client uses the
// device: warm up, then chain many steps on a single stream between two
// timing events and synchronize once. Validate runs one device step on a
// small random grid and compares it bit for bit against the convolution
// reference in package kernels.
package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/pattern"
	"github.com/sbl8/conway/runtime"
)

// ErrInvalidOptions reports a harness configuration that cannot run.
var ErrInvalidOptions = errors.New("invalid harness options")

// ProfileOptions configures a throughput run.
type ProfileOptions struct {
	Shape      core.Shape
	DType      core.DType
	Warmup     int
	Iterations int
	Seed       int64
}

// DefaultProfileOptions returns a 1024x1024 uint8 run of 100 timed steps
// after 5 warmup steps.
func DefaultProfileOptions() ProfileOptions {
	return ProfileOptions{
		Shape:      core.Shape{H: 1024, W: 1024},
		DType:      core.Uint8,
		Warmup:     5,
		Iterations: 100,
		Seed:       1,
	}
}

// ProfileReport holds the outcome of a throughput run.
type ProfileReport struct {
	Shape      core.Shape
	DType      core.DType
	Iterations int
	Elapsed    time.Duration
	// FPS is generations per second over the timed batch.
	FPS float64
	// CellsPerSecond is FPS times the cell count.
	CellsPerSecond float64
	// Population is the live-cell count after the final generation.
	Population int
}

// Profile runs opts.Warmup untimed steps followed by opts.Iterations timed
// steps on one stream of dev.
func Profile(dev *runtime.Device, opts ProfileOptions) (ProfileReport, error) {
	if opts.Iterations <= 0 {
		return ProfileReport{}, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidOptions, opts.Iterations)
	}
	if opts.Warmup < 0 {
		return ProfileReport{}, fmt.Errorf("%w: negative warmup %d", ErrInvalidOptions, opts.Warmup)
	}

	buf, err := runtime.NewDoubleBuffer(dev, opts.Shape, opts.DType)
	if err != nil {
		return ProfileReport{}, err
	}
	defer buf.Free()
	if err := buf.Load(pattern.Random(opts.Shape, opts.Seed)); err != nil {
		return ProfileReport{}, err
	}

	s := dev.NewStream()
	defer s.Close()

	if err := buf.Run(opts.Warmup, s); err != nil {
		return ProfileReport{}, fmt.Errorf("warmup: %w", err)
	}

	start, end := runtime.NewEvent(), runtime.NewEvent()
	if err := s.Record(start); err != nil {
		return ProfileReport{}, err
	}
	if err := buf.Run(opts.Iterations, s); err != nil {
		return ProfileReport{}, err
	}
	if err := s.Record(end); err != nil {
		return ProfileReport{}, err
	}
	if err := s.Synchronize(); err != nil {
		return ProfileReport{}, err
	}

	elapsed, err := runtime.Elapsed(start, end)
	if err != nil {
		return ProfileReport{}, err
	}

	report := ProfileReport{
		Shape:      opts.Shape,
		DType:      opts.DType,
		Iterations: opts.Iterations,
		Elapsed:    elapsed,
		Population: buf.Current().ReadToHost().Population(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		report.FPS = float64(opts.Iterations) / secs
		report.CellsPerSecond = report.FPS * float64(opts.Shape.Cells())
	}
	return report, nil
}
