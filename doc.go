// Package conway implements a Conway's Game of Life step kernel for a
// parallel compute device.
//
// One invocation advances a grid by exactly one generation under the
// B3/S23 rule, reading from one buffer and writing to a distinct one.
// Cells outside the grid are permanently dead (zero padding); there is no
// wrap-around. Steps are dispatched onto a Device as a parallel-for over
// row bands and may be chained on a Stream, so many generations can be
// submitted before a single synchronization.
//
// # Architecture Overview
//
// The engine consists of several key components:
//
//   - Grid: cache-aligned device storage for uint8 or int32 cells
//   - Kernels: neighbor counting, the transition rule and the row-band step
//   - Runtime: worker-pool Device, memory Arena, ordered Streams and Events
//   - DoubleBuffer: ping-pong grid pair with an explicit role index
//
// # Basic Usage
//
//	dev, err := runtime.NewDevice(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	buf, err := runtime.NewDoubleBuffer(dev, core.Shape{H: 512, W: 512}, core.Uint8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := buf.Load(pattern.Random(core.Shape{H: 512, W: 512}, 1)); err != nil {
//	    log.Fatal(err)
//	}
//
//	s := dev.NewStream()
//	if err := buf.Run(1000, s); err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Synchronize(); err != nil {
//	    log.Fatal(err)
//	}
//	final := buf.Current().ReadToHost()
//
// # Package Structure
//
//   - core: Shape, DType, Grid, host Matrix and the error taxonomy
//   - kernels: step kernel, argument checks and the convolution reference
//   - runtime: Device, Arena, Stream, Event and DoubleBuffer
//   - pattern: plaintext and RLE loaders, random fill and placement
//   - harness: throughput profiling and reference validation drivers
//   - display: SDL2 window for animation
//   - cmd: Command-line tools (lifeperf, lifecheck, lifeshow)
package conway
