// Package runtime implements the execution substrate of the conway engine.
//
// A Device stands in for a massively parallel accelerator: it owns a pool
// of worker goroutines, an optional fixed-size memory arena for grids, and
// per-device execution statistics. The step kernel is dispatched onto the
// device as a parallel-for over row bands of the grid.
//
// Key components:
//   - Device: worker pool, grid allocation and step dispatch
//   - Arena: fixed-capacity device memory with first-fit allocation
//   - Stream: ordered asynchronous queue of device operations
//   - Event: timing marker recorded on a stream
//   - DoubleBuffer: ping-pong grid pair with an explicit role index
//
// Execution model:
//  1. Allocate two grids of the same shape and upload the initial state
//  2. Call Step(read, write, stream) once per generation, swapping roles
//  3. Operations on one stream complete in submission order, so many
//     steps may be chained before a single Synchronize
//  4. A nil stream runs the step on the calling goroutine and blocks
//
// Argument errors (shape, aliasing, cell type) are reported synchronously
// by Step and nothing is enqueued. Failures of the dispatch itself are
// reported as core.ErrDevice and, on a stream, poison every later
// operation of that stream.
package runtime

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/kernels"
)

// stepRows is the per-band kernel; tests swap it to inject faults.
var stepRows = kernels.StepRows

// Options configures a Device.
type Options struct {
	// Workers is the number of goroutines executing row bands.
	Workers int
	// ArenaSize caps device memory in bytes. Zero allocates every grid
	// on the Go heap without a cap.
	ArenaSize uintptr
	// StreamDepth bounds the number of queued operations per stream;
	// submission blocks while a stream's queue is full.
	StreamDepth int
	// EnableStats records dispatch counts and latency.
	EnableStats bool
}

// DefaultOptions provides sensible device defaults.
func DefaultOptions() Options {
	return Options{
		Workers:     runtime.NumCPU(),
		ArenaSize:   0,
		StreamDepth: 64,
		EnableStats: false,
	}
}

// ExecutionStats tracks device activity.
type ExecutionStats struct {
	Dispatches     int64
	CellsUpdated   int64
	AverageLatency time.Duration
	Faults         int64
}

// Device executes step kernels on a pool of worker goroutines.
type Device struct {
	opts  Options
	arena *Arena
	tasks chan task

	// lifeMu guards closed and the tasks channel against Close while a
	// dispatch is in flight.
	lifeMu  sync.RWMutex
	closed  bool
	workers sync.WaitGroup

	memMu   sync.Mutex
	regions map[*core.Grid]ArenaRegion

	statsMu sync.Mutex
	stats   ExecutionStats
}

type task struct {
	read, write *core.Grid
	band        kernels.Band
	done        *sync.WaitGroup
	fault       *faultSlot
}

// faultSlot keeps the first failure reported by any band of a dispatch.
type faultSlot struct {
	err atomic.Pointer[error]
}

func (f *faultSlot) set(err error) {
	f.err.CompareAndSwap(nil, &err)
}

func (f *faultSlot) get() error {
	if p := f.err.Load(); p != nil {
		return *p
	}
	return nil
}

// NewDevice starts the worker pool. A nil opts uses DefaultOptions.
func NewDevice(opts *Options) (*Device, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.StreamDepth <= 0 {
		o.StreamDepth = DefaultOptions().StreamDepth
	}

	d := &Device{
		opts:    o,
		tasks:   make(chan task, o.Workers),
		regions: make(map[*core.Grid]ArenaRegion),
	}
	if o.ArenaSize > 0 {
		arena, err := NewArena(o.ArenaSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrDevice, err)
		}
		d.arena = arena
	}

	for i := 0; i < o.Workers; i++ {
		d.workers.Add(1)
		go d.worker()
	}
	return d, nil
}

// Workers returns the size of the worker pool.
func (d *Device) Workers() int {
	return d.opts.Workers
}

// Arena returns the device memory arena, or nil when grids live on the Go heap.
func (d *Device) Arena() *Arena {
	return d.arena
}

// Allocate returns a zero-initialised grid in device memory.
func (d *Device) Allocate(shape core.Shape, dtype core.DType) (*core.Grid, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidShape, shape)
	}
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, dtype)
	}
	if d.arena == nil {
		return core.NewGrid(shape, dtype)
	}

	size := uintptr(shape.Cells() * dtype.Size())
	region, err := d.arena.Allocate(size)
	if err != nil {
		return nil, fmt.Errorf("%w: out of memory allocating %s %s: %v", core.ErrDevice, shape, dtype, err)
	}
	g, err := core.NewGridFromBytes(shape, dtype, d.arena.Bytes(region, size))
	if err != nil {
		d.arena.Release(region)
		return nil, err
	}

	d.memMu.Lock()
	d.regions[g] = region
	d.memMu.Unlock()
	return g, nil
}

// Free releases a grid's storage. Any step still queued against g will
// fail with core.ErrDevice; callers should synchronize first.
func (d *Device) Free(g *core.Grid) {
	if g == nil || g.Released() {
		return
	}
	g.Release()

	d.memMu.Lock()
	region, ok := d.regions[g]
	delete(d.regions, g)
	d.memMu.Unlock()

	if ok {
		d.arena.Release(region)
	}
}

// Step computes the generation following read into write.
//
// The arguments are validated before anything is queued; a shape, aliasing
// or cell type error is returned immediately and write is untouched. With
// a nil stream the step runs now and Step returns its outcome. Otherwise
// the step is enqueued on s and Step returns without waiting; completion
// and any core.ErrDevice are observed through s.Synchronize.
func (d *Device) Step(read, write *core.Grid, s *Stream) error {
	if err := kernels.CheckStep(read, write); err != nil {
		return err
	}
	if s == nil {
		return d.launch(read, write)
	}
	return s.enqueue(op{run: func() error { return d.launch(read, write) }})
}

// launch dispatches one generation over the worker pool and waits for it.
func (d *Device) launch(read, write *core.Grid) error {
	d.lifeMu.RLock()
	defer d.lifeMu.RUnlock()

	if d.closed {
		return fmt.Errorf("%w: device closed", core.ErrDevice)
	}
	if read.Released() || write.Released() {
		return d.fail(fmt.Errorf("%w: step on freed grid", core.ErrDevice))
	}

	start := time.Now()
	bands := kernels.Partition(read.Shape(), d.opts.Workers)
	fault := &faultSlot{}
	var done sync.WaitGroup
	done.Add(len(bands))

	if len(bands) == 1 {
		d.runTask(task{read: read, write: write, band: bands[0], done: &done, fault: fault})
	} else {
		for _, b := range bands {
			d.tasks <- task{read: read, write: write, band: b, done: &done, fault: fault}
		}
	}
	done.Wait()

	if err := fault.get(); err != nil {
		return d.fail(err)
	}
	if d.opts.EnableStats {
		d.record(int64(read.Len()), time.Since(start))
	}
	return nil
}

func (d *Device) worker() {
	defer d.workers.Done()
	for t := range d.tasks {
		d.runTask(t)
	}
}

func (d *Device) runTask(t task) {
	defer t.done.Done()
	defer func() {
		if r := recover(); r != nil {
			t.fault.set(fmt.Errorf("%w: kernel fault in rows [%d,%d): %v",
				core.ErrDevice, t.band.Start, t.band.End, r))
		}
	}()
	stepRows(t.read, t.write, t.band.Start, t.band.End)
}

func (d *Device) fail(err error) error {
	if d.opts.EnableStats {
		d.statsMu.Lock()
		d.stats.Faults++
		d.statsMu.Unlock()
	}
	return err
}

// record folds one dispatch into the running statistics.
func (d *Device) record(cells int64, latency time.Duration) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()

	d.stats.Dispatches++
	d.stats.CellsUpdated += cells
	n := time.Duration(d.stats.Dispatches)
	d.stats.AverageLatency += (latency - d.stats.AverageLatency) / n
}

// Stats returns a copy of the execution statistics.
func (d *Device) Stats() ExecutionStats {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	return d.stats
}

// Close stops the worker pool. Streams should be closed first; later
// dispatches fail with core.ErrDevice.
func (d *Device) Close() {
	d.lifeMu.Lock()
	if d.closed {
		d.lifeMu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.lifeMu.Unlock()

	d.workers.Wait()
}
