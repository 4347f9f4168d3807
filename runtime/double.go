package runtime

import (
	"fmt"

	"github.com/sbl8/conway/core"
)

// DoubleBuffer owns a ping-pong pair of same-shaped grids and the index of
// the one holding the current generation. Each step reads Current and
// writes Next; Advance flips the roles.
//
// Advancing right after enqueueing a step is safe: every later operation
// on the same stream observes the step's output.
type DoubleBuffer struct {
	dev        *Device
	bufs       [2]*core.Grid
	cur        int
	generation int
}

// NewDoubleBuffer allocates both grids on dev.
func NewDoubleBuffer(dev *Device, shape core.Shape, dtype core.DType) (*DoubleBuffer, error) {
	ping, err := dev.Allocate(shape, dtype)
	if err != nil {
		return nil, fmt.Errorf("allocate ping buffer: %w", err)
	}
	pong, err := dev.Allocate(shape, dtype)
	if err != nil {
		dev.Free(ping)
		return nil, fmt.Errorf("allocate pong buffer: %w", err)
	}
	return &DoubleBuffer{dev: dev, bufs: [2]*core.Grid{ping, pong}}, nil
}

// Current returns the grid holding the latest generation.
func (b *DoubleBuffer) Current() *core.Grid { return b.bufs[b.cur] }

// Next returns the grid the next step writes.
func (b *DoubleBuffer) Next() *core.Grid { return b.bufs[1-b.cur] }

// Generation returns the number of steps taken since the last Load.
func (b *DoubleBuffer) Generation() int { return b.generation }

// Advance swaps the roles of the two grids.
func (b *DoubleBuffer) Advance() {
	b.cur = 1 - b.cur
	b.generation++
}

// Load uploads m as generation zero. Pending steps must be synchronized first.
func (b *DoubleBuffer) Load(m *core.Matrix) error {
	if err := b.Current().SetFromHost(m); err != nil {
		return err
	}
	b.generation = 0
	return nil
}

// Step submits Current -> Next on s (nil runs synchronously) and advances.
// The roles are left unchanged when the step is rejected or, with a nil
// stream, fails. On a stream the roles advance at submission; a device
// fault surfaces later through s.Synchronize, after which Current holds
// undefined contents.
func (b *DoubleBuffer) Step(s *Stream) error {
	if err := b.dev.Step(b.Current(), b.Next(), s); err != nil {
		return err
	}
	b.Advance()
	return nil
}

// Run submits n steps on s.
func (b *DoubleBuffer) Run(n int, s *Stream) error {
	for i := 0; i < n; i++ {
		if err := b.Step(s); err != nil {
			return fmt.Errorf("generation %d: %w", b.generation, err)
		}
	}
	return nil
}

// Free releases both grids.
func (b *DoubleBuffer) Free() {
	b.dev.Free(b.bufs[0])
	b.dev.Free(b.bufs[1])
}
