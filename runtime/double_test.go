package runtime

import (
	"errors"
	"testing"

	"github.com/sbl8/conway/core"
)

func blinkerGrid(vertical bool) *core.Matrix {
	m := core.NewMatrix(core.Shape{H: 16, W: 16})
	for i := 7; i <= 9; i++ {
		if vertical {
			m.Set(i, 8, 1)
		} else {
			m.Set(8, i, 1)
		}
	}
	return m
}

func loadedBuffer(t *testing.T, d *Device, m *core.Matrix, dtype core.DType) *DoubleBuffer {
	t.Helper()
	buf, err := NewDoubleBuffer(d, m.Shape, dtype)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	if err := buf.Load(m); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return buf
}

func TestBlinkerOscillates(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	defer s.Close()

	horizontal, vertical := blinkerGrid(false), blinkerGrid(true)
	buf := loadedBuffer(t, d, horizontal, core.Int32)

	want := []*core.Matrix{vertical, horizontal, vertical, horizontal}
	for gen, w := range want {
		if err := buf.Step(s); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if err := s.Synchronize(); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}
		if got := buf.Current().ReadToHost(); !got.Equal(w) {
			t.Fatalf("generation %d:\n%swant\n%s", gen+1, got, w)
		}
	}
}

func TestBlockIsStill(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	block := core.NewMatrix(core.Shape{H: 12, W: 10})
	block.Set(4, 4, 1)
	block.Set(4, 5, 1)
	block.Set(5, 4, 1)
	block.Set(5, 5, 1)
	buf := loadedBuffer(t, d, block, core.Uint8)

	for gen := 1; gen <= 9; gen++ {
		if err := buf.Step(nil); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if got := buf.Current().ReadToHost(); !got.Equal(block) {
			t.Fatalf("block changed at generation %d:\n%s", gen, got)
		}
	}
}

func TestEmptyGridStaysEmpty(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	defer s.Close()

	buf := loadedBuffer(t, d, core.NewMatrix(core.Shape{H: 20, W: 33}), core.Uint8)
	buf.Next().Fill(1)
	if err := buf.Run(25, s); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if pop := buf.Current().ReadToHost().Population(); pop != 0 {
		t.Errorf("population = %d after 25 generations of an empty grid", pop)
	}
}

func TestDoubleBufferRoles(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	buf, err := NewDoubleBuffer(d, core.Shape{H: 3, W: 3}, core.Uint8)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	a, b := buf.Current(), buf.Next()
	if a == b || a.Overlaps(b) {
		t.Fatal("ping and pong must be distinct storage")
	}

	buf.Advance()
	if buf.Current() != b || buf.Next() != a {
		t.Error("Advance did not swap roles")
	}
	if buf.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", buf.Generation())
	}

	if err := buf.Load(core.NewMatrix(core.Shape{H: 3, W: 4})); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("Load shape error = %v", err)
	}
	if err := buf.Load(core.NewMatrix(core.Shape{H: 3, W: 3})); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if buf.Generation() != 0 {
		t.Errorf("Load should reset the generation, got %d", buf.Generation())
	}
}

func TestDoubleBufferFailedStepKeepsRoles(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	buf, err := NewDoubleBuffer(d, core.Shape{H: 3, W: 3}, core.Uint8)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	cur := buf.Current()
	d.Free(buf.Next())

	if err := buf.Step(nil); !errors.Is(err, core.ErrDevice) {
		t.Fatalf("Step error = %v, want ErrDevice", err)
	}
	if buf.Current() != cur || buf.Generation() != 0 {
		t.Error("failed step must not advance the buffer")
	}
}

func TestDoubleBufferArenaExhausted(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, &Options{Workers: 1, ArenaSize: 256})
	if _, err := NewDoubleBuffer(d, core.Shape{H: 16, W: 16}, core.Uint8); !errors.Is(err, core.ErrDevice) {
		t.Fatalf("NewDoubleBuffer error = %v, want ErrDevice", err)
	}
	if used := d.Arena().UsedSize(); used != 0 {
		t.Errorf("failed pair allocation leaked %d bytes", used)
	}

	buf, err := NewDoubleBuffer(d, core.Shape{H: 8, W: 16}, core.Uint8)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	buf.Free()
	if used := d.Arena().UsedSize(); used != 0 {
		t.Errorf("Free left %d bytes allocated", used)
	}
}
