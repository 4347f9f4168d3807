package runtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sbl8/conway/core"
)

func TestStreamExecutesInSubmissionOrder(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, &Options{Workers: 2, StreamDepth: 4})
	s := d.NewStream()
	defer s.Close()

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		if err := s.Enqueue(func() error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if len(order) != 100 {
		t.Fatalf("ran %d operations, want 100", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("operation %d ran in position %d", v, i)
		}
	}
}

func TestStreamStepDoesNotBlock(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, &Options{Workers: 1})
	s := d.NewStream()
	defer s.Close()

	gate := make(chan struct{})
	if err := s.Enqueue(func() error { <-gate; return nil }); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	buf, err := NewDoubleBuffer(d, core.Shape{H: 8, W: 8}, core.Uint8)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	returned := make(chan error, 1)
	go func() { returned <- buf.Run(3, s) }()

	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Step blocked on a busy stream")
	}
	if s.Query() {
		t.Error("stream reported drained while gated")
	}

	close(gate)
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if !s.Query() {
		t.Error("stream should be drained after Synchronize")
	}
}

func TestEventElapsedRequiresDrain(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	defer s.Close()

	start, end := NewEvent(), NewEvent()
	if _, err := Elapsed(start, end); !errors.Is(err, ErrEventNotReady) {
		t.Fatalf("Elapsed on unrecorded events error = %v", err)
	}
	if err := end.Wait(); !errors.Is(err, ErrEventNotReady) {
		t.Fatalf("Wait on unrecorded event error = %v", err)
	}

	gate := make(chan struct{})
	if err := s.Record(start); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Enqueue(func() error { <-gate; return nil }); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := s.Record(end); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := start.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if _, err := Elapsed(start, end); !errors.Is(err, ErrEventNotReady) {
		t.Fatalf("Elapsed before drain error = %v, want ErrEventNotReady", err)
	}

	time.Sleep(2 * time.Millisecond)
	close(gate)
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	elapsed, err := Elapsed(start, end)
	if err != nil {
		t.Fatalf("Elapsed failed: %v", err)
	}
	if elapsed < 2*time.Millisecond {
		t.Errorf("Elapsed = %v, want at least the gated interval", elapsed)
	}
}

func TestStreamCopyToHost(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	defer s.Close()

	buf, err := NewDoubleBuffer(d, core.Shape{H: 5, W: 5}, core.Uint8)
	if err != nil {
		t.Fatalf("NewDoubleBuffer failed: %v", err)
	}
	blinker := core.NewMatrix(core.Shape{H: 5, W: 5})
	blinker.Set(2, 1, 1)
	blinker.Set(2, 2, 1)
	blinker.Set(2, 3, 1)
	if err := buf.Load(blinker); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := buf.Step(s); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	out := core.NewMatrix(blinker.Shape)
	if err := s.CopyToHost(buf.Current(), out); err != nil {
		t.Fatalf("CopyToHost failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if !out.Alive(1, 2) || !out.Alive(3, 2) || out.Alive(2, 1) {
		t.Errorf("download does not hold the vertical phase:\n%s", out)
	}

	if err := s.CopyToHost(buf.Current(), core.NewMatrix(core.Shape{H: 2, W: 2})); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("CopyToHost shape error = %v", err)
	}
}

func TestStreamClosed(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if err := s.Enqueue(func() error { return nil }); !errors.Is(err, core.ErrDevice) {
		t.Errorf("Enqueue on closed stream error = %v, want ErrDevice", err)
	}
	ev := NewEvent()
	if err := s.Record(ev); !errors.Is(err, core.ErrDevice) {
		t.Errorf("Record on closed stream error = %v, want ErrDevice", err)
	}
	if ev.Query() {
		t.Error("event recorded on a closed stream should not complete")
	}
}

func TestStreamMarkersRunAfterFault(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, nil)
	s := d.NewStream()
	defer s.Close()

	boom := errors.New("boom")
	_ = s.Enqueue(func() error { return boom })
	ev := NewEvent()
	if err := s.Record(ev); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := ev.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if err := s.Synchronize(); !errors.Is(err, boom) {
		t.Errorf("Synchronize error = %v, want the first failure", err)
	}
}

func TestIndependentStreams(t *testing.T) {
	t.Parallel()
	d := newTestDevice(t, &Options{Workers: 4})

	var wg sync.WaitGroup
	results := make([]*core.Matrix, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := d.NewStream()
			defer s.Close()
			buf, err := NewDoubleBuffer(d, core.Shape{H: 16, W: 16}, core.Uint8)
			if err != nil {
				t.Error(err)
				return
			}
			block := core.NewMatrix(core.Shape{H: 16, W: 16})
			block.Set(7, 7, 1)
			block.Set(7, 8, 1)
			block.Set(8, 7, 1)
			block.Set(8, 8, 1)
			if err := buf.Load(block); err != nil {
				t.Error(err)
				return
			}
			if err := buf.Run(20+i, s); err != nil {
				t.Error(err)
				return
			}
			if err := s.Synchronize(); err != nil {
				t.Error(err)
				return
			}
			results[i] = buf.Current().ReadToHost()
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] == nil || !results[i].Equal(results[0]) {
			t.Errorf("stream %d diverged", i)
		}
	}
}
