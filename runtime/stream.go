package runtime

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sbl8/conway/core"
)

// ErrEventNotReady is returned when an event is queried before the stream
// has executed its marker.
var ErrEventNotReady = errors.New("event not ready")

// op is one queued stream operation. Markers keep running after the
// stream has faulted so that waiters on events are always released.
type op struct {
	run    func() error
	marker bool
}

// Stream is an ordered, asynchronous queue of device operations. One
// goroutine executes the queue, so operations complete strictly in
// submission order. Streams carry no ordering relative to each other.
//
// The first device error poisons the stream: later operations are skipped
// and Synchronize keeps returning that error.
type Stream struct {
	dev *Device
	ops chan op

	submitMu sync.Mutex // serialises submission and Close
	closed   bool

	mu        sync.Mutex
	cond      *sync.Cond
	submitted uint64
	completed uint64
	err       error

	stopped chan struct{}
}

// NewStream creates a stream bound to the device.
func (d *Device) NewStream() *Stream {
	s := &Stream{
		dev:     d,
		ops:     make(chan op, d.opts.StreamDepth),
		stopped: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.stopped)
	for o := range s.ops {
		s.mu.Lock()
		skip := s.err != nil && !o.marker
		s.mu.Unlock()

		var err error
		if !skip {
			err = o.run()
		}

		s.mu.Lock()
		if err != nil && s.err == nil {
			s.err = err
		}
		s.completed++
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Stream) enqueue(o op) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: stream closed", core.ErrDevice)
	}

	s.mu.Lock()
	s.submitted++
	s.mu.Unlock()

	s.ops <- o
	return nil
}

// Enqueue schedules fn on the stream after every previously submitted
// operation. An error returned by fn poisons the stream.
func (s *Stream) Enqueue(fn func() error) error {
	return s.enqueue(op{run: fn})
}

// CopyToHost schedules a download of g into dst after every previously
// submitted operation. dst must not be read until the stream is synchronized.
func (s *Stream) CopyToHost(g *core.Grid, dst *core.Matrix) error {
	if dst == nil || dst.Shape != g.Shape() {
		return fmt.Errorf("%w: grid %s, host buffer mismatch", core.ErrShapeMismatch, g.Shape())
	}
	return s.enqueue(op{run: func() error {
		if g.Released() {
			return fmt.Errorf("%w: download from freed grid", core.ErrDevice)
		}
		return g.CopyToHost(dst)
	}})
}

// Synchronize blocks until every operation submitted before the call has
// completed and returns the stream's sticky error, if any.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.submitted
	for s.completed < target {
		s.cond.Wait()
	}
	return s.err
}

// Query reports whether the stream has drained, without blocking.
func (s *Stream) Query() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed == s.submitted
}

// Err returns the sticky error without waiting.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close drains the stream, stops its goroutine and returns its sticky error.
// Submitting to a closed stream fails with core.ErrDevice.
func (s *Stream) Close() error {
	s.submitMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ops)
	}
	s.submitMu.Unlock()

	<-s.stopped
	return s.Err()
}

// Event is a completion and timing marker placed on a stream.
type Event struct {
	mu   sync.Mutex
	at   time.Time
	done chan struct{}
}

// NewEvent returns an unrecorded event.
func NewEvent() *Event {
	return &Event{}
}

// Record places ev on s. The event completes, and captures its timestamp,
// when the stream reaches it. Re-recording resets the event.
func (s *Stream) Record(ev *Event) error {
	done := make(chan struct{})
	ev.mu.Lock()
	ev.done = done
	ev.at = time.Time{}
	ev.mu.Unlock()

	err := s.enqueue(op{marker: true, run: func() error {
		ev.mu.Lock()
		ev.at = time.Now()
		ev.mu.Unlock()
		close(done)
		return nil
	}})
	if err != nil {
		ev.mu.Lock()
		if ev.done == done {
			ev.done = nil
		}
		ev.mu.Unlock()
	}
	return err
}

// Query reports whether the stream has passed the event.
func (ev *Event) Query() bool {
	ev.mu.Lock()
	done := ev.done
	ev.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// Wait blocks until the stream passes the event. It fails with
// ErrEventNotReady if the event was never recorded.
func (ev *Event) Wait() error {
	ev.mu.Lock()
	done := ev.done
	ev.mu.Unlock()
	if done == nil {
		return ErrEventNotReady
	}
	<-done
	return nil
}

func (ev *Event) time() (time.Time, bool) {
	if !ev.Query() {
		return time.Time{}, false
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.at, true
}

// Elapsed returns the time between two completed events. Reading an event
// the stream has not reached yet fails with ErrEventNotReady.
func Elapsed(start, end *Event) (time.Duration, error) {
	t0, ok := start.time()
	if !ok {
		return 0, fmt.Errorf("%w: start marker", ErrEventNotReady)
	}
	t1, ok := end.time()
	if !ok {
		return 0, fmt.Errorf("%w: end marker", ErrEventNotReady)
	}
	return t1.Sub(t0), nil
}
