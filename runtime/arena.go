package runtime

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sbl8/conway/core"
)

// ErrArenaExhausted is returned when no free region can hold an allocation.
var ErrArenaExhausted = errors.New("arena exhausted")

// ArenaRegion is a cache-aligned span of the arena buffer.
type ArenaRegion struct {
	Offset uintptr
	Size   uintptr
}

func (r ArenaRegion) end() uintptr { return r.Offset + r.Size }

// Arena is a fixed-capacity block of device memory from which grids are
// carved. Allocation is first-fit over a sorted free list; released
// regions are coalesced with their neighbours. Safe for concurrent use.
type Arena struct {
	mu     sync.Mutex
	buffer []byte
	free   []ArenaRegion // sorted by Offset, never adjacent
	used   uintptr
}

// NewArena reserves totalSize bytes, rounded up to a cache line multiple.
func NewArena(totalSize uintptr) (*Arena, error) {
	if totalSize == 0 {
		return nil, fmt.Errorf("cannot create zero-size arena")
	}
	size := core.AlignedSize(totalSize)
	buf := core.AlignedBytes(int(size))
	if buf == nil {
		return nil, fmt.Errorf("failed to allocate arena buffer of size %d", size)
	}
	return &Arena{
		buffer: buf,
		free:   []ArenaRegion{{Offset: 0, Size: size}},
	}, nil
}

// Allocate reserves a region of at least size bytes. The region starts on
// a cache line boundary and is zeroed.
func (a *Arena) Allocate(size uintptr) (ArenaRegion, error) {
	if size == 0 {
		return ArenaRegion{}, fmt.Errorf("zero-size allocation")
	}
	size = core.AlignedSize(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.free {
		if r.Size < size {
			continue
		}
		region := ArenaRegion{Offset: r.Offset, Size: size}
		if r.Size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = ArenaRegion{Offset: r.Offset + size, Size: r.Size - size}
		}
		a.used += size
		clear(a.buffer[region.Offset:region.end()])
		return region, nil
	}
	return ArenaRegion{}, fmt.Errorf("%w: requested %d bytes, %d of %d in use",
		ErrArenaExhausted, size, a.used, len(a.buffer))
}

// Release returns a region obtained from Allocate.
func (a *Arena) Release(r ArenaRegion) {
	if r.Size == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].Offset >= r.Offset })
	a.free = append(a.free, ArenaRegion{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = r
	a.used -= r.Size

	// Merge with the following region, then with the preceding one.
	if i+1 < len(a.free) && a.free[i].end() == a.free[i+1].Offset {
		a.free[i].Size += a.free[i+1].Size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].end() == a.free[i].Offset {
		a.free[i-1].Size += a.free[i].Size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

// Bytes returns the first n bytes of region r with capacity clamped to n.
func (a *Arena) Bytes(r ArenaRegion, n uintptr) []byte {
	if n > r.Size {
		n = r.Size
	}
	return a.buffer[r.Offset : r.Offset+n : r.Offset+n]
}

// TotalSize returns the arena capacity.
func (a *Arena) TotalSize() uintptr {
	return uintptr(len(a.buffer))
}

// UsedSize returns the bytes currently allocated.
func (a *Arena) UsedSize() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// RemainingSize returns the bytes not currently allocated. Fragmentation
// may prevent a single allocation of this size.
func (a *Arena) RemainingSize() uintptr {
	return a.TotalSize() - a.UsedSize()
}
