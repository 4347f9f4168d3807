package core

import "unsafe"

const (
	// CacheLineSize is the alignment every grid allocation starts on.
	CacheLineSize = 64
)

// IsAligned reports whether addr sits on a cache line boundary.
func IsAligned(addr uintptr) bool {
	return addr%CacheLineSize == 0
}

// AlignedSize rounds size up to the nearest cache line multiple.
func AlignedSize(size uintptr) uintptr {
	return (size + uintptr(CacheLineSize-1)) & ^uintptr(CacheLineSize-1)
}

// AlignedBytes allocates a zeroed byte slice whose first element is cache
// line aligned. Rows of 32-bit cells can then be viewed in place without
// copying.
func AlignedBytes(size int) []byte {
	if size <= 0 {
		return nil
	}
	buf := make([]byte, size+CacheLineSize-1)

	offset := uintptr(0)
	if mod := uintptr(unsafe.Pointer(&buf[0])) % CacheLineSize; mod != 0 {
		offset = CacheLineSize - mod
	}
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// addrRange returns the half-open address range backing b.
func addrRange(b []byte) (start, end uintptr) {
	if len(b) == 0 {
		return 0, 0
	}
	start = uintptr(unsafe.Pointer(&b[0]))
	return start, start + uintptr(len(b))
}
