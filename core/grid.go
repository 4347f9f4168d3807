// Package core provides the storage primitives of the conway step engine.
//
// A Grid is a fixed-shape, row-major block of cell states living in
// device-addressable memory. It carries no simulation behaviour: the
// kernels package computes generations and the runtime package owns
// allocation, dispatch and ordering. A Matrix is the host-side
// counterpart used for uploads, downloads and pattern loading.
//
// Key components:
//   - Shape: grid dimensions, fixed for the lifetime of a buffer
//   - DType: the fixed-width cell representation (Uint8, Int32, Float32)
//   - Grid: cache-aligned cell storage with host transfer operations
//   - Matrix: host-resident 0/1 cell matrix
//   - Error taxonomy: ErrShapeMismatch, ErrAliasing, ErrUnsupportedType, ErrDevice
//
// Any nonzero cell value is treated as alive. Values are stored as given;
// nothing in this package clamps them to {0,1}.
package core

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Shape is the (rows, columns) extent of a grid.
type Shape struct {
	H int
	W int
}

// Cells returns H*W.
func (s Shape) Cells() int {
	return s.H * s.W
}

// Valid reports whether both dimensions are positive.
func (s Shape) Valid() bool {
	return s.H > 0 && s.W > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.H, s.W)
}

// DType identifies the fixed-width representation of a cell.
type DType uint8

// Cell representations. Uint8 and Int32 are processed by the step kernel;
// Float32 can be stored and transferred but not stepped.
const (
	Invalid DType = iota
	Uint8
	Int32
	Float32
)

// Size returns the width of one cell in bytes.
func (d DType) Size() int {
	switch d {
	case Uint8:
		return 1
	case Int32, Float32:
		return 4
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// ParseDType maps a dtype name back to its DType.
func ParseDType(name string) (DType, error) {
	switch name {
	case "uint8", "u8":
		return Uint8, nil
	case "int32", "i32":
		return Int32, nil
	case "float32", "f32":
		return Float32, nil
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Grid is a rectangular block of cells stored row-major in one aligned
// byte slice. Shape and dtype never change after construction.
type Grid struct {
	shape    Shape
	dtype    DType
	data     []byte
	released atomic.Bool
}

// NewGrid allocates a zeroed, cache-aligned grid on the Go heap.
func NewGrid(shape Shape, dtype DType) (*Grid, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, shape)
	}
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dtype)
	}
	return &Grid{
		shape: shape,
		dtype: dtype,
		data:  AlignedBytes(shape.Cells() * dtype.Size()),
	}, nil
}

// NewGridFromBytes wraps caller-provided storage. buf must hold exactly
// shape.Cells() cells of dtype and, for 4-byte cells, be 4-byte aligned.
// The grid takes ownership of buf.
func NewGridFromBytes(shape Shape, dtype DType, buf []byte) (*Grid, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, shape)
	}
	size := dtype.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, dtype)
	}
	if len(buf) != shape.Cells()*size {
		return nil, fmt.Errorf("%w: %s %s needs %d bytes, got %d",
			ErrShapeMismatch, shape, dtype, shape.Cells()*size, len(buf))
	}
	if start, _ := addrRange(buf); start%uintptr(size) != 0 {
		return nil, fmt.Errorf("buffer at %#x not aligned to %d bytes", start, size)
	}
	return &Grid{shape: shape, dtype: dtype, data: buf}, nil
}

// Shape returns the grid dimensions.
func (g *Grid) Shape() Shape { return g.shape }

// DType returns the cell representation.
func (g *Grid) DType() DType { return g.dtype }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.shape.Cells() }

// Bytes exposes the raw storage.
func (g *Grid) Bytes() []byte { return g.data }

// Release marks the storage as returned to its allocator. Kernel use of a
// released grid is a device fault.
func (g *Grid) Release() {
	g.released.Store(true)
}

// Released reports whether Release has been called.
func (g *Grid) Released() bool {
	return g.released.Load()
}

// Overlaps reports whether g and o share any byte of storage.
func (g *Grid) Overlaps(o *Grid) bool {
	if g == nil || o == nil {
		return false
	}
	if g == o {
		return true
	}
	gs, ge := addrRange(g.data)
	ostart, oend := addrRange(o.data)
	if gs == ge || ostart == oend {
		return false
	}
	return gs < oend && ostart < ge
}

// Uint8s returns the cells as []uint8, or nil if the dtype differs.
func (g *Grid) Uint8s() []uint8 {
	if g.dtype != Uint8 {
		return nil
	}
	return g.data
}

// Int32s returns the cells as []int32, or nil if the dtype differs.
func (g *Grid) Int32s() []int32 {
	if g.dtype != Int32 || len(g.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&g.data[0])), len(g.data)/4)
}

// Float32s returns the cells as []float32, or nil if the dtype differs.
func (g *Grid) Float32s() []float32 {
	if g.dtype != Float32 || len(g.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&g.data[0])), len(g.data)/4)
}

// Fill sets every cell to v.
func (g *Grid) Fill(v uint8) {
	switch g.dtype {
	case Uint8:
		cells := g.Uint8s()
		for i := range cells {
			cells[i] = v
		}
	case Int32:
		cells := g.Int32s()
		for i := range cells {
			cells[i] = int32(v)
		}
	case Float32:
		cells := g.Float32s()
		for i := range cells {
			cells[i] = float32(v)
		}
	}
}

// At returns the cell at (r, c) widened to int64.
func (g *Grid) At(r, c int) int64 {
	i := r*g.shape.W + c
	switch g.dtype {
	case Uint8:
		return int64(g.data[i])
	case Int32:
		return int64(g.Int32s()[i])
	case Float32:
		return int64(g.Float32s()[i])
	}
	return 0
}

// SetFromHost copies m into the grid. The shapes must match exactly;
// on mismatch the grid is left untouched.
func (g *Grid) SetFromHost(m *Matrix) error {
	if m == nil || m.Shape != g.shape {
		var got Shape
		if m != nil {
			got = m.Shape
		}
		return fmt.Errorf("%w: grid %s, host data %s", ErrShapeMismatch, g.shape, got)
	}
	if len(m.Cells) != m.Shape.Cells() {
		return fmt.Errorf("%w: host data %s carries %d cells", ErrShapeMismatch, m.Shape, len(m.Cells))
	}

	switch g.dtype {
	case Uint8:
		copy(g.data, m.Cells)
	case Int32:
		cells := g.Int32s()
		for i, v := range m.Cells {
			cells[i] = int32(v)
		}
	case Float32:
		cells := g.Float32s()
		for i, v := range m.Cells {
			cells[i] = float32(v)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, g.dtype)
	}
	return nil
}

// ReadToHost copies the whole grid into a new Matrix.
func (g *Grid) ReadToHost() *Matrix {
	m := NewMatrix(g.shape)
	// Cannot fail: m has the grid's shape and NewGrid only admits sized dtypes.
	_ = g.CopyToHost(m)
	return m
}

// CopyToHost copies the whole grid into dst, which must have the same shape.
// Cell values outside the uint8 range are reported as 1.
func (g *Grid) CopyToHost(dst *Matrix) error {
	if dst == nil || dst.Shape != g.shape || len(dst.Cells) != g.shape.Cells() {
		return fmt.Errorf("%w: grid %s, host buffer mismatch", ErrShapeMismatch, g.shape)
	}

	switch g.dtype {
	case Uint8:
		copy(dst.Cells, g.data)
	case Int32:
		for i, v := range g.Int32s() {
			dst.Cells[i] = hostCell(int64(v))
		}
	case Float32:
		for i, v := range g.Float32s() {
			if v != 0 {
				dst.Cells[i] = hostCell(int64(v))
				if dst.Cells[i] == 0 {
					dst.Cells[i] = 1
				}
			} else {
				dst.Cells[i] = 0
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, g.dtype)
	}
	return nil
}

func hostCell(v int64) uint8 {
	if v >= 0 && v <= 255 {
		return uint8(v)
	}
	return 1
}
