package core

import (
	"fmt"
	"math/rand"
	"strings"
)

// Matrix is a host-resident, row-major cell matrix.
type Matrix struct {
	Shape Shape
	Cells []uint8
}

// NewMatrix returns an all-dead matrix of the given shape.
func NewMatrix(shape Shape) *Matrix {
	n := 0
	if shape.Valid() {
		n = shape.Cells()
	}
	return &Matrix{Shape: shape, Cells: make([]uint8, n)}
}

// MatrixFromRows builds a matrix from equally long rows.
func MatrixFromRows(rows [][]uint8) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidShape)
	}
	m := NewMatrix(Shape{H: len(rows), W: len(rows[0])})
	for r, row := range rows {
		if len(row) != m.Shape.W {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrShapeMismatch, r, len(row), m.Shape.W)
		}
		copy(m.Cells[r*m.Shape.W:], row)
	}
	return m, nil
}

// RandomMatrix fills a matrix with independent 0/1 cells.
func RandomMatrix(shape Shape, rng *rand.Rand) *Matrix {
	m := NewMatrix(shape)
	for i := range m.Cells {
		m.Cells[i] = uint8(rng.Intn(2))
	}
	return m
}

// At returns the cell at (r, c).
func (m *Matrix) At(r, c int) uint8 {
	return m.Cells[r*m.Shape.W+c]
}

// Set stores v at (r, c).
func (m *Matrix) Set(r, c int, v uint8) {
	m.Cells[r*m.Shape.W+c] = v
}

// Alive reports whether the cell at (r, c) is nonzero.
func (m *Matrix) Alive(r, c int) bool {
	return m.At(r, c) != 0
}

// Population counts live cells.
func (m *Matrix) Population() int {
	n := 0
	for _, v := range m.Cells {
		if v != 0 {
			n++
		}
	}
	return n
}

// Equal compares two matrices cell by cell on liveness.
func (m *Matrix) Equal(o *Matrix) bool {
	if o == nil || m.Shape != o.Shape {
		return false
	}
	for i, v := range m.Cells {
		if (v != 0) != (o.Cells[i] != 0) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{Shape: m.Shape, Cells: make([]uint8, len(m.Cells))}
	copy(c.Cells, m.Cells)
	return c
}

// String renders live cells as 'O' and dead cells as '.', one row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.Grow(m.Shape.H * (m.Shape.W + 1))
	for r := 0; r < m.Shape.H; r++ {
		for c := 0; c < m.Shape.W; c++ {
			if m.Alive(r, c) {
				sb.WriteByte('O')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
