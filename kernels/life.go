// Package kernels implements the Game of Life step kernel.
//
// The kernel is split into three substrate-agnostic pieces:
//   - Neighbour counting with zero padding: cells outside the grid are dead
//   - The B3/S23 transition rule, applied pointwise
//   - Row-band stepping, so a dispatcher can evaluate disjoint bands of the
//     same generation in parallel
//
// Every cell of the next generation depends only on the read grid, so bands
// may run in any order on any number of workers and the result is identical.
// The runtime package provides the worker pool and stream ordering; this
// package never starts goroutines.
//
// Supported cell types are core.Uint8 and core.Int32. Any nonzero value is
// alive; the kernel always writes 0 or 1.
package kernels

import (
	"github.com/sbl8/conway/core"
)

type cell interface {
	~uint8 | ~int32
}

// Transition is the Life rule: a cell is alive in the next generation when
// it has exactly three live neighbours, or when it is alive and has two.
func Transition(alive bool, neighbors int) bool {
	return neighbors == 3 || (alive && neighbors == 2)
}

// NeighborCount returns the number of live cells among the eight
// neighbours of (r, c). Positions outside the grid count as dead.
func NeighborCount(g *core.Grid, r, c int) int {
	shape := g.Shape()
	n := 0
	for dr := -1; dr <= 1; dr++ {
		rr := r + dr
		if rr < 0 || rr >= shape.H {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			cc := c + dc
			if (dr == 0 && dc == 0) || cc < 0 || cc >= shape.W {
				continue
			}
			if g.At(rr, cc) != 0 {
				n++
			}
		}
	}
	return n
}

// StepRows writes rows [r0, r1) of the generation following read into
// write. Arguments must already have passed CheckStep.
func StepRows(read, write *core.Grid, r0, r1 int) {
	shape := read.Shape()
	switch read.DType() {
	case core.Uint8:
		stepRows(read.Uint8s(), write.Uint8s(), shape.H, shape.W, r0, r1)
	case core.Int32:
		stepRows(read.Int32s(), write.Int32s(), shape.H, shape.W, r0, r1)
	}
}

// Step validates the pair and computes one full generation on the
// calling goroutine.
func Step(read, write *core.Grid) error {
	if err := CheckStep(read, write); err != nil {
		return err
	}
	StepRows(read, write, 0, read.Shape().H)
	return nil
}

func stepRows[T cell](src, dst []T, h, w, r0, r1 int) {
	for r := r0; r < r1; r++ {
		var above, below []T
		if r > 0 {
			above = src[(r-1)*w : r*w]
		}
		if r+1 < h {
			below = src[(r+1)*w : (r+2)*w]
		}
		stepRow(above, src[r*w:(r+1)*w], below, dst[r*w:(r+1)*w])
	}
}

// stepRow slides a window of three column sums along the row. The sums
// left of column 0 and right of column w-1 are zero. above or below is
// nil on the first and last row.
func stepRow[T cell](above, center, below, out []T) {
	w := len(center)
	left := 0
	mid := columnSum(above, center, below, 0)
	for c := 0; c < w; c++ {
		right := 0
		if c+1 < w {
			right = columnSum(above, center, below, c+1)
		}
		self := live(center[c])
		if Transition(self == 1, left+mid+right-self) {
			out[c] = 1
		} else {
			out[c] = 0
		}
		left, mid = mid, right
	}
}

func columnSum[T cell](above, center, below []T, c int) int {
	s := live(center[c])
	if above != nil {
		s += live(above[c])
	}
	if below != nil {
		s += live(below[c])
	}
	return s
}

func live[T cell](v T) int {
	if v != 0 {
		return 1
	}
	return 0
}
