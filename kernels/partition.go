package kernels

import "github.com/sbl8/conway/core"

// MinBandCells is the smallest amount of work handed to one worker. Below
// this size the cost of waking a worker outweighs the step itself.
const MinBandCells = 16 * 1024

// Band is a half-open range of rows [Start, End).
type Band struct {
	Start int
	End   int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.End - b.Start
}

// Partition splits the rows of shape into at most parts contiguous bands
// of near-equal height. Small grids get fewer bands so that every band
// carries at least MinBandCells cells, and never fewer than one.
func Partition(shape core.Shape, parts int) []Band {
	if shape.H <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if maxParts := shape.Cells() / MinBandCells; parts > maxParts {
		parts = maxParts
	}
	if parts > shape.H {
		parts = shape.H
	}
	if parts < 1 {
		parts = 1
	}

	bands := make([]Band, parts)
	base, extra := shape.H/parts, shape.H%parts
	start := 0
	for i := range bands {
		rows := base
		if i < extra {
			rows++
		}
		bands[i] = Band{Start: start, End: start + rows}
		start += rows
	}
	return bands
}
