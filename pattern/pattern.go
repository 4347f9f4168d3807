// Package pattern loads initial Game of Life states.
//
// Two text formats are understood:
//   - Plaintext (.cells): '!' starts a comment line, 'O' is a live cell and
//     any other character is dead. Short rows are padded with dead cells.
//   - Run Length Encoded (.rle): '#' comment lines, an "x = W, y = H" header
//     and a body of <count><tag> runs where 'b' is dead, 'o' is alive, '$'
//     ends a row and '!' ends the pattern.
//
// A loaded pattern is usually smaller than the grid. Place and Center embed
// it into a grid-sized matrix; a pattern that does not fit is a
// configuration error reported as ErrTooLarge.
package pattern

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbl8/conway/core"
)

var (
	// ErrTooLarge reports a pattern that does not fit the destination grid.
	ErrTooLarge = errors.New("pattern too large for grid")

	// ErrSyntax reports malformed pattern text.
	ErrSyntax = errors.New("pattern syntax error")

	// ErrUnsupportedRule reports an RLE file written for a rule other than B3/S23.
	ErrUnsupportedRule = errors.New("unsupported rule")
)

// Load reads a pattern file, choosing the parser from the extension:
// ".rle" is RLE, everything else plaintext.
func Load(path string) (*core.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m *core.Matrix
	if strings.EqualFold(filepath.Ext(path), ".rle") {
		m, err = ParseRLE(f)
	} else {
		m, err = ParsePlaintext(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParsePlaintext parses the plaintext cell format.
func ParsePlaintext(r io.Reader) (*core.Matrix, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]uint8
	width := 0
	for _, line := range strings.Split(string(src), "\n") {
		if strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row := make([]uint8, len(line))
		for i := 0; i < len(line); i++ {
			if line[i] == 'O' {
				row[i] = 1
			}
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no cell rows", ErrSyntax)
	}

	m := core.NewMatrix(core.Shape{H: len(rows), W: width})
	for r, row := range rows {
		copy(m.Cells[r*width:], row)
	}
	return m, nil
}

// Place embeds p into an all-dead matrix of shape dst with its top-left
// corner at (row, col).
func Place(p *core.Matrix, dst core.Shape, row, col int) (*core.Matrix, error) {
	if !dst.Valid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidShape, dst)
	}
	if row < 0 || col < 0 || row+p.Shape.H > dst.H || col+p.Shape.W > dst.W {
		return nil, fmt.Errorf("%w: %s pattern at (%d,%d) in %s grid", ErrTooLarge, p.Shape, row, col, dst)
	}

	m := core.NewMatrix(dst)
	for r := 0; r < p.Shape.H; r++ {
		src := p.Cells[r*p.Shape.W : (r+1)*p.Shape.W]
		copy(m.Cells[(row+r)*dst.W+col:], src)
	}
	return m, nil
}

// Center embeds p in the middle of an all-dead matrix of shape dst.
func Center(p *core.Matrix, dst core.Shape) (*core.Matrix, error) {
	return Place(p, dst, (dst.H-p.Shape.H)/2, (dst.W-p.Shape.W)/2)
}

// Random returns a matrix of independent 0/1 cells drawn from seed.
func Random(shape core.Shape, seed int64) *core.Matrix {
	return core.RandomMatrix(shape, rand.New(rand.NewSource(seed)))
}
