package pattern

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sbl8/conway/core"
)

// MaxRLECells caps the area an RLE header may declare.
const MaxRLECells = 1 << 26

// ParseRLE parses the Run Length Encoded pattern format.
func ParseRLE(r io.Reader) (*core.Matrix, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(src), "\n")

	p := &rleParser{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if p.m == nil {
			if err := p.parseHeader(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			continue
		}
		if err := p.parseBody(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if p.done {
			break
		}
	}

	if p.m == nil {
		return nil, fmt.Errorf("%w: missing header", ErrSyntax)
	}
	if p.count != 0 {
		return nil, fmt.Errorf("%w: dangling run count %d", ErrSyntax, p.count)
	}
	return p.m, nil
}

// rleParser tracks the write cursor across body lines.
type rleParser struct {
	m        *core.Matrix
	row, col int
	count    int
	done     bool
}

// parseHeader reads "x = W, y = H[, rule = R]".
func (p *rleParser) parseHeader(line string) error {
	shape := core.Shape{}
	for _, field := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("%w: header field %q", ErrSyntax, field)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "x", "y":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: %s = %q", ErrSyntax, key, value)
			}
			if key == "x" {
				shape.W = n
			} else {
				shape.H = n
			}
		case "rule":
			if !lifeRule(value) {
				return fmt.Errorf("%w: %s", ErrUnsupportedRule, value)
			}
		default:
			return fmt.Errorf("%w: unknown header key %q", ErrSyntax, key)
		}
	}
	if !shape.Valid() {
		return fmt.Errorf("%w: header needs positive x and y", ErrSyntax)
	}
	if shape.H > MaxRLECells/shape.W {
		return fmt.Errorf("%w: header declares %s, more than %d cells", ErrTooLarge, shape, MaxRLECells)
	}
	p.m = core.NewMatrix(shape)
	return nil
}

func (p *rleParser) parseBody(line string) error {
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch >= '0' && ch <= '9':
			p.count = p.count*10 + int(ch-'0')
			if limit := max(p.m.Shape.W, p.m.Shape.H); p.count > limit {
				return fmt.Errorf("%w: run count exceeds declared %s", ErrSyntax, p.m.Shape)
			}
			continue
		case ch == ' ' || ch == '\t' || ch == '\r':
			continue
		case ch == '!':
			p.done = true
			p.count = 0
			return nil
		}

		n := p.count
		if n == 0 {
			n = 1
		}
		p.count = 0

		switch {
		case ch == '$':
			if n > p.m.Shape.H-p.row {
				return fmt.Errorf("%w: %d row breaks at row %d exceed declared %s", ErrSyntax, n, p.row, p.m.Shape)
			}
			p.row += n
			p.col = 0
		case ch == 'b' || ch == '.':
			if n > p.m.Shape.W-p.col {
				return fmt.Errorf("%w: run of %d dead cells at (%d,%d) exceeds declared %s",
					ErrSyntax, n, p.row, p.col, p.m.Shape)
			}
			p.col += n
		case ch == 'o' || (ch >= 'A' && ch <= 'Z'):
			if err := p.fill(n); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected %q", ErrSyntax, ch)
		}
	}
	return nil
}

func (p *rleParser) fill(n int) error {
	shape := p.m.Shape
	if p.row >= shape.H || n > shape.W-p.col {
		return fmt.Errorf("%w: run of %d live cells at (%d,%d) exceeds declared %s",
			ErrSyntax, n, p.row, p.col, shape)
	}
	for i := 0; i < n; i++ {
		p.m.Set(p.row, p.col+i, 1)
	}
	p.col += n
	return nil
}

// lifeRule accepts the spellings of B3/S23 found in RLE headers.
func lifeRule(rule string) bool {
	switch strings.ToUpper(strings.ReplaceAll(rule, " ", "")) {
	case "B3/S23", "S23/B3", "23/3":
		return true
	}
	return false
}
