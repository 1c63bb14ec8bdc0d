// Package serialize writes the dense table as a compilable nested literal
// and round-trips the sparse sample set through a JSON checkpoint.
package serialize

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tphakala/go-hrtf-table/internal/grid"
)

// DefaultDeclaration names the renderer's table.
const DefaultDeclaration = "const std::array<std::array<std::array<cl_float8, 180>, 360>, 2> HRTF_DATA"

// ErrInvalidTable is returned when a table cannot be written.
var ErrInvalidTable = errors.New("invalid table")

// LiteralOptions controls literal emission.
type LiteralOptions struct {
	// Declaration precedes " = {...};". Empty selects DefaultDeclaration.
	Declaration string
	// Preamble is written verbatim before the declaration, e.g. includes.
	Preamble string
}

// WriteLiteral emits t as a brace-nested literal in
// [channel][azimuth][elevation][band] order:
//
//	<preamble>
//	<declaration> =
//	{
//	  {
//	    {{b0, b1, ...}, {...}, ...},
//	    ...
//	  },
//	  ...
//	};
//
// Values use the shortest representation that round-trips to float64.
func WriteLiteral(w io.Writer, t *grid.Table, opts LiteralOptions) error {
	if t == nil || t.Bands() == 0 {
		return fmt.Errorf("%w: table has no bands", ErrInvalidTable)
	}
	decl := strings.TrimSpace(opts.Declaration)
	if decl == "" {
		decl = DefaultDeclaration
	}

	bw := bufio.NewWriter(w)
	if opts.Preamble != "" {
		bw.WriteString(opts.Preamble)
		if !strings.HasSuffix(opts.Preamble, "\n") {
			bw.WriteByte('\n')
		}
	}
	bw.WriteString("// [channel][azimuth][elevation][band]\n")
	bw.WriteString(decl)
	bw.WriteString(" =\n")

	lw := literalWriter{w: bw, data: t.Raw()}
	lw.nest([]int{grid.Channels, grid.Azimuths, grid.Elevations, t.Bands()}, 0, 0)
	bw.WriteString(";\n")

	// bufio keeps the first write error and reports it here.
	return bw.Flush()
}

type literalWriter struct {
	w    *bufio.Writer
	data []float64
	num  []byte
}

// nest writes the sub-array of shape dims starting at data[offset]. The two
// outermost levels put each child on its own line.
func (l *literalWriter) nest(dims []int, depth, offset int) {
	if len(dims) == 1 {
		l.w.WriteByte('{')
		for i := range dims[0] {
			if i > 0 {
				l.w.WriteString(", ")
			}
			l.num = strconv.AppendFloat(l.num[:0], l.data[offset+i], 'g', -1, 64)
			l.w.Write(l.num)
		}
		l.w.WriteByte('}')
		return
	}

	stride := 1
	for _, d := range dims[1:] {
		stride *= d
	}
	multiline := depth < 2
	indent := strings.Repeat("  ", depth)

	l.w.WriteByte('{')
	for i := range dims[0] {
		if i > 0 {
			l.w.WriteByte(',')
		}
		if multiline {
			l.w.WriteByte('\n')
			l.w.WriteString(indent + "  ")
		}
		l.nest(dims[1:], depth+1, offset+i*stride)
	}
	if multiline {
		l.w.WriteByte('\n')
		l.w.WriteString(indent)
	}
	l.w.WriteByte('}')
}
