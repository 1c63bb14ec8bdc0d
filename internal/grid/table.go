// Package grid resamples a sparse HRTF sample set onto the dense
// 360 x 180 degree lookup table consumed by the renderer.
package grid

import (
	"math"

	"github.com/tphakala/go-hrtf-table/internal/mathutil"
)

// Table dimensions.
const (
	Channels   = 2
	Azimuths   = mathutil.FullTurnDegrees
	Elevations = mathutil.HalfTurnDegrees
)

// Table is the dense [channel][azimuth][elevation][band] lookup table,
// stored as a single flat slice in that nesting order.
type Table struct {
	bands int
	data  []float64
}

// NewTable allocates a zeroed table with the given band count.
func NewTable(bands int) *Table {
	return &Table{
		bands: bands,
		data:  make([]float64, Channels*Azimuths*Elevations*bands),
	}
}

// Bands returns the number of coefficients per cell.
func (t *Table) Bands() int { return t.bands }

func (t *Table) offset(ch, az, el int) int {
	return ((ch*Azimuths+az)*Elevations + el) * t.bands
}

// At returns the coefficients of one cell. The slice aliases the table and
// must be treated as read-only. Out-of-range indices panic.
func (t *Table) At(ch, az, el int) []float64 {
	off := t.offset(ch, az, el)
	return t.data[off : off+t.bands : off+t.bands]
}

// Raw returns the flat backing slice in [channel][azimuth][elevation][band]
// order. It aliases the table and must be treated as read-only.
func (t *Table) Raw() []float64 { return t.data }

// Equal reports whether both tables have the same shape and bit-identical
// values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.bands != o.bands || len(t.data) != len(o.data) {
		return false
	}
	for i, v := range t.data {
		if math.Float64bits(v) != math.Float64bits(o.data[i]) {
			return false
		}
	}
	return true
}
