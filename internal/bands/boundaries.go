// Package bands reduces a time-domain impulse response to a short vector of
// per-band spectral energies.
//
// A Boundaries value of n+1 ascending frequencies defines n contiguous bands.
// The Extractor takes the one-sided real FFT of a channel, maps every boundary
// to a bin index with floor truncation and averages the bins that fall in each
// [lo, hi) range.
package bands

import (
	"errors"
	"fmt"
	"math"
)

// defaultFrequencies are the octave-spaced band edges used for the renderer's
// lookup table: 8 bands from DC to 20 kHz.
var defaultFrequencies = [...]float64{0, 190, 380, 760, 1520, 3040, 6080, 12160, 20000}

// Common errors returned by the band extractor.
var (
	// ErrInvalidBoundaries indicates a malformed boundary table.
	ErrInvalidBoundaries = errors.New("invalid band boundaries")

	// ErrInvalidInput indicates samples or a sample rate that cannot be analysed.
	ErrInvalidInput = errors.New("invalid band energy input")

	// ErrEmptyBand indicates a band that maps to zero FFT bins.
	ErrEmptyBand = errors.New("band contains no frequency bins")
)

const minBoundaries = 2 // One band needs two edges

// Boundaries is an immutable, ascending list of band edges in Hz.
// The zero value has no bands and fails validation.
type Boundaries struct {
	hz []float64
}

// DefaultBoundaries returns the 9-edge, 8-band table.
func DefaultBoundaries() Boundaries {
	b, err := NewBoundaries(defaultFrequencies[:]...)
	if err != nil {
		panic(err) // unreachable: the default table is valid
	}
	return b
}

// NewBoundaries validates and copies the given band edges.
func NewBoundaries(hz ...float64) (Boundaries, error) {
	if len(hz) < minBoundaries {
		return Boundaries{}, fmt.Errorf("%w: need at least %d edges, got %d",
			ErrInvalidBoundaries, minBoundaries, len(hz))
	}
	for i, f := range hz {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return Boundaries{}, fmt.Errorf("%w: edge %d (%v) must be finite and non-negative",
				ErrInvalidBoundaries, i, f)
		}
		if i > 0 && f <= hz[i-1] {
			return Boundaries{}, fmt.Errorf("%w: edges must be strictly ascending (%v <= %v at %d)",
				ErrInvalidBoundaries, f, hz[i-1], i)
		}
	}
	return Boundaries{hz: append([]float64(nil), hz...)}, nil
}

// Bands returns the number of bands (edges - 1).
func (b Boundaries) Bands() int {
	if len(b.hz) < minBoundaries {
		return 0
	}
	return len(b.hz) - 1
}

// Frequencies returns a copy of the band edges.
func (b Boundaries) Frequencies() []float64 {
	return append([]float64(nil), b.hz...)
}

// Validate reports whether b was built through NewBoundaries.
func (b Boundaries) Validate() error {
	if b.Bands() == 0 {
		return fmt.Errorf("%w: no bands defined", ErrInvalidBoundaries)
	}
	return nil
}

// String renders the edges as "0-190-380-...".
func (b Boundaries) String() string {
	out := make([]byte, 0, len(b.hz)*6)
	for i, f := range b.hz {
		if i > 0 {
			out = append(out, '-')
		}
		out = fmt.Appendf(out, "%g", f)
	}
	return string(out)
}
