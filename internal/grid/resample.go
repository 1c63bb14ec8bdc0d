package grid

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/tphakala/go-hrtf-table/internal/mathutil"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
)

// ErrInvalidOption is returned when a Resample option is out of range.
var ErrInvalidOption = errors.New("invalid resample option")

// bracket is the pair of sample coordinates enclosing one grid coordinate
// on a single axis, plus the blend position between them.
type bracket struct {
	lo, hi int
	ratio  float64
}

// Stats describes coverage of the sparse set over the dense grid.
type Stats struct {
	// Cells is the number of grid cells written (per channel).
	Cells int
	// MissingCornerCells counts cells where at least one bracket corner had
	// no sample and was treated as all-zero.
	MissingCornerCells int
}

// Option configures Resample.
type Option func(*config) error

type config struct {
	workers int
}

// WithWorkers sets how many azimuth rows are interpolated concurrently.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidOption, n)
		}
		c.workers = n
		return nil
	}
}

// Resample interpolates set onto every integer (azimuth, elevation) of the
// dense grid.
//
// For each cell the enclosing samples are found independently per axis:
// azimuth is circular, so a target below the smallest or above the largest
// sample azimuth is bracketed across the 0/360 seam; elevation is bounded and
// clamps to the nearest sample at either end. The four corner entries are
// blended bilinearly, azimuth first. A corner with no sample at exactly that
// (azimuth, elevation) contributes zeros.
//
// The result depends only on the set's contents.
func Resample(set *sampleset.Set, opts ...Option) (*Table, Stats, error) {
	if set == nil || set.Len() == 0 {
		return nil, Stats{}, sampleset.ErrEmptySampleSet
	}
	cfg := config{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, Stats{}, err
		}
	}

	azBrackets := make([]bracket, Azimuths)
	azAxis := set.Azimuths()
	for az := range azBrackets {
		azBrackets[az] = circularBracket(azAxis, az)
	}
	elBrackets := make([]bracket, Elevations)
	elAxis := set.Elevations()
	for el := range elBrackets {
		elBrackets[el] = boundedBracket(elAxis, el)
	}

	table := NewTable(set.Bands())
	zeros := zeroCoefficients(set.Channels(), set.Bands())
	missing := make([]int, Azimuths)

	rows := make(chan int)
	var wg sync.WaitGroup
	for range min(cfg.workers, Azimuths) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for az := range rows {
				missing[az] = fillRow(table, set, zeros, az, azBrackets[az], elBrackets)
			}
		}()
	}
	for az := range Azimuths {
		rows <- az
	}
	close(rows)
	wg.Wait()

	stats := Stats{Cells: Azimuths * Elevations}
	for _, m := range missing {
		stats.MissingCornerCells += m
	}
	return table, stats, nil
}

// fillRow writes every elevation of one azimuth for both channels and
// returns the number of cells that fell back to zero corners.
func fillRow(table *Table, set *sampleset.Set, zeros [][]float64, az int, ab bracket, elBrackets []bracket) int {
	corner := func(a, e int) ([][]float64, bool) {
		if c, ok := set.Lookup(a, e); ok {
			return c, true
		}
		return zeros, false
	}

	missing := 0
	for el, eb := range elBrackets {
		c00, ok00 := corner(ab.lo, eb.lo)
		c10, ok10 := corner(ab.hi, eb.lo)
		c01, ok01 := corner(ab.lo, eb.hi)
		c11, ok11 := corner(ab.hi, eb.hi)
		if !ok00 || !ok10 || !ok01 || !ok11 {
			missing++
		}

		for ch := range Channels {
			out := table.At(ch, az, el)
			for band := range out {
				bottom := mathutil.Lerp(c00[ch][band], c10[ch][band], ab.ratio)
				top := mathutil.Lerp(c01[ch][band], c11[ch][band], ab.ratio)
				out[band] = mathutil.Lerp(bottom, top, eb.ratio)
			}
		}
	}
	return missing
}

// circularBracket brackets target on the sorted, distinct azimuth axis,
// wrapping across 0/360. Distances are measured forward around the circle,
// so the bracket (350, 10) puts target 0 halfway.
func circularBracket(axis []int, target int) bracket {
	i, found := slices.BinarySearch(axis, target)
	if found {
		return bracket{lo: target, hi: target}
	}

	lo := axis[len(axis)-1]
	if i > 0 {
		lo = axis[i-1]
	}
	hi := axis[0]
	if i < len(axis) {
		hi = axis[i]
	}

	span := mathutil.ForwardDistance(lo, hi)
	if span == 0 {
		return bracket{lo: lo, hi: hi}
	}
	return bracket{
		lo:    lo,
		hi:    hi,
		ratio: float64(mathutil.ForwardDistance(lo, target)) / float64(span),
	}
}

// boundedBracket brackets target on the sorted, distinct elevation axis.
// Outside the sampled range both ends collapse onto the nearest sample.
func boundedBracket(axis []int, target int) bracket {
	i, found := slices.BinarySearch(axis, target)
	switch {
	case found:
		return bracket{lo: target, hi: target}
	case i == 0:
		return bracket{lo: axis[0], hi: axis[0]}
	case i == len(axis):
		last := axis[len(axis)-1]
		return bracket{lo: last, hi: last}
	}

	lo, hi := axis[i-1], axis[i]
	return bracket{
		lo:    lo,
		hi:    hi,
		ratio: float64(target-lo) / float64(hi-lo),
	}
}

func zeroCoefficients(channels, bands int) [][]float64 {
	z := make([][]float64, channels)
	for ch := range z {
		z[ch] = make([]float64, bands)
	}
	return z
}
