// Package sampleset holds the sparse, irregularly spaced HRTF measurements
// the dense table is interpolated from.
//
// A Set is built once, either from a directory of impulse-response artifacts
// (Build) or from in-memory entries (New), and is immutable afterwards.
package sampleset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// StereoChannels is the channel count every entry must carry.
const StereoChannels = 2

var (
	// ErrEmptySampleSet indicates a set with no usable entries.
	ErrEmptySampleSet = errors.New("sample set is empty")

	// ErrDuplicateSample indicates two entries at the same (azimuth, elevation)
	// under the reject policy.
	ErrDuplicateSample = errors.New("duplicate sample direction")

	// ErrInvalidEntry indicates an entry with the wrong shape or non-finite data.
	ErrInvalidEntry = errors.New("invalid sample entry")
)

// DuplicatePolicy decides what happens when two entries share an angle.
type DuplicatePolicy int

const (
	// DuplicateReject fails the build.
	DuplicateReject DuplicatePolicy = iota

	// DuplicateAverage merges same-angle entries into their per-band mean.
	DuplicateAverage
)

// String returns the configuration name of the policy.
func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReject:
		return "reject"
	case DuplicateAverage:
		return "average"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy maps a configuration name onto a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "reject", "":
		return DuplicateReject, nil
	case "average":
		return DuplicateAverage, nil
	default:
		return DuplicateReject, fmt.Errorf("%w: unknown duplicate policy %q (want reject or average)",
			ErrInvalidEntry, s)
	}
}

// Entry is one measured direction with its per-channel band energies.
type Entry struct {
	Key Key
	// Coefficients is indexed [channel][band].
	Coefficients [][]float64
	// Source names the artifact(s) the entry came from.
	Source string
}

func (e Entry) clone() Entry {
	c := Entry{Key: e.Key, Source: e.Source, Coefficients: make([][]float64, len(e.Coefficients))}
	for ch, v := range e.Coefficients {
		c.Coefficients[ch] = slices.Clone(v)
	}
	return c
}

// Set is an immutable sparse sample collection keyed by (azimuth, elevation).
type Set struct {
	entries    []Entry
	byAngle    map[Angle]int
	azimuths   []int
	elevations []int
	bands      int
	merged     int
}

// New validates entries and builds a set. Entries are copied. Input order
// only matters for DuplicateAverage, where it fixes the summation order, and
// for the source names reported by DuplicateReject.
func New(entries []Entry, policy DuplicatePolicy) (*Set, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySampleSet
	}
	if policy != DuplicateReject && policy != DuplicateAverage {
		return nil, fmt.Errorf("%w: unknown duplicate policy %d", ErrInvalidEntry, int(policy))
	}

	bandCount := 0
	groups := make(map[Angle][]int, len(entries))
	order := make([]Angle, 0, len(entries))

	for i, e := range entries {
		if err := validateEntry(e, &bandCount); err != nil {
			return nil, err
		}
		a := e.Key.Angle()
		if prev, dup := groups[a]; dup && policy == DuplicateReject {
			return nil, fmt.Errorf("%w: %s and %s both map to azimuth %d, elevation %d",
				ErrDuplicateSample, entries[prev[0]].Source, e.Source, a.Azimuth, a.Elevation)
		}
		if _, seen := groups[a]; !seen {
			order = append(order, a)
		}
		groups[a] = append(groups[a], i)
	}

	s := &Set{
		entries: make([]Entry, 0, len(order)),
		byAngle: make(map[Angle]int, len(order)),
		bands:   bandCount,
	}
	for _, a := range order {
		idx := groups[a]
		if len(idx) == 1 {
			s.entries = append(s.entries, entries[idx[0]].clone())
			continue
		}
		s.entries = append(s.entries, average(entries, idx))
		s.merged += len(idx) - 1
	}

	slices.SortFunc(s.entries, func(x, y Entry) int {
		if x.Key.Azimuth != y.Key.Azimuth {
			return x.Key.Azimuth - y.Key.Azimuth
		}
		return x.Key.Elevation - y.Key.Elevation
	})

	for i, e := range s.entries {
		s.byAngle[e.Key.Angle()] = i
		s.azimuths = append(s.azimuths, e.Key.Azimuth)
		s.elevations = append(s.elevations, e.Key.Elevation)
	}
	s.azimuths = sortedDistinct(s.azimuths)
	s.elevations = sortedDistinct(s.elevations)

	return s, nil
}

func validateEntry(e Entry, bandCount *int) error {
	if err := e.Key.Validate(); err != nil {
		return fmt.Errorf("%s: %w", e.Source, err)
	}
	if len(e.Coefficients) != StereoChannels {
		return fmt.Errorf("%w: %s: want %d channels, got %d",
			ErrInvalidEntry, e.Source, StereoChannels, len(e.Coefficients))
	}
	for ch, coeffs := range e.Coefficients {
		if len(coeffs) == 0 {
			return fmt.Errorf("%w: %s: channel %d has no bands", ErrInvalidEntry, e.Source, ch)
		}
		if *bandCount == 0 {
			*bandCount = len(coeffs)
		}
		if len(coeffs) != *bandCount {
			return fmt.Errorf("%w: %s: channel %d has %d bands, want %d",
				ErrInvalidEntry, e.Source, ch, len(coeffs), *bandCount)
		}
		for band, v := range coeffs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s: channel %d band %d is %v",
					ErrInvalidEntry, e.Source, ch, band, v)
			}
		}
	}
	return nil
}

// average merges entries[idx...] into one entry; the first entry's key and
// radius win.
func average(entries []Entry, idx []int) Entry {
	first := entries[idx[0]]
	out := first.clone()
	sources := make([]string, 0, len(idx))
	sources = append(sources, first.Source)

	for _, i := range idx[1:] {
		sources = append(sources, entries[i].Source)
		for ch, coeffs := range entries[i].Coefficients {
			for band, v := range coeffs {
				out.Coefficients[ch][band] += v
			}
		}
	}
	n := float64(len(idx))
	for ch := range out.Coefficients {
		for band := range out.Coefficients[ch] {
			out.Coefficients[ch][band] /= n
		}
	}
	out.Source = strings.Join(sources, "+")
	return out
}

func sortedDistinct(v []int) []int {
	slices.Sort(v)
	return slices.Compact(v)
}

// Len returns the number of distinct directions.
func (s *Set) Len() int { return len(s.entries) }

// Bands returns the coefficient count per channel.
func (s *Set) Bands() int { return s.bands }

// Channels returns the channel count (always StereoChannels).
func (s *Set) Channels() int { return StereoChannels }

// Merged returns how many entries were folded into others by DuplicateAverage.
func (s *Set) Merged() int { return s.merged }

// Entries returns a deep copy of the entries sorted by (azimuth, elevation).
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// Lookup returns the coefficients stored at exactly (azimuth, elevation).
// The returned slices are shared with the set and must not be modified.
func (s *Set) Lookup(azimuth, elevation int) ([][]float64, bool) {
	i, ok := s.byAngle[Angle{Azimuth: azimuth, Elevation: elevation}]
	if !ok {
		return nil, false
	}
	return s.entries[i].Coefficients, true
}

// Azimuths returns the sorted distinct azimuths present in the set.
func (s *Set) Azimuths() []int { return slices.Clone(s.azimuths) }

// Elevations returns the sorted distinct elevations present in the set.
func (s *Set) Elevations() []int { return slices.Clone(s.elevations) }
