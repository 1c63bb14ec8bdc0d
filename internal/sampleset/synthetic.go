package sampleset

import "fmt"

// SyntheticEntries returns a regular lattice of entries every step degrees,
// the fixture the renderer's own tests compile in. Band 0 carries the
// azimuth, band 1 the elevation and the remaining bands are zero, so any
// interpolated cell can be checked by eye.
//
// The lattice is half-open: azimuth 360 is azimuth 0 and elevation 180 is
// outside the key range, so neither row is emitted.
func SyntheticEntries(step, bandCount int) ([]Entry, error) {
	if step < 1 || step >= azimuthSpan {
		return nil, fmt.Errorf("%w: lattice step %d not in [1, %d)", ErrInvalidEntry, step, azimuthSpan)
	}
	if bandCount < 2 {
		return nil, fmt.Errorf("%w: synthetic entries need at least 2 bands, got %d", ErrInvalidEntry, bandCount)
	}

	var out []Entry
	for a := 0; a < azimuthSpan; a += step {
		for e := 0; e < elevationSpan; e += step {
			coeffs := make([][]float64, StereoChannels)
			for ch := range coeffs {
				coeffs[ch] = make([]float64, bandCount)
				coeffs[ch][0] = float64(a)
				coeffs[ch][1] = float64(e)
			}
			out = append(out, Entry{
				Key:          Key{Radius: 1, Azimuth: a, Elevation: e},
				Coefficients: coeffs,
				Source:       fmt.Sprintf("synthetic_a%d_e%d", a, e),
			})
		}
	}
	return out, nil
}
