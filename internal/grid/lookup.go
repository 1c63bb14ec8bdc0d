package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tphakala/go-hrtf-table/internal/mathutil"
)

// ErrInvalidFacing is returned when a listener orientation or direction
// cannot define a frame.
var ErrInvalidFacing = errors.New("invalid listener facing")

// Facing is a listener orientation in world space.
type Facing struct {
	Pointing r3.Vec
	Up       r3.Vec
}

// Index maps a world-space direction from the listener to the table cell
// the renderer reads. The direction is expressed in the listener frame
// x = up × pointing, y = pointing × x, z = pointing; azimuth is measured from
// x towards z and elevation index 0 is straight up.
func (f Facing) Index(direction r3.Vec) (az, el int, err error) {
	if r3.Norm(direction) == 0 {
		return 0, 0, fmt.Errorf("%w: zero direction", ErrInvalidFacing)
	}
	if r3.Norm(f.Pointing) == 0 {
		return 0, 0, fmt.Errorf("%w: zero pointing vector", ErrInvalidFacing)
	}
	z := r3.Unit(f.Pointing)
	side := r3.Cross(f.Up, z)
	if r3.Norm(side) == 0 {
		return 0, 0, fmt.Errorf("%w: up %v is parallel to pointing %v", ErrInvalidFacing, f.Up, f.Pointing)
	}
	x := r3.Unit(side)
	y := r3.Cross(z, x)

	dx, dy, dz := r3.Dot(direction, x), r3.Dot(direction, y), r3.Dot(direction, z)

	azimuth := mathutil.Degrees(math.Atan2(dz, dx))
	elevation := mathutil.Degrees(math.Atan2(dy, math.Hypot(dx, dz)))

	az = mathutil.WrapDegrees(int(math.Floor(azimuth)))
	el = mathutil.Clamp(mathutil.QuarterTurn-int(math.Trunc(elevation)), 0, Elevations-1)
	return az, el, nil
}

// Lookup returns the coefficients for a sound arriving from direction as
// heard by a listener with the given facing. The slice aliases the table.
func (t *Table) Lookup(ch int, f Facing, direction r3.Vec) ([]float64, error) {
	if ch < 0 || ch >= Channels {
		return nil, fmt.Errorf("%w: channel %d", ErrInvalidFacing, ch)
	}
	az, el, err := f.Index(direction)
	if err != nil {
		return nil, err
	}
	return t.At(ch, az, el), nil
}
