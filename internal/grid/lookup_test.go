package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFacingIndex(t *testing.T) {
	forward := Facing{Pointing: r3.Vec{Z: 1}, Up: r3.Vec{Y: 1}}
	sideways := Facing{Pointing: r3.Vec{X: 1}, Up: r3.Vec{Y: 1}}

	tests := []struct {
		name   string
		facing Facing
		dir    r3.Vec
		az, el int
	}{
		{"ahead", forward, r3.Vec{Z: 10}, 90, 90},
		{"right", forward, r3.Vec{X: 1}, 0, 90},
		{"left", forward, r3.Vec{X: -1}, 180, 90},
		{"behind", forward, r3.Vec{Z: -1}, 270, 90},
		{"above", forward, r3.Vec{Y: 1}, 0, 0},
		{"below clamps", forward, r3.Vec{Y: -1}, 0, 179},
		{"raised 45", forward, r3.Vec{X: 1, Y: 1}, 0, 45},
		{"rotated ahead", sideways, r3.Vec{X: 1}, 90, 90},
		{"rotated old ahead", sideways, r3.Vec{Z: 1}, 180, 90},
		{"unnormalized pointing", Facing{Pointing: r3.Vec{Z: 5}, Up: r3.Vec{Y: 2}}, r3.Vec{Z: 1}, 90, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			az, el, err := tt.facing.Index(tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.az, az, "azimuth")
			assert.Equal(t, tt.el, el, "elevation")
		})
	}
}

func TestFacingIndex_Invalid(t *testing.T) {
	valid := Facing{Pointing: r3.Vec{Z: 1}, Up: r3.Vec{Y: 1}}

	_, _, err := valid.Index(r3.Vec{})
	require.ErrorIs(t, err, ErrInvalidFacing)

	_, _, err = Facing{Pointing: r3.Vec{Y: 1}, Up: r3.Vec{Y: 3}}.Index(r3.Vec{X: 1})
	require.ErrorIs(t, err, ErrInvalidFacing)

	_, _, err = Facing{Up: r3.Vec{Y: 1}}.Index(r3.Vec{X: 1})
	require.ErrorIs(t, err, ErrInvalidFacing)
}

func TestTableLookup(t *testing.T) {
	table, _, err := Resample(latticeSet(t))
	require.NoError(t, err)

	facing := Facing{Pointing: r3.Vec{Z: 1}, Up: r3.Vec{Y: 1}}
	got, err := table.Lookup(0, facing, r3.Vec{Z: 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 90, 0, 0, 0, 0, 0, 0}, got)

	got, err = table.Lookup(1, facing, r3.Vec{X: -2})
	require.NoError(t, err)
	assert.Equal(t, table.At(1, 180, 90), got)

	_, err = table.Lookup(2, facing, r3.Vec{Z: 1})
	require.ErrorIs(t, err, ErrInvalidFacing)
}
