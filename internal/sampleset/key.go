package sampleset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/go-hrtf-table/internal/mathutil"
)

// Filename layout: six underscore-separated tokens, the last three tagged
// with a single letter, e.g. IRC_1002_C_R0195_T000_P000.wav.
const (
	keyTokens        = 6
	radiusToken      = 3
	azimuthToken     = 4
	elevationToken   = 5
	tagPrefixLen     = 1
	elevationHorizon = mathutil.QuarterTurn
	elevationSpan    = mathutil.HalfTurnDegrees
	azimuthSpan      = mathutil.FullTurnDegrees
)

var (
	// ErrMalformedFilename indicates an artifact name that does not decode to a key.
	ErrMalformedFilename = errors.New("malformed sample filename")

	// ErrKeyOutOfRange indicates a decoded angle outside the table's domain.
	ErrKeyOutOfRange = errors.New("sample key out of range")
)

// Key identifies one measured direction.
type Key struct {
	Radius    int
	Azimuth   int // [0, 360)
	Elevation int // [0, 180), 0 is straight up when normalized
}

// String renders the key the way it appears in log lines.
func (k Key) String() string {
	return fmt.Sprintf("r=%d a=%d e=%d", k.Radius, k.Azimuth, k.Elevation)
}

// Angle is the (azimuth, elevation) pair used to index the sparse set.
type Angle struct {
	Azimuth, Elevation int
}

// Angle drops the radius.
func (k Key) Angle() Angle { return Angle{Azimuth: k.Azimuth, Elevation: k.Elevation} }

// NormalizeElevation maps a source elevation onto the table convention:
// (90 + 360 - e) mod 360. The horizon (0) becomes 90, straight up (90)
// becomes 0 and the 315 (= -45) of the measurement rig becomes 135.
func NormalizeElevation(e int) int {
	return mathutil.FloorMod(elevationHorizon+azimuthSpan-e, azimuthSpan)
}

// ParseKey decodes name (with or without directory and extension).
// When normalize is set, the elevation transform is applied here and nowhere
// else.
func ParseKey(name string, normalize bool) (Key, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) != keyTokens {
		return Key{}, fmt.Errorf("%w: %s: want %d underscore-separated tokens, got %d",
			ErrMalformedFilename, base, keyTokens, len(parts))
	}

	radius, err := tagValue(parts[radiusToken])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %s: radius: %w", ErrMalformedFilename, base, err)
	}
	azimuth, err := tagValue(parts[azimuthToken])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %s: azimuth: %w", ErrMalformedFilename, base, err)
	}
	elevation, err := tagValue(parts[elevationToken])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %s: elevation: %w", ErrMalformedFilename, base, err)
	}

	if normalize {
		elevation = NormalizeElevation(elevation)
	}

	k := Key{
		Radius:    radius,
		Azimuth:   mathutil.WrapDegrees(azimuth),
		Elevation: elevation,
	}
	if err := k.Validate(); err != nil {
		return Key{}, fmt.Errorf("%s: %w", base, err)
	}
	return k, nil
}

// Validate checks the key against the table domain.
func (k Key) Validate() error {
	if k.Azimuth < 0 || k.Azimuth >= azimuthSpan {
		return fmt.Errorf("%w: azimuth %d not in [0, %d)", ErrKeyOutOfRange, k.Azimuth, azimuthSpan)
	}
	if k.Elevation < 0 || k.Elevation >= elevationSpan {
		return fmt.Errorf("%w: elevation %d not in [0, %d)", ErrKeyOutOfRange, k.Elevation, elevationSpan)
	}
	return nil
}

// tagValue strips the one-letter tag and parses the remaining integer.
func tagValue(tok string) (int, error) {
	if len(tok) <= tagPrefixLen {
		return 0, fmt.Errorf("token %q has no value", tok)
	}
	v, err := strconv.Atoi(tok[tagPrefixLen:])
	if err != nil {
		return 0, fmt.Errorf("token %q: %w", tok, err)
	}
	return v, nil
}
