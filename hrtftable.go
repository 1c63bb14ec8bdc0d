package hrtftable

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/decode"
	"github.com/tphakala/go-hrtf-table/internal/grid"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
	"github.com/tphakala/go-hrtf-table/internal/serialize"
)

// Public names for the types that flow through the pipeline.
type (
	// Boundaries is the ascending list of band edges in Hz.
	Boundaries = bands.Boundaries
	// Mode selects power or magnitude band averaging.
	Mode = bands.Mode
	// DuplicatePolicy decides what happens to two artifacts at one direction.
	DuplicatePolicy = sampleset.DuplicatePolicy
	// Set is the sparse, validated sample set.
	Set = sampleset.Set
	// Table is the dense [channel][azimuth][elevation][band] table.
	Table = grid.Table
	// Stats reports how the sparse set covered the dense grid.
	Stats = grid.Stats
	// Facing is a listener orientation for Table.Lookup.
	Facing = grid.Facing
	// LiteralOptions wraps the dense literal in a declaration and preamble.
	LiteralOptions = serialize.LiteralOptions
)

// DefaultDeclaration names the renderer's table.
const DefaultDeclaration = serialize.DefaultDeclaration

// Band averaging modes.
const (
	ModePower     = bands.ModePower
	ModeMagnitude = bands.ModeMagnitude
)

// Duplicate policies.
const (
	DuplicateReject  = sampleset.DuplicateReject
	DuplicateAverage = sampleset.DuplicateAverage
)

// Common errors. Every failure returned by this package matches one of
// these with errors.Is.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid table configuration")

	ErrMalformedFilename = sampleset.ErrMalformedFilename
	ErrKeyOutOfRange     = sampleset.ErrKeyOutOfRange
	ErrEmptySampleSet    = sampleset.ErrEmptySampleSet
	ErrDuplicateSample   = sampleset.ErrDuplicateSample
	ErrDecodeFailure     = decode.ErrDecodeFailure
	ErrEmptyBand         = bands.ErrEmptyBand
	ErrInvalidInput      = bands.ErrInvalidInput
)

// Config holds table generation configuration.
type Config struct {
	// Source is a directory of artifacts, or a .json checkpoint written by an
	// earlier run.
	Source string

	// Output is the file to write. A .json extension writes the sparse
	// checkpoint; anything else writes the dense literal.
	Output string

	// Boundaries are the band edges. Use DefaultBoundaries for the 8-band table.
	Boundaries Boundaries

	// Mode selects the per-bin statistic averaged in each band.
	Mode Mode

	// Workers bounds decode and interpolation parallelism.
	// Set to 0 to use GOMAXPROCS.
	Workers int

	// Duplicates selects how same-direction artifacts are handled.
	Duplicates DuplicatePolicy

	// NormalizeElevation applies (90 + 360 - e) mod 360 to decoded filenames.
	// It does not apply to checkpoints, which already hold table keys.
	NormalizeElevation bool

	// Declaration and Preamble wrap the dense literal. Empty Declaration
	// selects the renderer's HRTF_DATA declaration.
	Declaration string
	Preamble    string

	// Logger receives progress lines. Nil is silent.
	Logger *log.Logger
}

// DefaultConfig returns the configuration used by the hrtf-table command.
func DefaultConfig(source, output string) *Config {
	return &Config{
		Source:             source,
		Output:             output,
		Boundaries:         DefaultBoundaries(),
		Mode:               ModePower,
		Duplicates:         DuplicateReject,
		NormalizeElevation: true,
	}
}

// DefaultBoundaries returns the 0-190-380-760-1520-3040-6080-12160-20000 Hz
// band edges.
func DefaultBoundaries() Boundaries {
	return bands.DefaultBoundaries()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("%w: source path is empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if filepath.Clean(c.Source) == filepath.Clean(c.Output) {
		return fmt.Errorf("%w: output %s would overwrite the source", ErrInvalidConfig, c.Output)
	}
	if err := c.Boundaries.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Mode != ModePower && c.Mode != ModeMagnitude {
		return fmt.Errorf("%w: unknown mode %s", ErrInvalidConfig, c.Mode)
	}
	if c.Duplicates != DuplicateReject && c.Duplicates != DuplicateAverage {
		return fmt.Errorf("%w: unknown duplicate policy %s", ErrInvalidConfig, c.Duplicates)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}

func isCheckpoint(path string) bool {
	return strings.EqualFold(filepath.Ext(path), checkpointExt)
}
