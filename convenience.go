package hrtftable

import (
	"fmt"
	"io"

	"github.com/tphakala/go-hrtf-table/internal/grid"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
	"github.com/tphakala/go-hrtf-table/internal/serialize"
)

// BuildFromDirectory decodes dir with the default configuration and returns
// the dense table.
func BuildFromDirectory(dir string) (*Table, error) {
	cfg := DefaultConfig(dir, "-")
	set, err := BuildSet(cfg)
	if err != nil {
		return nil, err
	}
	table, _, err := BuildTable(set, cfg)
	return table, err
}

// SyntheticSet returns the regular test lattice: a sample every step
// degrees whose band 0 is the azimuth and band 1 the elevation.
func SyntheticSet(step int) (*Set, error) {
	entries, err := sampleset.SyntheticEntries(step, testDataBand)
	if err != nil {
		return nil, err
	}
	return sampleset.New(entries, DuplicateReject)
}

// WriteTestData writes the resampled 15 degree synthetic lattice to path as
// a literal, for compiling into renderer tests.
func WriteTestData(path string, opts LiteralOptions) error {
	set, err := SyntheticSet(testDataStep)
	if err != nil {
		return err
	}
	table, _, err := grid.Resample(set)
	if err != nil {
		return err
	}
	if err := serialize.WriteFileAtomic(path, func(w io.Writer) error {
		return serialize.WriteLiteral(w, table, opts)
	}); err != nil {
		return fmt.Errorf("writing test data: %w", err)
	}
	return nil
}
