package hrtftable

import (
	"fmt"
	"io"
	"os"

	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/grid"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
	"github.com/tphakala/go-hrtf-table/internal/serialize"
)

// Output formats reported in Result.
const (
	FormatLiteral    = "literal"
	FormatCheckpoint = "checkpoint"
)

// Result summarizes a completed run.
type Result struct {
	Directions int    // Distinct (azimuth, elevation) samples
	Merged     int    // Artifacts folded into another by DuplicateAverage
	Bands      int    // Coefficients per channel
	Stats      Stats  // Grid coverage; zero for checkpoint output
	Format     string // FormatLiteral or FormatCheckpoint
	Output     string
}

// Run builds the sparse set from cfg.Source and writes cfg.Output.
//
// Output is written through a temporary file and renamed into place, so a
// failed run neither creates nor modifies cfg.Output.
func Run(cfg *Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	set, err := BuildSet(cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Directions: set.Len(),
		Merged:     set.Merged(),
		Bands:      set.Bands(),
		Output:     cfg.Output,
	}

	if isCheckpoint(cfg.Output) {
		result.Format = FormatCheckpoint
		err = serialize.WriteFileAtomic(cfg.Output, func(w io.Writer) error {
			return serialize.WriteSparseJSON(w, set)
		})
		if err != nil {
			return nil, fmt.Errorf("writing checkpoint: %w", err)
		}
		logger.Printf("Wrote %d directions to %s", set.Len(), cfg.Output)
		return result, nil
	}

	table, stats, err := BuildTable(set, cfg)
	if err != nil {
		return nil, err
	}
	result.Format = FormatLiteral
	result.Stats = stats

	opts := serialize.LiteralOptions{Declaration: cfg.Declaration, Preamble: cfg.Preamble}
	err = serialize.WriteFileAtomic(cfg.Output, func(w io.Writer) error {
		return serialize.WriteLiteral(w, table, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("writing table: %w", err)
	}
	logger.Printf("Wrote %dx%dx%dx%d table to %s",
		grid.Channels, grid.Azimuths, grid.Elevations, table.Bands(), cfg.Output)
	return result, nil
}

// BuildSet loads the sparse set named by cfg.Source: a checkpoint when it is
// a .json file, otherwise a directory of artifacts decoded and reduced to
// band energies.
func BuildSet(cfg *Config) (*Set, error) {
	if isCheckpoint(cfg.Source) {
		return loadCheckpoint(cfg)
	}

	ex, err := bands.NewExtractor(cfg.Boundaries, bands.WithMode(cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	opts := []sampleset.Option{
		sampleset.WithDuplicatePolicy(cfg.Duplicates),
		sampleset.WithElevationNormalization(cfg.NormalizeElevation),
		sampleset.WithLogger(cfg.Logger),
	}
	if cfg.Workers > 0 {
		opts = append(opts, sampleset.WithWorkers(cfg.Workers))
	}
	return sampleset.Build(cfg.Source, ex, opts...)
}

func loadCheckpoint(cfg *Config) (*Set, error) {
	f, err := os.Open(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := serialize.ReadSparseJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Source, err)
	}
	set, err := sampleset.New(entries, cfg.Duplicates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Source, err)
	}
	cfg.logger().Printf("Loaded %d directions from %s", set.Len(), cfg.Source)
	return set, nil
}

// BuildTable resamples set onto the dense grid.
func BuildTable(set *Set, cfg *Config) (*Table, Stats, error) {
	var opts []grid.Option
	if cfg != nil && cfg.Workers > 0 {
		opts = append(opts, grid.WithWorkers(cfg.Workers))
	}
	table, stats, err := grid.Resample(set, opts...)
	if err != nil {
		return nil, Stats{}, err
	}
	if cfg != nil && stats.MissingCornerCells > 0 {
		cfg.logger().Printf("Warning: %d of %d cells interpolated with missing corners treated as zero",
			stats.MissingCornerCells, stats.Cells)
	}
	return table, stats, nil
}
