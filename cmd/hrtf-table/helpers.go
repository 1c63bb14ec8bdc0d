package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	hrtftable "github.com/tphakala/go-hrtf-table"
	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/config"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
)

// configFromEnv maps environment settings onto a run configuration.
func configFromEnv(env *config.Env, source, output string) (*hrtftable.Config, error) {
	mode, err := bands.ParseMode(env.Mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvMode, err)
	}
	policy, err := sampleset.ParseDuplicatePolicy(env.Duplicates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvDuplicates, err)
	}

	cfg := hrtftable.DefaultConfig(source, output)
	cfg.Mode = mode
	cfg.Duplicates = policy
	cfg.Workers = env.Workers
	cfg.NormalizeElevation = env.NormalizeElevation
	cfg.Declaration = env.Declaration
	cfg.Preamble = env.Preamble
	if env.Verbose {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return cfg, cfg.Validate()
}

func printSummary(r *hrtftable.Result, elapsed time.Duration) {
	fmt.Printf("Wrote %s (%s)\n", filepath.Base(r.Output), r.Format)
	fmt.Printf("  %d directions, %d bands per channel", r.Directions, r.Bands)
	if r.Merged > 0 {
		fmt.Printf(", %d merged", r.Merged)
	}
	fmt.Println()
	if r.Format == hrtftable.FormatLiteral {
		fmt.Printf("  %d cells, %d with missing corners\n", r.Stats.Cells, r.Stats.MissingCornerCells)
	}
	fmt.Printf("  Duration: %.2fs\n", elapsed.Seconds())
}
