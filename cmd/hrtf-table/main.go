// Command hrtf-table builds the renderer's dense HRTF lookup table from a
// directory of measured stereo impulse responses.
//
// Usage:
//
//	hrtf-table IRC_1002/RAW/WAV hrtf.cpp      # decode, resample, write the literal
//	hrtf-table IRC_1002/RAW/WAV sparse.json   # write the sparse checkpoint only
//	hrtf-table sparse.json hrtf.cpp           # resample a checkpoint
//
// The command takes exactly two positional arguments and no flags. Settings
// come from HRTF_* environment variables or a .env file in the working
// directory: HRTF_WORKERS, HRTF_MODE (power|magnitude), HRTF_DUPLICATES
// (reject|average), HRTF_NORMALIZE_ELEVATION, HRTF_DECLARATION,
// HRTF_PREAMBLE and HRTF_VERBOSE.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	hrtftable "github.com/tphakala/go-hrtf-table"
	"github.com/tphakala/go-hrtf-table/internal/config"
)

const requiredArgs = 2

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) != requiredArgs {
		printUsage()
		return fmt.Errorf("expected %d arguments, got %d", requiredArgs, len(args))
	}

	env, err := config.Load()
	if err != nil {
		return err
	}
	cfg, err := configFromEnv(env, args[0], args[1])
	if err != nil {
		return err
	}

	if env.Verbose {
		log.Printf("Source: %s", cfg.Source)
		log.Printf("Output: %s", cfg.Output)
		log.Printf("Bands: %s Hz (%s)", cfg.Boundaries, cfg.Mode)
		log.Printf("Duplicates: %s", cfg.Duplicates)
	}

	start := time.Now()
	result, err := hrtftable.Run(cfg)
	if err != nil {
		return err
	}
	printSummary(result, time.Since(start))
	return nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <source-dir|checkpoint.json> <output>\n\n", name)
	fmt.Fprintf(os.Stderr, "An output ending in .json receives the sparse checkpoint;\n")
	fmt.Fprintf(os.Stderr, "any other output receives the dense table literal.\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
	fmt.Fprintf(os.Stderr, "  %-26s worker count (default GOMAXPROCS)\n", config.EnvWorkers)
	fmt.Fprintf(os.Stderr, "  %-26s power or magnitude (default power)\n", config.EnvMode)
	fmt.Fprintf(os.Stderr, "  %-26s reject or average (default reject)\n", config.EnvDuplicates)
	fmt.Fprintf(os.Stderr, "  %-26s map filename elevations to table convention (default true)\n", config.EnvNormalizeElevation)
	fmt.Fprintf(os.Stderr, "  %-26s literal declaration\n", config.EnvDeclaration)
	fmt.Fprintf(os.Stderr, "  %-26s text written before the declaration\n", config.EnvPreamble)
	fmt.Fprintf(os.Stderr, "  %-26s log progress\n", config.EnvVerbose)
}
