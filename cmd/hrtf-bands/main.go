// Command hrtf-bands prints the band energies of individual artifacts, for
// checking a measurement set before building the table.
//
// Usage:
//
//	hrtf-bands IRC_1002_C_R0195_T000_P000.wav [more artifacts...]
//
// HRTF_MODE selects power or magnitude averaging.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/config"
	"github.com/tphakala/go-hrtf-table/internal/decode"
	"github.com/tphakala/go-hrtf-table/internal/sampleset"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s <artifact> [artifact...]\n", filepath.Base(os.Args[0]))
		return fmt.Errorf("no artifacts given")
	}

	env, err := config.Load()
	if err != nil {
		return err
	}
	mode, err := bands.ParseMode(env.Mode)
	if err != nil {
		return err
	}
	ex, err := bands.NewExtractor(bands.DefaultBoundaries(), bands.WithMode(mode))
	if err != nil {
		return err
	}

	fmt.Printf("=== Band energies (%s, edges %s Hz) ===\n", ex.Mode(), ex.Boundaries())
	for _, path := range args {
		if err := analyze(path, ex, env.NormalizeElevation); err != nil {
			return err
		}
	}
	return nil
}

func analyze(path string, ex *bands.Extractor, normalize bool) error {
	key, err := sampleset.ParseKey(path, normalize)
	if err != nil {
		return err
	}
	clip, err := decode.DefaultRegistry().DecodeFile(path)
	if err != nil {
		return err
	}
	bins, err := ex.BinIndices(clip.Frames(), clip.SampleRate)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	coeffs, err := ex.ExtractChannels(clip.Channels, clip.SampleRate)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("\n%s\n", filepath.Base(path))
	fmt.Printf("  Key: %s\n", key)
	fmt.Printf("  Clip: %d Hz, %d channels, %d frames\n", clip.SampleRate, len(clip.Channels), clip.Frames())
	fmt.Printf("  Bins: %v\n", bins)
	for ch, c := range coeffs {
		fmt.Printf("  Channel %d:", ch)
		for _, v := range c {
			fmt.Printf(" %.6g", v)
		}
		fmt.Println()
	}
	return nil
}
