// Command hrtf-testdata writes a synthetic HRTF table for the renderer's
// unit tests.
//
// Usage:
//
//	hrtf-testdata tests/hrtf.cpp
//
// The table is resampled from a lattice with a sample every 15 degrees whose
// band 0 holds the azimuth and band 1 the elevation, so lookups can be
// checked by reading the coefficients. HRTF_DECLARATION and HRTF_PREAMBLE
// override the test fixture's declaration and include.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	hrtftable "github.com/tphakala/go-hrtf-table"
	"github.com/tphakala/go-hrtf-table/internal/config"
)

const (
	requiredArgs = 1

	testPreamble    = "#include \"hrtf_tests.h\""
	testDeclaration = "const std::array<std::array<std::array<VolumeType, 180>, 360>, 2> TestsNamespace::HrtfTest::HRTF_DATA"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) != requiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s <output>\n", filepath.Base(os.Args[0]))
		return fmt.Errorf("expected %d argument, got %d", requiredArgs, len(args))
	}

	env, err := config.Load()
	if err != nil {
		return err
	}
	opts := hrtftable.LiteralOptions{
		Declaration: testDeclaration,
		Preamble:    testPreamble,
	}
	if env.Declaration != "" {
		opts.Declaration = env.Declaration
	}
	if env.Preamble != "" {
		opts.Preamble = env.Preamble
	}

	if err := hrtftable.WriteTestData(args[0], opts); err != nil {
		return err
	}
	if env.Verbose {
		log.Printf("Wrote synthetic table to %s", args[0])
	}
	return nil
}
