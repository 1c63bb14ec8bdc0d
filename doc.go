// Package hrtftable builds the dense HRTF band-energy lookup table used by
// the ray-traced renderer from a directory of measured stereo impulse
// responses.
//
// Each artifact is named after the direction it was measured from
// (IRC_1002_C_R0195_T000_P000.wav: radius 195, azimuth 0, elevation 0), is
// decoded, and is reduced to one coefficient per frequency band per ear.
// The resulting sparse set is bilinearly resampled onto every integer
// azimuth 0..359 and elevation 0..179 and written as a nested literal the
// renderer compiles in.
//
// # Quick Start
//
//	cfg := hrtftable.DefaultConfig("IRC_1002/RAW/WAV", "hrtf.cpp")
//	result, err := hrtftable.Run(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d directions, %d cells with missing corners\n",
//	    result.Directions, result.Stats.MissingCornerCells)
//
// For finer control, run the stages separately:
//
//	set, err := hrtftable.BuildSet(cfg)
//	table, stats, err := hrtftable.BuildTable(set, cfg)
//	coeffs := table.At(0, 90, 45) // left ear, azimuth 90, elevation 45
//
// # Band Energies
//
// The default band edges are 0, 190, 380, 760, 1520, 3040, 6080, 12160 and
// 20000 Hz. Edges map to real-FFT bins with floor(edge * N / sampleRate), and
// each band holds the mean |X|^2 of its bins ([ModePower]) or the mean |X|
// ([ModeMagnitude]). A band that maps to no bins is an error.
//
// # Angles
//
// Azimuth is circular: the table at azimuth 0 blends the samples either side
// of the 0/360 seam. Elevation 0 is straight up and 179 just above straight
// down; with NormalizeElevation, filename elevations (0 at the horizon) are
// mapped once through (90 + 360 - e) mod 360.
//
// # Failure
//
// Runs fail fast. A malformed filename, an undecodable artifact or a
// duplicate direction (under [DuplicateReject]) stops the run. Output is
// written through a temporary file, so a failed run leaves the output path
// untouched.
//
// # Checkpoints
//
// An output path ending in .json writes the sparse set as
// [[{"r":R,"a":A,"e":E},[[left bands],[right bands]]], ...]; a source path
// ending in .json loads one back, skipping the audio stage.
package hrtftable
