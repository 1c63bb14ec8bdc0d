package sampleset

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/decode"
	"github.com/tphakala/go-hrtf-table/internal/testutil"
)

func newExtractor(t *testing.T) *bands.Extractor {
	t.Helper()
	ex, err := bands.NewExtractor(bands.DefaultBoundaries())
	require.NoError(t, err)
	return ex
}

// writeArtifacts creates one stereo tone per name in a fresh directory.
func writeArtifacts(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, name := range names {
		testutil.WriteStereoTone(t, filepath.Join(dir, name), 300+float64(i)*100, 5000)
	}
	return dir
}

func TestBuild_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	left := testutil.Sine(testutil.FixtureSamples, testutil.FixtureRate, 1000, 0.5)
	right := testutil.Sine(testutil.FixtureSamples, testutil.FixtureRate, 5000, 0.5)
	testutil.WriteWAV(t, filepath.Join(dir, "IRC_1002_C_R0195_T000_P000.wav"), testutil.FixtureRate, left, right)
	testutil.WriteAIFF(t, filepath.Join(dir, "IRC_1002_C_R0195_T090_P000.aiff"), testutil.FixtureRate, left, right)
	testutil.WriteFLAC(t, filepath.Join(dir, "IRC_1002_C_R0195_T180_P000.flac"), testutil.FixtureRate, left, right)

	set, err := Build(dir, newExtractor(t))
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	// The same 16-bit samples yield the same band energies in every container.
	want, ok := set.Lookup(0, 90)
	require.True(t, ok)
	for _, az := range []int{90, 180} {
		got, ok := set.Lookup(az, 90)
		require.True(t, ok)
		for ch := range want {
			for band := range want[ch] {
				testutil.AssertRelativeError(t, want[ch][band], got[ch][band], testutil.EnergyTolerance,
					"azimuth %d channel %d band %d", az, ch, band)
			}
		}
	}
}

func TestBuild(t *testing.T) {
	dir := writeArtifacts(t,
		"IRC_1002_C_R0195_T000_P000.wav",
		"IRC_1002_C_R0195_T090_P000.wav",
		"IRC_1002_C_R0195_T000_P045.wav",
		"IRC_1002_C_R0195_T090_P045.wav",
	)

	set, err := Build(dir, newExtractor(t))
	require.NoError(t, err)

	assert.Equal(t, 4, set.Len())
	assert.Equal(t, 8, set.Bands())
	assert.Equal(t, []int{0, 90}, set.Azimuths())
	// Normalized: P000 -> 90, P045 -> 45.
	assert.Equal(t, []int{45, 90}, set.Elevations())

	for _, e := range set.Entries() {
		require.Len(t, e.Coefficients, 2)
		testutil.AssertNoNaNOrInf(t, e.Coefficients[0])
		testutil.AssertNoNaNOrInf(t, e.Coefficients[1])
		// Right channel is a 5 kHz tone: band 5 dominates band 1.
		assert.Greater(t, e.Coefficients[1][5], e.Coefficients[1][1], e.Source)
	}
}

func TestBuild_WithoutNormalization(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T010_P020.wav")

	set, err := Build(dir, newExtractor(t), WithElevationNormalization(false))
	require.NoError(t, err)

	_, ok := set.Lookup(10, 20)
	assert.True(t, ok)
}

func TestBuild_MalformedFilenameAbortsBeforeDecode(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1002_C_R0195_T000_P000.wav")
	// Every name is decoded before any audio is read, so the filename error
	// wins over the corrupt artifact that sorts ahead of it.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "badname.wav"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IRC_1002_C_R0195_T010_P000.wav"), []byte("junk"), 0o644))

	_, err := Build(dir, newExtractor(t))
	require.ErrorIs(t, err, ErrMalformedFilename)
	assert.Contains(t, err.Error(), "badname.wav")
}

func TestBuild_EmptyDirectory(t *testing.T) {
	_, err := Build(t.TempDir(), newExtractor(t))
	require.ErrorIs(t, err, ErrEmptySampleSet)
}

func TestBuild_MissingDirectory(t *testing.T) {
	_, err := Build("/nonexistent/hrtf", newExtractor(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading sample directory")
}

func TestBuild_SkipsHiddenFilesAndDirectories(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T000_P000.wav")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte{0}, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "plots"), 0o755))

	set, err := Build(dir, newExtractor(t))
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestBuild_MonoIsDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IRC_1_C_R1_T000_P000.wav")
	testutil.WriteWAV(t, path, testutil.FixtureRate, testutil.Constant(testutil.FixtureSamples, 0.1))

	_, err := Build(dir, newExtractor(t))
	require.ErrorIs(t, err, decode.ErrDecodeFailure)
	assert.Contains(t, err.Error(), "IRC_1_C_R1_T000_P000.wav")
}

func TestBuild_CorruptArtifact(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T000_P000.wav")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "IRC_1_C_R1_T010_P000.wav"), []byte("junk"), 0o644))

	_, err := Build(dir, newExtractor(t))
	require.ErrorIs(t, err, decode.ErrDecodeFailure)
	assert.Contains(t, err.Error(), "IRC_1_C_R1_T010_P000.wav")
}

func TestBuild_Duplicates(t *testing.T) {
	dir := writeArtifacts(t,
		"IRC_1_C_R0100_T010_P000.wav",
		"IRC_1_C_R0200_T010_P000.wav",
	)

	_, err := Build(dir, newExtractor(t))
	require.ErrorIs(t, err, ErrDuplicateSample)

	set, err := Build(dir, newExtractor(t), WithDuplicatePolicy(DuplicateAverage))
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, set.Merged())
}

func TestBuild_WorkerCountDoesNotChangeOutput(t *testing.T) {
	var names []string
	for a := 0; a < 360; a += 45 {
		for _, e := range []string{"000", "030", "060"} {
			names = append(names, fmt.Sprintf("IRC_1_C_R1_T%03d_P%s.wav", a, e))
		}
	}
	dir := writeArtifacts(t, names...)

	seq, err := Build(dir, newExtractor(t), WithWorkers(1))
	require.NoError(t, err)
	par, err := Build(dir, newExtractor(t), WithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, seq.Entries(), par.Entries())
}

func TestBuild_Logging(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T000_P000.wav", "IRC_1_C_R1_T090_P000.wav")

	var buf bytes.Buffer
	_, err := Build(dir, newExtractor(t), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Found 2 artifacts")
	assert.Contains(t, out, "Progress: 100%")
	assert.Contains(t, out, "2 directions")
}

func TestBuild_InvalidOptions(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T000_P000.wav")

	_, err := Build(dir, newExtractor(t), WithWorkers(0))
	require.ErrorIs(t, err, ErrInvalidEntry)

	_, err = Build(dir, newExtractor(t), WithDecoder(nil))
	require.ErrorIs(t, err, ErrInvalidEntry)

	_, err = Build(dir, nil)
	require.ErrorIs(t, err, ErrInvalidEntry)
}

func TestBuild_CustomRegistry(t *testing.T) {
	dir := writeArtifacts(t, "IRC_1_C_R1_T000_P000.wav")

	// A registry without WAV support turns every artifact into a decode failure.
	_, err := Build(dir, newExtractor(t), WithDecoder(decode.NewRegistry()))
	require.ErrorIs(t, err, decode.ErrDecodeFailure)
}
