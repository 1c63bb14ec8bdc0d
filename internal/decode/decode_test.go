package decode

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-hrtf-table/internal/testutil"
)

func TestDecodeFile_WAVStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	left := testutil.Sine(testutil.FixtureSamples, testutil.FixtureRate, 440, 0.5)
	right := testutil.Constant(testutil.FixtureSamples, -0.25)
	testutil.WriteWAV(t, path, testutil.FixtureRate, left, right)

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, testutil.FixtureRate, clip.SampleRate)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, testutil.FixtureSamples, clip.Frames())

	// 16-bit quantization error is below 1/32767.
	const quantization = 1.0 / 16384
	for i := 0; i < testutil.FixtureSamples; i += 97 {
		assert.InDelta(t, left[i], clip.Channels[0][i], quantization, "left sample %d", i)
		assert.InDelta(t, right[i], clip.Channels[1][i], quantization, "right sample %d", i)
	}
}

func TestDecodeFile_WAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	testutil.WriteWAV(t, path, 22050, testutil.Constant(1000, 0.5))

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 22050, clip.SampleRate)
	assert.Len(t, clip.Channels, 1)
	assert.Equal(t, 1000, clip.Frames())
}

// writeRawWAV writes interleaved sample words as they should appear in the
// data chunk, with an explicit format tag.
func writeRawWAV(t *testing.T, path string, bitDepth, formatTag, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	enc := wav.NewEncoder(f, testutil.FixtureRate, bitDepth, channels, formatTag)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: testutil.FixtureRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
}

func TestDecodeFile_WAV8BitUnsigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u8.wav")
	// Silence is 0x80; 0xC0 and 0x40 sit half way to either rail.
	writeRawWAV(t, path, 8, wavFormatPCM, 2, []int{
		0x80, 0x80,
		0xC0, 0x40,
		0x80, 0xC0,
		0x00, 0x80,
	})

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, []float64{0, 0.5, 0, -1}, clip.Channels[0])
	assert.Equal(t, []float64{0, -0.5, 0.5, 0}, clip.Channels[1])
}

func TestDecodeFile_WAVFloat32(t *testing.T) {
	left := []float32{0.001, 0.25, -0.5, 0}
	right := []float32{-0.75, 1, 0.125, -0.001}
	data := make([]int, 0, 2*len(left))
	for i := range left {
		data = append(data,
			int(int32(math.Float32bits(left[i]))),
			int(int32(math.Float32bits(right[i]))))
	}
	path := filepath.Join(t.TempDir(), "float.wav")
	writeRawWAV(t, path, 32, wavFormatIEEEFloat, 2, data)

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, clip.Channels, 2)
	require.Equal(t, len(left), clip.Frames())
	for i := range left {
		assert.Equal(t, float64(left[i]), clip.Channels[0][i], "left sample %d", i)
		assert.Equal(t, float64(right[i]), clip.Channels[1][i], "right sample %d", i)
	}
}

func TestDecodeFile_WAVUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()

	adpcm := filepath.Join(dir, "adpcm.wav")
	writeRawWAV(t, adpcm, 16, 2, 2, make([]int, 16))
	_, err := DefaultRegistry().DecodeFile(adpcm)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "format tag 0x2")

	float16 := filepath.Join(dir, "float16.wav")
	writeRawWAV(t, float16, 16, wavFormatIEEEFloat, 2, make([]int, 16))
	_, err = DefaultRegistry().DecodeFile(float16)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "16-bit float")
}

func TestDecodeFile_AIFFStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.aiff")
	left := testutil.Sine(1000, testutil.FixtureRate, 1000, 0.5)
	right := testutil.Constant(1000, -0.25)
	testutil.WriteAIFF(t, path, testutil.FixtureRate, left, right)

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.FixtureRate, clip.SampleRate)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, 1000, clip.Frames())

	const quantization = 1.0 / 16384
	for i := 0; i < 1000; i += 37 {
		assert.InDelta(t, left[i], clip.Channels[0][i], quantization, "left sample %d", i)
		assert.InDelta(t, right[i], clip.Channels[1][i], quantization, "right sample %d", i)
	}
}

func TestDecodeFile_AIFF8BitSigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s8.aiff")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := aiff.NewEncoder(f, testutil.FixtureRate, 8, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testutil.FixtureRate},
		Data:           []int{0, 64, -64, -128},
		SourceBitDepth: 8,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, clip.Channels, 1)
	assert.Equal(t, []float64{0, 0.5, -0.5, -1}, clip.Channels[0])
}

func TestDecodeFile_FLACStereo(t *testing.T) {
	// Spans two encoder blocks.
	const frames = 5000
	path := filepath.Join(t.TempDir(), "tone.flac")
	left := testutil.Sine(frames, testutil.FixtureRate, 440, 0.5)
	right := testutil.Constant(frames, 0.25)
	testutil.WriteFLAC(t, path, testutil.FixtureRate, left, right)

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.FixtureRate, clip.SampleRate)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, frames, clip.Frames())

	const quantization = 1.0 / 16384
	for i := 0; i < frames; i += 41 {
		assert.InDelta(t, left[i], clip.Channels[0][i], quantization, "left sample %d", i)
		assert.InDelta(t, right[i], clip.Channels[1][i], quantization, "right sample %d", i)
	}
}

func TestDecodeFile_MP3(t *testing.T) {
	// 40 MPEG-2 Layer III frames of mono speech at 22.05 kHz.
	const (
		mp3Frames       = 40
		samplesPerFrame = 576
	)
	clip, err := DefaultRegistry().DecodeFile(filepath.Join("testdata", "speech.mp3"))
	require.NoError(t, err)

	assert.Equal(t, 22050, clip.SampleRate)
	require.Len(t, clip.Channels, 2, "go-mp3 always decodes to stereo")
	assert.Equal(t, mp3Frames*samplesPerFrame, clip.Frames())
	assert.Equal(t, clip.Channels[0], clip.Channels[1], "mono source is duplicated")
	testutil.AssertAllInRange(t, clip.Channels[0], -1, 1)
}

func TestDecodeFile_OggVorbis(t *testing.T) {
	clip, err := DefaultRegistry().DecodeFile(filepath.Join("testdata", "tone.ogg"))
	require.NoError(t, err)

	assert.Equal(t, 44100, clip.SampleRate)
	require.Len(t, clip.Channels, 1)
	require.Equal(t, 44100, clip.Frames())

	// Reference values from the libvorbis decode of the same stream.
	const tolerance = 2e-5
	want := map[int]float64{
		0:     0.005767822265625,
		1000:  0.73016357421875,
		10000: 0.11444091796875,
		22050: 0,
		44099: 0.014007568359375,
	}
	for i, v := range want {
		assert.InDelta(t, v, clip.Channels[0][i], tolerance, "sample %d", i)
	}
	testutil.AssertAllInRange(t, clip.Channels[0], -1, 1)
}

func TestDecodeFile_UppercaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TONE.WAV")
	testutil.WriteStereoTone(t, path, 440, 880)

	clip, err := DefaultRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, clip.Channels, 2)
}

func TestDecodeFile_FileNotFound(t *testing.T) {
	_, err := DefaultRegistry().DecodeFile("/nonexistent/file.wav")
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "/nonexistent/file.wav")
}

func TestDecodeFile_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := DefaultRegistry().DecodeFile(path)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "no decoder")
}

func TestDecodeFile_GarbageInput(t *testing.T) {
	for _, ext := range []string{".wav", ".aiff", ".flac", ".mp3", ".ogg"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "garbage"+ext)
			require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not audio "), 64), 0o644))

			_, err := DefaultRegistry().DecodeFile(path)
			require.ErrorIs(t, err, ErrDecodeFailure)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestRegistry_RegisterNormalizesExtension(t *testing.T) {
	r := NewRegistry()
	r.Register("RAW", DecoderFunc(func(io.ReadSeeker) (*Clip, error) {
		return &Clip{SampleRate: 8000, Channels: [][]float64{{1, 2}, {3, 4}}}, nil
	}))

	_, ok := r.Get(".raw")
	assert.True(t, ok)
	assert.True(t, r.Supports("/some/dir/file.Raw"))
	assert.False(t, r.Supports("/some/dir/file.wav"))
}

func TestRegistry_CustomDecoderValidated(t *testing.T) {
	r := NewRegistry()
	r.Register(".raw", DecoderFunc(func(io.ReadSeeker) (*Clip, error) {
		return &Clip{SampleRate: 8000, Channels: [][]float64{{1, 2, 3}, {4}}}, nil
	}))

	path := filepath.Join(t.TempDir(), "ragged.raw")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))

	_, err := r.DecodeFile(path)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "channel 1 has 1 frames")
}

func TestClipValidate(t *testing.T) {
	tests := []struct {
		name string
		clip Clip
		ok   bool
	}{
		{"valid", Clip{SampleRate: 44100, Channels: [][]float64{{0, 1}, {1, 0}}}, true},
		{"zero rate", Clip{SampleRate: 0, Channels: [][]float64{{0}}}, false},
		{"no channels", Clip{SampleRate: 44100}, false},
		{"no frames", Clip{SampleRate: 44100, Channels: [][]float64{{}, {}}}, false},
		{"ragged", Clip{SampleRate: 44100, Channels: [][]float64{{0, 1}, {0}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.clip.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrDecodeFailure)
		})
	}
}

func TestDeinterleave(t *testing.T) {
	out := deinterleave([]int{1, 10, 2, 20, 3, 30, 4}, 2, 0.5)
	require.Len(t, out, 2)
	assert.Equal(t, []float64{0.5, 1, 1.5}, out[0])
	assert.Equal(t, []float64{5, 10, 15}, out[1])
}

func TestFullScale(t *testing.T) {
	assert.Equal(t, 128.0, fullScale(8))
	assert.Equal(t, 32768.0, fullScale(16))
	assert.Equal(t, 8388608.0, fullScale(24))
	assert.Equal(t, 32768.0, fullScale(0))
}
