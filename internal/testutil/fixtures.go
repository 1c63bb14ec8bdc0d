package testutil

import (
	"math"
	"os"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/require"
)

// Fixture audio parameters.
const (
	FixtureRate     = 44100
	FixtureSamples  = 4410
	fixtureBitDepth = 16
	wavFormatPCM    = 1
	maxInt16        = 32767.0
	flacBlockSize   = 4096
)

// Constant returns n copies of v.
func Constant(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Sine returns n samples of a sine at freq Hz.
func Sine(n, rate int, freq, amplitude float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return s
}

// Impulse returns n samples with a single unit sample at position at.
func Impulse(n, at int) []float64 {
	s := make([]float64, n)
	if at >= 0 && at < n {
		s[at] = 1
	}
	return s
}

// WriteWAV writes planar float channels in [-1, 1] as a 16-bit PCM WAV file.
func WriteWAV(t *testing.T, path string, rate int, channels ...[]float64) {
	t.Helper()
	require.NotEmpty(t, channels, "WriteWAV needs at least one channel")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	enc := wav.NewEncoder(f, rate, fixtureBitDepth, len(channels), wavFormatPCM)
	require.NoError(t, enc.Write(interleave16(rate, channels)))
	require.NoError(t, enc.Close())
}

// WriteAIFF writes planar float channels in [-1, 1] as a 16-bit AIFF file,
// the format the ray tracer emits.
func WriteAIFF(t *testing.T, path string, rate int, channels ...[]float64) {
	t.Helper()
	require.NotEmpty(t, channels, "WriteAIFF needs at least one channel")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	enc := aiff.NewEncoder(f, rate, fixtureBitDepth, len(channels))
	require.NoError(t, enc.Write(interleave16(rate, channels)))
	require.NoError(t, enc.Close())
}

// WriteFLAC writes planar float channels in [-1, 1] as a 16-bit FLAC stream
// with one or two channels.
func WriteFLAC(t *testing.T, path string, rate int, channels ...[]float64) {
	t.Helper()
	require.NotEmpty(t, channels, "WriteFLAC needs at least one channel")
	require.LessOrEqual(t, len(channels), 2, "WriteFLAC supports mono or stereo")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	layout := frame.ChannelsMono
	if len(channels) == 2 {
		layout = frame.ChannelsLR
	}
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(rate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: fixtureBitDepth,
	}
	enc, err := flac.NewEncoder(f, info)
	require.NoError(t, err)

	frames := len(channels[0])
	for offset := 0; offset < frames; offset += flacBlockSize {
		n := min(flacBlockSize, frames-offset)
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(rate),
				Channels:          layout,
				BitsPerSample:     fixtureBitDepth,
			},
		}
		for _, samples := range channels {
			block := make([]int32, n)
			for i := range block {
				block[i] = int32(quantize16(samples[offset+i]))
			}
			fr.Subframes = append(fr.Subframes, &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   block,
				NSamples:  n,
			})
		}
		require.NoError(t, enc.WriteFrame(fr))
	}
	// Close also closes f.
	require.NoError(t, enc.Close())
}

func quantize16(v float64) int {
	return int(max(-1, min(1, v)) * maxInt16)
}

func interleave16(rate int, channels [][]float64) *audio.IntBuffer {
	frames := len(channels[0])
	data := make([]int, frames*len(channels))
	for i := range frames {
		for ch, samples := range channels {
			data[i*len(channels)+ch] = quantize16(samples[i])
		}
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: rate},
		Data:           data,
		SourceBitDepth: fixtureBitDepth,
	}
}

// WriteStereoTone writes a stereo WAV with a tone of leftHz on the left
// channel and rightHz on the right channel.
func WriteStereoTone(t *testing.T, path string, leftHz, rightHz float64) {
	t.Helper()
	WriteWAV(t, path, FixtureRate,
		Sine(FixtureSamples, FixtureRate, leftHz, 0.5),
		Sine(FixtureSamples, FixtureRate, rightHz, 0.5),
	)
}
