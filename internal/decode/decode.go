// Package decode turns audio artifacts on disk into planar float64 sample
// buffers.
//
// Decoders are registered by file extension. The default registry knows WAV,
// AIFF, FLAC, MP3 and Ogg Vorbis; all of them normalize integer PCM to
// [-1, 1] so band energies are comparable across formats and bit depths.
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tphakala/go-hrtf-table/internal/simdops"
)

// ErrDecodeFailure indicates an artifact that cannot be read, has an
// unsupported container or has inconsistent channel/frame counts.
var ErrDecodeFailure = errors.New("audio decode failure")

// Clip is a fully decoded audio artifact.
type Clip struct {
	SampleRate int
	// Channels holds one slice per channel, all of equal length.
	Channels [][]float64
}

// Frames returns the number of samples per channel.
func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Validate checks the invariants every decoder must uphold.
func (c *Clip) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrDecodeFailure, c.SampleRate)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrDecodeFailure)
	}
	frames := len(c.Channels[0])
	if frames == 0 {
		return fmt.Errorf("%w: no frames", ErrDecodeFailure)
	}
	for ch, samples := range c.Channels {
		if len(samples) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d",
				ErrDecodeFailure, ch, len(samples), frames)
		}
	}
	return nil
}

// Decoder reads a complete clip from r.
type Decoder interface {
	Decode(r io.ReadSeeker) (*Clip, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(r io.ReadSeeker) (*Clip, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.ReadSeeker) (*Clip, error) { return f(r) }

// Registry maps lower-case file extensions (".wav") to decoders.
type Registry struct {
	codecs map[string]Decoder

	mtx sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with every built-in format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", WAVDecoder{})
	r.Register(".wave", WAVDecoder{})
	r.Register(".aif", AIFFDecoder{})
	r.Register(".aiff", AIFFDecoder{})
	r.Register(".flac", FLACDecoder{})
	r.Register(".mp3", MP3Decoder{})
	r.Register(".ogg", VorbisDecoder{})
	return r
}

// Register adds or replaces the decoder for ext.
func (r *Registry) Register(ext string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[normalizeExt(ext)] = d
}

// Get looks up the decoder for ext.
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// Supports reports whether a decoder is registered for the file's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.Get(filepath.Ext(path))
	return ok
}

// DecodeFile opens path and decodes it with the decoder registered for its
// extension. Every failure wraps ErrDecodeFailure and names the file.
func (r *Registry) DecodeFile(path string) (*Clip, error) {
	dec, ok := r.Get(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("%w: %s: no decoder for extension %q",
			ErrDecodeFailure, path, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
	}
	defer func() { _ = f.Close() }()

	clip, err := dec.Decode(f)
	if err != nil {
		if errors.Is(err, ErrDecodeFailure) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
	}
	if err := clip.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// deinterleave splits interleaved samples into planar channels, scaling by
// scale. Trailing samples that do not fill a whole frame are dropped.
func deinterleave[T int | int32 | float32](data []T, channels int, scale float64) [][]float64 {
	frames := len(data) / channels
	out := make([][]float64, channels)
	for ch := range channels {
		out[ch] = make([]float64, frames)
	}
	for i := range frames {
		base := i * channels
		for ch := range channels {
			out[ch][i] = float64(data[base+ch])
		}
	}
	for ch := range out {
		simdops.ScaleInPlace(out[ch], scale)
	}
	return out
}

// fullScale returns the normalization divisor for signed PCM of bitDepth bits.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}
