package bands

import (
	"fmt"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-hrtf-table/internal/mathutil"
	"github.com/tphakala/go-hrtf-table/internal/simdops"
)

// Mode selects the per-bin statistic averaged inside each band.
type Mode int

const (
	// ModePower averages |X|^2. This is the mode used for table generation.
	ModePower Mode = iota

	// ModeMagnitude averages |X|.
	ModeMagnitude
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModePower:
		return "power"
	case ModeMagnitude:
		return "magnitude"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a configuration name onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "power", "":
		return ModePower, nil
	case "magnitude":
		return ModeMagnitude, nil
	default:
		return ModePower, fmt.Errorf("%w: unknown mode %q (want power or magnitude)", ErrInvalidInput, s)
	}
}

// fftHermitianDivisor gives the one-sided bin count of a real FFT: N/2 + 1.
const fftHermitianDivisor = 2

// Option configures an Extractor.
type Option func(*Extractor) error

// WithMode sets the per-bin statistic.
func WithMode(m Mode) Option {
	return func(e *Extractor) error {
		if m != ModePower && m != ModeMagnitude {
			return fmt.Errorf("%w: unknown mode %d", ErrInvalidInput, int(m))
		}
		e.mode = m
		return nil
	}
}

// Extractor computes band energies for single channels. It is safe for
// concurrent use: FFT plans are pooled per transform length.
type Extractor struct {
	boundaries Boundaries
	mode       Mode

	mu    sync.Mutex
	plans map[int]*sync.Pool
}

// NewExtractor creates an extractor for the given band edges.
func NewExtractor(b Boundaries, opts ...Option) (*Extractor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{
		boundaries: b,
		mode:       ModePower,
		plans:      make(map[int]*sync.Pool),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Boundaries returns the band edges the extractor was built with.
func (e *Extractor) Boundaries() Boundaries { return e.boundaries }

// Mode returns the configured statistic.
func (e *Extractor) Mode() Mode { return e.mode }

// Bands returns the length of every coefficient vector produced.
func (e *Extractor) Bands() int { return e.boundaries.Bands() }

// BinIndices maps every band edge to a one-sided FFT bin index for an
// n-sample transform at sampleRate: floor(edge * n / sampleRate), clamped to
// the n/2+1 available bins. The result is non-decreasing.
func (e *Extractor) BinIndices(n, sampleRate int) ([]int, error) {
	return BinIndices(e.boundaries, n, sampleRate)
}

// BinIndices is the standalone form of Extractor.BinIndices.
func BinIndices(b Boundaries, n, sampleRate int) ([]int, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count must be positive, got %d", ErrInvalidInput, n)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidInput, sampleRate)
	}

	bins := n/fftHermitianDivisor + 1
	idx := make([]int, len(b.hz))
	for i, f := range b.hz {
		pos, ok := mathutil.FloorIndex(f * float64(n) / float64(sampleRate))
		if !ok {
			return nil, fmt.Errorf("%w: edge %v Hz has no bin position", ErrInvalidInput, f)
		}
		idx[i] = min(pos, bins)
	}
	return idx, nil
}

// Extract returns one energy value per band for a single channel.
func (e *Extractor) Extract(samples []float64, sampleRate int) ([]float64, error) {
	n := len(samples)
	idx, err := e.BinIndices(n, sampleRate)
	if err != nil {
		return nil, err
	}

	spectrum := e.spectrum(samples)

	out := make([]float64, len(idx)-1)
	for band := range out {
		lo, hi := idx[band], idx[band+1]
		if hi <= lo {
			return nil, fmt.Errorf("%w: band %d (%g-%g Hz) at n=%d, rate=%d",
				ErrEmptyBand, band, e.boundaries.hz[band], e.boundaries.hz[band+1], n, sampleRate)
		}
		out[band] = e.bandMean(spectrum[lo:hi])
	}
	return out, nil
}

// ExtractChannels runs Extract on every channel of a planar clip.
func (e *Extractor) ExtractChannels(channels [][]float64, sampleRate int) ([][]float64, error) {
	out := make([][]float64, len(channels))
	for ch, samples := range channels {
		coeffs, err := e.Extract(samples, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		out[ch] = coeffs
	}
	return out, nil
}

// spectrum returns the n/2+1 one-sided DFT coefficients of samples.
func (e *Extractor) spectrum(samples []float64) []complex128 {
	pool := e.planPool(len(samples))
	fft, ok := pool.Get().(*fourier.FFT)
	if !ok {
		fft = fourier.NewFFT(len(samples))
	}
	defer pool.Put(fft)

	return fft.Coefficients(nil, samples)
}

func (e *Extractor) planPool(n int) *sync.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, ok := e.plans[n]
	if !ok {
		pool = &sync.Pool{New: func() any { return fourier.NewFFT(n) }}
		e.plans[n] = pool
	}
	return pool
}

// bandMean averages |X|^2 or |X| over a non-empty run of bins.
func (e *Extractor) bandMean(bins []complex128) float64 {
	count := float64(len(bins))

	if e.mode == ModeMagnitude {
		mag := make([]float64, len(bins))
		for i, c := range bins {
			mag[i] = cmplx.Abs(c)
		}
		return simdops.Float64Ops().Sum(mag) / count
	}

	re := make([]float64, len(bins))
	im := make([]float64, len(bins))
	for i, c := range bins {
		re[i], im[i] = real(c), imag(c)
	}

	return simdops.Energy(re, im) / count
}
