package sampleset

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-hrtf-table/internal/bands"
	"github.com/tphakala/go-hrtf-table/internal/decode"
)

const progressInterval = 10 // Log progress every N%

// Option configures Build.
type Option func(*buildConfig) error

type buildConfig struct {
	workers   int
	policy    DuplicatePolicy
	normalize bool
	registry  *decode.Registry
	logger    *log.Logger
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		workers:   runtime.GOMAXPROCS(0),
		policy:    DuplicateReject,
		normalize: true,
		registry:  decode.DefaultRegistry(),
		logger:    log.New(io.Discard, "", 0),
	}
}

// WithWorkers bounds the number of artifacts decoded concurrently.
// 1 gives a strictly sequential build.
func WithWorkers(n int) Option {
	return func(c *buildConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidEntry, n)
		}
		c.workers = n
		return nil
	}
}

// WithDuplicatePolicy selects how same-angle artifacts are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(c *buildConfig) error {
		c.policy = p
		return nil
	}
}

// WithElevationNormalization toggles the (90 + 360 - e) mod 360 transform.
// It is enabled by default.
func WithElevationNormalization(enabled bool) Option {
	return func(c *buildConfig) error {
		c.normalize = enabled
		return nil
	}
}

// WithDecoder replaces the default decoder registry.
func WithDecoder(r *decode.Registry) Option {
	return func(c *buildConfig) error {
		if r == nil {
			return fmt.Errorf("%w: decoder registry is nil", ErrInvalidEntry)
		}
		c.registry = r
		return nil
	}
}

// WithLogger sets the progress logger. A nil logger silences output.
func WithLogger(l *log.Logger) Option {
	return func(c *buildConfig) error {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		c.logger = l
		return nil
	}
}

// artifact is one file scheduled for decoding.
type artifact struct {
	path string
	key  Key
}

// Build scans dir, decodes every artifact and reduces it to band energies.
//
// Every filename is decoded before any audio is read, so a malformed name
// aborts the run without touching the audio. Hidden files (leading dot) are
// skipped; every other regular file must be a valid artifact. The first
// failure in directory order is returned.
func Build(dir string, ex *bands.Extractor, opts ...Option) (*Set, error) {
	if ex == nil {
		return nil, fmt.Errorf("%w: band extractor is nil", ErrInvalidEntry)
	}
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	artifacts, err := scan(dir, cfg.normalize)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%w: no artifacts in %s", ErrEmptySampleSet, dir)
	}
	cfg.logger.Printf("Found %d artifacts in %s", len(artifacts), dir)

	entries, err := extractAll(artifacts, ex, &cfg)
	if err != nil {
		return nil, err
	}

	set, err := New(entries, cfg.policy)
	if err != nil {
		return nil, err
	}
	cfg.logger.Printf("Sample set: %d directions, %d azimuths, %d elevations, %d merged",
		set.Len(), len(set.azimuths), len(set.elevations), set.Merged())
	return set, nil
}

// scan lists dir in filename order and decodes every key.
func scan(dir string, normalize bool) ([]artifact, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sample directory: %w", err)
	}

	var out []artifact
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		key, err := ParseKey(name, normalize)
		if err != nil {
			return nil, err
		}
		out = append(out, artifact{path: path, key: key})
	}
	return out, nil
}

// extractAll decodes artifacts on a bounded worker pool. Results are stored
// by index so the output does not depend on scheduling.
func extractAll(artifacts []artifact, ex *bands.Extractor, cfg *buildConfig) ([]Entry, error) {
	entries := make([]Entry, len(artifacts))
	errs := make([]error, len(artifacts))

	// Lowest failing index so far; later jobs are skipped once it is set.
	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(artifacts)))

	progress := newProgressTracker(len(artifacts), cfg.logger)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(cfg.workers, len(artifacts)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if int64(i) > firstFailure.Load() {
					continue
				}
				entry, err := extractOne(artifacts[i], ex, cfg.registry)
				if err != nil {
					errs[i] = err
					lowerTo(&firstFailure, int64(i))
					continue
				}
				entries[i] = entry
				progress.done()
			}
		}()
	}
	for i := range artifacts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func extractOne(a artifact, ex *bands.Extractor, registry *decode.Registry) (Entry, error) {
	clip, err := registry.DecodeFile(a.path)
	if err != nil {
		return Entry{}, err
	}
	if len(clip.Channels) != StereoChannels {
		return Entry{}, fmt.Errorf("%w: %s: want %d channels, got %d",
			decode.ErrDecodeFailure, a.path, StereoChannels, len(clip.Channels))
	}

	coeffs, err := ex.ExtractChannels(clip.Channels, clip.SampleRate)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", a.path, err)
	}
	return Entry{Key: a.key, Coefficients: coeffs, Source: filepath.Base(a.path)}, nil
}

func lowerTo(v *atomic.Int64, candidate int64) {
	for {
		cur := v.Load()
		if candidate >= cur || v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}

// progressTracker logs every progressInterval percent of completed artifacts.
type progressTracker struct {
	total  int
	logger *log.Logger

	mu           sync.Mutex
	completed    int
	lastProgress int
}

func newProgressTracker(total int, logger *log.Logger) *progressTracker {
	return &progressTracker{total: total, logger: logger}
}

func (p *progressTracker) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	progress := p.completed * 100 / p.total
	if progress >= p.lastProgress+progressInterval {
		p.logger.Printf("Progress: %d%% (%d/%d)", progress, p.completed, p.total)
		p.lastProgress = progress
	}
}
