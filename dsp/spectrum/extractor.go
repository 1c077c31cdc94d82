package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultMinDB = -160.0
	defaultMaxDB = 0.0
)

// Option configures an Extractor.
type Option func(*config) error

type config struct {
	minDB  float64
	maxDB  float64
	window window.Type
}

func defaultConfig() config {
	return config{
		minDB:  defaultMinDB,
		maxDB:  defaultMaxDB,
		window: window.TypeHann,
	}
}

// WithRange sets the decibel range mapped onto [0, 1].
func WithRange(minDB, maxDB float64) Option {
	return func(c *config) error {
		if math.IsNaN(minDB) || math.IsNaN(maxDB) || math.IsInf(minDB, 0) || math.IsInf(maxDB, 0) {
			return fmt.Errorf("spectrum: dB range must be finite: [%f, %f]", minDB, maxDB)
		}
		if minDB >= maxDB {
			return fmt.Errorf("spectrum: min dB must be below max dB: [%f, %f]", minDB, maxDB)
		}
		c.minDB = minDB
		c.maxDB = maxDB
		return nil
	}
}

// WithWindow selects the analysis window. The window is always normalised
// to unit mean.
func WithWindow(t window.Type) Option {
	return func(c *config) error {
		if window.Info(t).Name == "" {
			return fmt.Errorf("spectrum: unknown window type: %d", t)
		}
		c.window = t
		return nil
	}
}

// Extractor computes a normalised magnitude spectrum of fixed-size snapshots.
// All buffers are allocated by NewExtractor; Process does not allocate.
type Extractor struct {
	size   int
	minDB  float64
	maxDB  float64
	sizeDB float64

	window []float64
	plan   *algofft.Plan[complex128]
	in     []complex128
	out    []complex128
	re     []float64
	im     []float64
	// work holds the windowed input, then the per-bin levels.
	work []float64
}

// NewExtractor returns an Extractor for snapshots of size samples. size must
// be a power of two and at least 4.
func NewExtractor(size int, opts ...Option) (*Extractor, error) {
	if size < 4 || size&(size-1) != 0 {
		return nil, fmt.Errorf("spectrum: size must be a power of two >= 4: %d", size)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: init fft plan: %w", err)
	}

	return &Extractor{
		size:   size,
		minDB:  cfg.minDB,
		maxDB:  cfg.maxDB,
		sizeDB: 20 * math.Log10(float64(size)),
		window: window.Generate(cfg.window, size, window.WithNormalize()),
		plan:   plan,
		in:     make([]complex128, size),
		out:    make([]complex128, size),
		re:     make([]float64, size),
		im:     make([]float64, size),
		work:   make([]float64, 2*size),
	}, nil
}

// Size returns the snapshot length in samples.
func (e *Extractor) Size() int {
	return e.size
}

// Bins returns the number of values returned by Process.
func (e *Extractor) Bins() int {
	return e.size / 2
}

// Process windows samples, transforms them and returns Size()/2 levels in
// [0, 1], one per bin from DC upwards. Missing samples are treated as
// zeros; extra samples are ignored. The returned slice is owned by the
// Extractor and overwritten by the next call.
func (e *Extractor) Process(samples []float64) []float64 {
	n := copy(e.work, samples)
	clear(e.work[n:])

	// work has room for 2*size samples, only the first size are analysed.
	_ = window.ApplyCoefficientsInPlace(e.work, e.window)

	for i := range e.in {
		e.in[i] = complex(e.work[i], 0)
	}

	levels := e.work[:e.size]
	if err := e.plan.Forward(e.out, e.in); err != nil {
		clear(levels)
		return levels[:e.size/2]
	}

	for i, c := range e.out {
		e.re[i] = real(c)
		e.im[i] = imag(c)
	}
	vecmath.Magnitude(levels, e.re, e.im)

	for i, mag := range levels {
		db := core.Clamp(gainToDB(mag)-e.sizeDB, e.minDB, e.maxDB)
		levels[i] = core.Map(db, e.minDB, e.maxDB, 0, 1)
	}

	return levels[:e.size/2]
}
