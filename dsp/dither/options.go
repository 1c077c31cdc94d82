package dither

import (
	"fmt"
	"math"
)

const (
	defaultBitDepth        = 16
	defaultDitherType      = DitherTriangular
	defaultDitherAmplitude = 1.0
	minBitDepth            = 2
	maxBitDepth            = 24
	maxShapingOrder        = 2
)

// shapingCoeffs holds error-feedback filters by order: none, first-order
// error feedback, second-order highpass.
var shapingCoeffs = [maxShapingOrder + 1][]float64{
	nil,
	{1},
	{2, -1},
}

type config struct {
	bitDepth        int
	ditherType      DitherType
	ditherAmplitude float64
	limit           bool
	shapingOrder    int
	seed            uint64
	seeded          bool
}

func defaultConfig() config {
	return config{
		bitDepth:        defaultBitDepth,
		ditherType:      defaultDitherType,
		ditherAmplitude: defaultDitherAmplitude,
		limit:           true,
	}
}

// Option configures a Quantizer.
type Option func(*config) error

// WithBitDepth sets the target bit depth (2..24, default 16).
func WithBitDepth(bits int) Option {
	return func(cfg *config) error {
		if bits < minBitDepth || bits > maxBitDepth {
			return fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
		}
		cfg.bitDepth = bits
		return nil
	}
}

// WithDitherType sets the dither noise PDF (default DitherTriangular).
func WithDitherType(dt DitherType) Option {
	return func(cfg *config) error {
		if !dt.Valid() {
			return fmt.Errorf("dither: invalid dither type: %d", dt)
		}
		cfg.ditherType = dt
		return nil
	}
}

// WithDitherAmplitude scales the dither noise in LSB (default 1).
func WithDitherAmplitude(amp float64) Option {
	return func(cfg *config) error {
		if amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
		}
		cfg.ditherAmplitude = amp
		return nil
	}
}

// WithLimit enables or disables clipping to the bit-depth range (default on).
func WithLimit(enabled bool) Option {
	return func(cfg *config) error {
		cfg.limit = enabled
		return nil
	}
}

// WithNoiseShaping selects the error-feedback order: 0 disables shaping,
// 1 and 2 push quantization noise towards high frequencies.
func WithNoiseShaping(order int) Option {
	return func(cfg *config) error {
		if order < 0 || order > maxShapingOrder {
			return fmt.Errorf("dither: noise shaping order must be in [0, %d]: %d", maxShapingOrder, order)
		}
		cfg.shapingOrder = order
		return nil
	}
}

// WithSeed makes the dither noise reproducible.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		cfg.seeded = true
		return nil
	}
}
