package dither

import (
	"math"
	"math/rand/v2"
)

// Quantizer maps samples in [-1, 1] onto signed integers of a given bit
// depth. It keeps per-stream shaping state, so use one per channel.
type Quantizer struct {
	bitDepth        int
	ditherType      DitherType
	ditherAmplitude float64
	limit           bool
	shaper          *FIRShaper
	rng             *rand.Rand

	bitMul  float64
	bitDiv  float64
	limitLo int
	limitHi int
}

// NewQuantizer returns a 16-bit TPDF quantizer with limiting and no noise
// shaping unless configured otherwise.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	seed1, seed2 := cfg.seed, uint64(0)
	if !cfg.seeded {
		seed1, seed2 = rand.Uint64(), rand.Uint64()
	}

	q := &Quantizer{
		bitDepth:        cfg.bitDepth,
		ditherType:      cfg.ditherType,
		ditherAmplitude: cfg.ditherAmplitude,
		limit:           cfg.limit,
		shaper:          NewFIRShaper(shapingCoeffs[cfg.shapingOrder]),
		rng:             rand.New(rand.NewPCG(seed1, seed2)),
	}

	q.bitMul = math.Exp2(float64(q.bitDepth-1)) - 0.5
	q.bitDiv = 1 / q.bitMul
	q.limitLo = -int(math.Round(q.bitMul + 0.5))
	q.limitHi = int(math.Round(q.bitMul - 0.5))

	return q, nil
}

// ProcessInteger quantizes input to an integer in the bit-depth range.
func (q *Quantizer) ProcessInteger(input float64) int {
	shaped := q.shaper.Shape(q.bitMul * input)

	result := int(math.Floor(shaped + q.noise()))

	// The error is taken against the reconstructed value result+0.5, before
	// clipping, so the shaper state stays bounded and free of DC.
	q.shaper.RecordError(float64(result) + 0.5 - shaped)

	if q.limit {
		result = max(q.limitLo, min(q.limitHi, result))
	}

	return result
}

// ProcessSample quantizes input and returns it rescaled to about [-1, 1].
func (q *Quantizer) ProcessSample(input float64) float64 {
	return (float64(q.ProcessInteger(input)) + 0.5) * q.bitDiv
}

// ProcessInPlace quantizes buf in place.
func (q *Quantizer) ProcessInPlace(buf []float64) {
	for i, v := range buf {
		buf[i] = q.ProcessSample(v)
	}
}

// Reset clears the noise shaping history.
func (q *Quantizer) Reset() { q.shaper.Reset() }

func (q *Quantizer) noise() float64 {
	switch q.ditherType {
	case DitherRectangular:
		return q.ditherAmplitude * (q.rng.Float64() - 0.5)
	case DitherTriangular:
		return q.ditherAmplitude * (q.rng.Float64() - q.rng.Float64())
	case DitherGaussian:
		return q.ditherAmplitude * 0.5 * q.rng.NormFloat64()
	default:
		return 0
	}
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// DitherType returns the dither noise PDF.
func (q *Quantizer) DitherType() DitherType { return q.ditherType }

// DitherAmplitude returns the dither noise scale in LSB.
func (q *Quantizer) DitherAmplitude() float64 { return q.ditherAmplitude }

// Limit reports whether output is clipped to the bit-depth range.
func (q *Quantizer) Limit() bool { return q.limit }

// ShapingOrder returns the error-feedback order.
func (q *Quantizer) ShapingOrder() int { return q.shaper.Order() }
