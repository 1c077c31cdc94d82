package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeFlatTop
	TypeTriangle
)

// Metadata holds spectral properties of a window type.
type Metadata struct {
	Name            string
	ENBW            float64
	HighestSidelobe float64
}

var (
	hannCoeffs            = []float64{0.5, -0.5}
	hammingCoeffs         = []float64{0.54, -0.46}
	blackmanCoeffs        = []float64{0.42, -0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	flatTopCoeffs         = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

var metadataByType = map[Type]Metadata{
	TypeRectangular:         {Name: "Rectangular", ENBW: 1, HighestSidelobe: -13.3},
	TypeHann:                {Name: "Hann", ENBW: 1.5, HighestSidelobe: -31.5},
	TypeHamming:             {Name: "Hamming", ENBW: 1.36, HighestSidelobe: -42.7},
	TypeBlackman:            {Name: "Blackman", ENBW: 1.73, HighestSidelobe: -58.1},
	TypeBlackmanHarris4Term: {Name: "Blackman-Harris", ENBW: 2.0, HighestSidelobe: -92},
	TypeFlatTop:             {Name: "Flat Top", ENBW: 3.77, HighestSidelobe: -93},
	TypeTriangle:            {Name: "Triangle", ENBW: 1.33, HighestSidelobe: -26.5},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic  bool
	normalize bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// WithNormalize scales the coefficients to a mean of one, so that a windowed
// constant keeps its level.
func WithNormalize() Option {
	return func(c *config) {
		c.normalize = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	out := make([]float64, length)
	Fill(t, out, opts...)

	return out
}

// Fill writes window coefficients of the given type into dst.
func Fill(t Type, dst []float64, opts ...Option) {
	if len(dst) == 0 {
		return
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	for i := range dst {
		dst[i] = evalWindow(t, samplePosition(i, len(dst), cfg.periodic))
	}

	if cfg.normalize {
		normalizeMean(dst)
	}
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf, Generate(t, len(buf), opts...))
}

// Info returns static metadata for a window type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
// Only the first len(coeffs) samples are touched; samples must be at least
// that long.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) < len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples[:len(coeffs)], coeffs)

	return nil
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris4Term:
		return cosineFromCoeffs(x, blackmanHarris4Coeffs)
	case TypeFlatTop:
		return cosineFromCoeffs(x, flatTopCoeffs)
	case TypeTriangle:
		return 1 - math.Abs(2*x-1)
	default:
		return 1
	}
}

func normalizeMean(coeffs []float64) {
	sum := 0.0
	for _, v := range coeffs {
		sum += v
	}

	if sum == 0 {
		return
	}

	scale := float64(len(coeffs)) / sum
	for i := range coeffs {
		coeffs[i] *= scale
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
