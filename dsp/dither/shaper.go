package dither

// FIRShaper is error-feedback noise shaping: each input has a weighted sum
// of past quantization errors subtracted before it is quantized.
//
// Per sample:
//
//	shaped := s.Shape(x)
//	q := quantize(shaped)
//	s.RecordError(reconstruct(q) - shaped)
type FIRShaper struct {
	coeffs  []float64
	history []float64
	pos     int
}

// NewFIRShaper copies coeffs. An empty slice passes input through.
func NewFIRShaper(coeffs []float64) *FIRShaper {
	return &FIRShaper{
		coeffs:  append([]float64(nil), coeffs...),
		history: make([]float64, len(coeffs)),
	}
}

// Order returns the number of feedback taps.
func (s *FIRShaper) Order() int { return len(s.coeffs) }

// Shape subtracts the weighted error history from input.
func (s *FIRShaper) Shape(input float64) float64 {
	order := len(s.coeffs)
	if order == 0 {
		return input
	}

	for i, c := range s.coeffs {
		input -= c * s.history[(order+s.pos-i)%order]
	}
	s.pos = (s.pos + 1) % order

	return input
}

// RecordError stores the error of the sample last passed to Shape.
func (s *FIRShaper) RecordError(quantizationError float64) {
	if len(s.coeffs) == 0 {
		return
	}
	s.history[s.pos] = quantizationError
}

// Reset clears the error history.
func (s *FIRShaper) Reset() {
	clear(s.history)
	s.pos = 0
}
