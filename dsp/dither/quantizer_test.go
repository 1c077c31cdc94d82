package dither

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-scopesynth/internal/testutil"
)

func TestNewQuantizerValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"bit depth low", []Option{WithBitDepth(1)}},
		{"bit depth high", []Option{WithBitDepth(25)}},
		{"dither type", []Option{WithDitherType(DitherType(99))}},
		{"negative amplitude", []Option{WithDitherAmplitude(-1)}},
		{"nan amplitude", []Option{WithDitherAmplitude(math.NaN())}},
		{"shaping order", []Option{WithNoiseShaping(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewQuantizer(tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewQuantizerDefaults(t *testing.T) {
	q, err := NewQuantizer(nil)
	if err != nil {
		t.Fatal(err)
	}

	if q.BitDepth() != 16 {
		t.Errorf("BitDepth() = %d, want 16", q.BitDepth())
	}
	if q.DitherType() != DitherTriangular {
		t.Errorf("DitherType() = %v, want Triangular", q.DitherType())
	}
	if q.DitherAmplitude() != 1 {
		t.Errorf("DitherAmplitude() = %v, want 1", q.DitherAmplitude())
	}
	if !q.Limit() {
		t.Error("Limit() should default to true")
	}
	if q.ShapingOrder() != 0 {
		t.Errorf("ShapingOrder() = %d, want 0", q.ShapingOrder())
	}
}

func TestDitherTypeString(t *testing.T) {
	if DitherTriangular.String() != "Triangular" {
		t.Fatalf("String() = %q", DitherTriangular.String())
	}
	if DitherType(9).String() != "DitherType(9)" {
		t.Fatalf("String() = %q", DitherType(9).String())
	}
}

func TestQuantizerProcessIntegerWithoutDither(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16383},
		{2, 32767},
		{-2, -32768},
	}
	for _, tt := range tests {
		if got := q.ProcessInteger(tt.in); got != tt.want {
			t.Errorf("ProcessInteger(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuantizerLimitDisabled(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone), WithLimit(false), WithBitDepth(8))
	if err != nil {
		t.Fatal(err)
	}
	if got := q.ProcessInteger(2); got <= 127 {
		t.Fatalf("ProcessInteger(2) = %d, want beyond 127", got)
	}
}

func TestQuantizerDeterministicWithSeed(t *testing.T) {
	a, err := NewQuantizer(WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewQuantizer(WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicSine(1000, 48000, 0.5, 256)
	for i, v := range in {
		if x, y := a.ProcessInteger(v), b.ProcessInteger(v); x != y {
			t.Fatalf("sample %d: %d != %d", i, x, y)
		}
	}
}

func TestQuantizerErrorBounded(t *testing.T) {
	for _, dt := range []DitherType{DitherNone, DitherRectangular, DitherTriangular, DitherGaussian} {
		t.Run(dt.String(), func(t *testing.T) {
			q, err := NewQuantizer(WithDitherType(dt), WithSeed(1))
			if err != nil {
				t.Fatal(err)
			}

			in := testutil.DeterministicSine(440, 48000, 0.8, 4096)
			out := append([]float64(nil), in...)
			q.ProcessInPlace(out)

			// Gaussian tails are unbounded; 8 LSB is far beyond 10 sigma.
			diff, err := testutil.MaxAbsDiff(in, out)
			if err != nil {
				t.Fatal(err)
			}
			if diff > 8.0/32767 {
				t.Fatalf("max error = %g", diff)
			}
		})
	}
}

func TestQuantizerTPDFIsUnbiased(t *testing.T) {
	q, err := NewQuantizer(WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}

	// A constant a quarter LSB above a step must average there.
	in := (100.25 + 0.5) / 32767.5
	sum := 0.0
	const n = 20000
	for range n {
		sum += float64(q.ProcessInteger(in))
	}
	if mean := sum / n; math.Abs(mean-100.25) > 0.05 {
		t.Fatalf("mean = %v, want about 100.25", mean)
	}
}

func TestNoiseShapingMovesErrorUpward(t *testing.T) {
	in := testutil.DeterministicSine(997, 48000, 0.5, 8192)

	// Energy of the error summed over 64-sample chunks, a crude low-pass.
	lowBandError := func(order int) float64 {
		q, err := NewQuantizer(WithBitDepth(8), WithNoiseShaping(order), WithSeed(5))
		if err != nil {
			t.Fatal(err)
		}

		energy, chunk := 0.0, 0.0
		for i, v := range in {
			chunk += q.ProcessSample(v) - v
			if i%64 == 63 {
				energy += chunk * chunk
				chunk = 0
			}
		}
		return energy
	}

	flat, shaped := lowBandError(0), lowBandError(2)
	if shaped >= flat {
		t.Fatalf("low band error with shaping %g, without %g", shaped, flat)
	}
}

func TestNoiseShapingAddsNoOffset(t *testing.T) {
	for order := 0; order <= 2; order++ {
		t.Run(fmt.Sprintf("order %d", order), func(t *testing.T) {
			q, err := NewQuantizer(WithNoiseShaping(order), WithSeed(11))
			if err != nil {
				t.Fatal(err)
			}

			const n = 20000
			sum := 0.0
			for range n {
				sum += q.ProcessSample(0)
			}
			// Mean of the reconstructed silence in LSB.
			if mean := sum / n * 32767.5; math.Abs(mean) > 0.05 {
				t.Fatalf("mean = %v LSB, want about 0", mean)
			}
		})
	}
}

func TestQuantizerReset(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone), WithNoiseShaping(1))
	if err != nil {
		t.Fatal(err)
	}

	first := q.ProcessInteger(0.3)
	q.ProcessInteger(0.7)
	q.Reset()
	if got := q.ProcessInteger(0.3); got != first {
		t.Fatalf("after Reset = %d, want %d", got, first)
	}
}

func TestFIRShaperPassThrough(t *testing.T) {
	s := NewFIRShaper(nil)
	s.RecordError(3)
	if got := s.Shape(1.5); got != 1.5 {
		t.Fatalf("Shape() = %v, want 1.5", got)
	}
}

func TestFIRShaperFeedsBackError(t *testing.T) {
	s := NewFIRShaper([]float64{2, -1})

	if got := s.Shape(1); got != 1 {
		t.Fatalf("first Shape() = %v, want 1", got)
	}
	s.RecordError(0.25)
	if got := s.Shape(1); got != 0.5 {
		t.Fatalf("second Shape() = %v, want 0.5", got)
	}
	s.RecordError(-0.5)
	// 1 - 2*(-0.5) + 1*0.25
	if got := s.Shape(1); got != 2.25 {
		t.Fatalf("third Shape() = %v, want 2.25", got)
	}
}

func BenchmarkQuantizerProcessInteger(b *testing.B) {
	q, err := NewQuantizer(WithNoiseShaping(2), WithSeed(1))
	if err != nil {
		b.Fatal(err)
	}
	in := testutil.DeterministicSine(440, 48000, 0.5, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.ProcessInteger(in[i%len(in)])
	}
}

func TestQuantizerRecoversFromClipping(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone), WithNoiseShaping(2))
	if err != nil {
		t.Fatal(err)
	}

	for range 100 {
		q.ProcessInteger(3)
	}
	for i := range 10 {
		if got := q.ProcessInteger(0); got < -4 || got > 4 {
			t.Fatalf("sample %d after overload = %d", i, got)
		}
	}
}
