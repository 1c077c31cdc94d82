package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestPeriodicSineRepeats(t *testing.T) {
	s := PeriodicSine(64, 5, 0.8, 256)
	for i := 64; i < len(s); i++ {
		if math.Abs(s[i]-s[i-64]) > 1e-12 {
			t.Fatalf("s[%d] = %v, want %v", i, s[i], s[i-64])
		}
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 1.0, 64)
	b := DeterministicNoise(42, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if a[i] < -1 || a[i] > 1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}

func TestDCAndRamp(t *testing.T) {
	for i, v := range DC(0.5, 8) {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v", i, v)
		}
	}
	r := Ramp(10, 3)
	if r[0] != 10 || r[2] != 12 {
		t.Fatalf("Ramp = %v", r)
	}
}

func TestPlanar(t *testing.T) {
	p := Planar(2, 16)
	if len(p) != 2 || len(p[1]) != 16 {
		t.Fatalf("Planar shape = %d x %d", len(p), len(p[1]))
	}
}
