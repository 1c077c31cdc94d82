package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
		{name: "negative infinity", value: math.Inf(-1), min: -160, max: 0, expected: -160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMap(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{name: "low edge", value: -1, want: 100},
		{name: "high edge", value: 1, want: 2000},
		{name: "center", value: 0, want: 1050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.value, -1, 1, 100, 2000)
			if !NearlyEqual(got, tt.want, 1e-12) {
				t.Fatalf("Map(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	if got := Map(5, 1, 1, 3, 4); got != 3 {
		t.Fatalf("Map with empty source range = %v, want 3", got)
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
}

func TestLinearToDB(t *testing.T) {
	if db := LinearToDB(0.5); !NearlyEqual(db, -6.020599913279624, 1e-12) {
		t.Fatalf("LinearToDB(0.5) = %v", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestNoteToFrequency(t *testing.T) {
	if f := NoteToFrequency(69, 440); f != 440 {
		t.Fatalf("A4 = %v, want 440", f)
	}
	if f := NoteToFrequency(81, 440); !NearlyEqual(f, 880, 1e-12) {
		t.Fatalf("A5 = %v, want 880", f)
	}
	if f := NoteToFrequency(60, 440); !NearlyEqual(f, 261.6255653005986, 1e-12) {
		t.Fatalf("C4 = %v", f)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatal("expected tiny value to flush to zero")
	}
	if FlushDenormals(1e-3) != 1e-3 {
		t.Fatal("expected normal value to pass through")
	}
}
