package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
)

const (
	sawTablePoints  = 4
	sineTablePoints = 128
)

// Wavetable is an immutable lookup table over the phase domain [-pi, pi].
type Wavetable struct {
	points []float64
	scale  float64 // (len(points)-1) / 2pi
}

// NewWavetable samples fn at numPoints evenly spaced phases covering
// [-pi, pi], both ends included.
func NewWavetable(fn func(phase float64) float64, numPoints int) (*Wavetable, error) {
	if fn == nil {
		return nil, fmt.Errorf("osc: wavetable function must not be nil")
	}
	if numPoints < 2 {
		return nil, fmt.Errorf("osc: wavetable needs at least 2 points: %d", numPoints)
	}

	points := make([]float64, numPoints)
	last := float64(numPoints - 1)
	for i := range points {
		x := core.Map(float64(i), 0, last, -math.Pi, math.Pi)
		v := fn(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("osc: wavetable function is not finite at phase %f", x)
		}
		points[i] = v
	}

	return &Wavetable{
		points: points,
		scale:  last / (2 * math.Pi),
	}, nil
}

// SawTable returns the instrument's bright, asymmetric ramp: the phase
// domain [-pi, pi] mapped linearly onto [-2, 1] with 4 table points.
func SawTable() *Wavetable {
	t, err := NewWavetable(func(x float64) float64 {
		return core.Map(x, -math.Pi, math.Pi, -2, 1)
	}, sawTablePoints)
	if err != nil {
		panic(err)
	}
	return t
}

// SineTable returns a sine shape sampled at numPoints points. Values below
// 2 fall back to 128 points.
func SineTable(numPoints int) *Wavetable {
	if numPoints < 2 {
		numPoints = sineTablePoints
	}
	t, err := NewWavetable(math.Sin, numPoints)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of table points.
func (w *Wavetable) Len() int { return len(w.points) }

// At returns the interpolated table value at phase x. Phases outside
// [-pi, pi] are clamped to the table ends.
func (w *Wavetable) At(x float64) float64 {
	pos := (core.Clamp(x, -math.Pi, math.Pi) + math.Pi) * w.scale
	i := int(pos)
	if i >= len(w.points)-1 {
		return w.points[len(w.points)-1]
	}
	frac := pos - float64(i)
	return w.points[i] + frac*(w.points[i+1]-w.points[i])
}
