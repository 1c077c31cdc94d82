package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
)

const (
	twoPi = 2 * math.Pi

	// FrequencyRampSeconds is the glide time used by non-forced frequency changes.
	FrequencyRampSeconds = 0.05

	defaultFrequencyHz = 440.0
)

// Oscillator reads a Wavetable with a phase accumulator in [0, 2pi).
type Oscillator struct {
	table      *Wavetable
	sampleRate float64
	frequency  core.LinearSmoothedValue
	phase      float64
}

// NewOscillator returns an oscillator over table. It must be prepared with
// a sample rate before it produces sound.
func NewOscillator(table *Wavetable) (*Oscillator, error) {
	if table == nil {
		return nil, fmt.Errorf("osc: wavetable must not be nil")
	}
	o := &Oscillator{table: table}
	o.frequency.SetCurrentAndTarget(defaultFrequencyHz)
	return o, nil
}

// Prepare sets the sample rate, resets the frequency ramp length and
// clears the phase.
func (o *Oscillator) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("osc: sample rate must be > 0 and finite: %f", sampleRate)
	}
	o.sampleRate = sampleRate
	o.frequency.Reset(sampleRate, FrequencyRampSeconds)
	o.phase = 0
	return nil
}

// SetFrequency updates the target frequency. With force the new frequency
// applies from the next sample; otherwise it glides over FrequencyRampSeconds.
func (o *Oscillator) SetFrequency(hz float64, force bool) {
	if force {
		o.frequency.SetCurrentAndTarget(hz)
		return
	}
	o.frequency.SetTarget(hz)
}

// Frequency returns the instantaneous (possibly gliding) frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency.Current() }

// TargetFrequency returns the frequency the oscillator is heading to.
func (o *Oscillator) TargetFrequency() float64 { return o.frequency.Target() }

// SampleRate returns the prepared sample rate, 0 before Prepare.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Reset clears the phase and finishes any frequency glide.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.frequency.SetCurrentAndTarget(o.frequency.Target())
}

// Next returns the next output sample and advances the phase.
func (o *Oscillator) Next() float64 {
	if o.sampleRate <= 0 {
		return 0
	}

	out := o.table.At(o.phase - math.Pi)

	o.phase += twoPi * o.frequency.Next() / o.sampleRate
	if o.phase >= twoPi || o.phase < 0 {
		o.phase -= twoPi * math.Floor(o.phase/twoPi)
	}

	return out
}
