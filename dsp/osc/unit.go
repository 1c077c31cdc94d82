package osc

import "fmt"

// Unit is one detunable oscillator followed by a linear gain stage.
type Unit struct {
	osc   *Oscillator
	level float64
}

// NewUnit builds a unit over table. A nil table selects SawTable.
func NewUnit(table *Wavetable) (*Unit, error) {
	if table == nil {
		table = SawTable()
	}
	o, err := NewOscillator(table)
	if err != nil {
		return nil, err
	}
	return &Unit{osc: o, level: 1}, nil
}

// Prepare readies the oscillator for sampleRate.
func (u *Unit) Prepare(sampleRate float64) error {
	if err := u.osc.Prepare(sampleRate); err != nil {
		return fmt.Errorf("osc: prepare unit: %w", err)
	}
	return nil
}

// SetFrequency sets the target frequency. forceImmediate snaps without
// glide and is meant for new notes; pitch bends pass false.
func (u *Unit) SetFrequency(hz float64, forceImmediate bool) {
	u.osc.SetFrequency(hz, forceImmediate)
}

// SetLevel sets the linear output gain without smoothing.
func (u *Unit) SetLevel(linear float64) { u.level = linear }

// Level returns the linear output gain.
func (u *Unit) Level() float64 { return u.level }

// Frequency returns the instantaneous oscillator frequency.
func (u *Unit) Frequency() float64 { return u.osc.Frequency() }

// TargetFrequency returns the frequency the oscillator is heading to.
func (u *Unit) TargetFrequency() float64 { return u.osc.TargetFrequency() }

// Reset clears phase and glide state.
func (u *Unit) Reset() { u.osc.Reset() }

// Process advances the oscillator once per frame and adds the scaled
// output to every channel of block in place. All channels must share the
// same length.
func (u *Unit) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}
	n := len(block[0])
	for i := 0; i < n; i++ {
		s := u.level * u.osc.Next()
		for ch := range block {
			block[ch][i] += s
		}
	}
}
