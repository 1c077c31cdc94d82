package synth

import "github.com/cwbudde/algo-scopesynth/dsp/core"

// ReferencePitchHz is the frequency of MIDI note 69 (A4).
const ReferencePitchHz = 440.0

// Note is one logical sounding note with its per-note expression.
type Note struct {
	Channel uint8
	Key     uint8

	// Velocity, Pressure and Timbre are normalised to [0, 1].
	Velocity float64
	Pressure float64
	Timbre   float64

	// PitchBend is the current bend in semitones.
	PitchBend float64
}

// FrequencyHz returns the equal-tempered frequency of the note including
// its pitch bend.
func (n Note) FrequencyHz() float64 {
	return core.NoteToFrequency(float64(n.Key)+n.PitchBend, ReferencePitchHz)
}

// Voice is the capability the Pool drives. Implementations render
// additively into the output and must not allocate outside Prepare.
type Voice interface {
	Prepare(cfg core.ProcessorConfig) error
	RenderNextBlock(out [][]float64, start, n int)

	NoteStarted(n Note)
	NotePitchbendChanged(n Note)
	NoteStopped(allowTailOff bool)
	NotePressureChanged(n Note)
	NoteTimbreChanged(n Note)
	NoteKeyStateChanged(n Note)

	IsActive() bool
}
