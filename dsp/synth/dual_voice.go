package synth

import (
	"fmt"

	"github.com/cwbudde/algo-scopesynth/dsp/buffer"
	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/filter/moog"
	"github.com/cwbudde/algo-scopesynth/dsp/osc"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// ModulationPeriod is the number of samples between LFO updates of the
	// filter cutoff.
	ModulationPeriod = 101

	// DetuneRatio is the frequency ratio of the secondary oscillator.
	DetuneRatio = 1.01

	// OscillatorGain scales each oscillator ahead of the filter. The saw
	// spans [-2, 1], so the pair at full velocity stays within [-2, 1].
	OscillatorGain = 0.5

	// MasterGain is the fixed linear output gain of a voice. The ladder
	// output is saturated to [-1, 1], so a voice peaks at MasterGain.
	MasterGain = 0.7

	// FilterResonance is the normalised ladder resonance.
	FilterResonance = 0.9

	// InitialCutoffHz is the filter cutoff before the first LFO update.
	InitialCutoffHz = 1000.0

	// LFORateHz is the cutoff sweep rate.
	LFORateHz = 2.0

	lfoTablePoints = 128
	minCutoffHz    = 100.0
	maxCutoffHz    = 2000.0
)

// DualVoice is two detuned oscillators into a per-channel ladder low-pass
// with an LFO-swept cutoff.
type DualVoice struct {
	primary   *osc.Unit
	secondary *osc.Unit
	lfo       *osc.Oscillator
	filters   []*moog.Filter

	scratch *buffer.Block
	views   [][]float64

	counter int
	updates uint64

	active bool
	note   Note
}

var _ Voice = (*DualVoice)(nil)

// NewDualVoice returns an unprepared voice.
func NewDualVoice() (*DualVoice, error) {
	primary, err := osc.NewUnit(osc.SawTable())
	if err != nil {
		return nil, fmt.Errorf("synth: primary oscillator: %w", err)
	}
	secondary, err := osc.NewUnit(osc.SawTable())
	if err != nil {
		return nil, fmt.Errorf("synth: secondary oscillator: %w", err)
	}
	lfo, err := osc.NewOscillator(osc.SineTable(lfoTablePoints))
	if err != nil {
		return nil, fmt.Errorf("synth: lfo: %w", err)
	}

	return &DualVoice{
		primary:   primary,
		secondary: secondary,
		lfo:       lfo,
		counter:   ModulationPeriod,
	}, nil
}

// Prepare sizes the voice for cfg. The LFO runs at the modulation rate,
// one step per ModulationPeriod samples.
func (v *DualVoice) Prepare(cfg core.ProcessorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("synth: prepare voice: %w", err)
	}

	if err := v.primary.Prepare(cfg.SampleRate); err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	if err := v.secondary.Prepare(cfg.SampleRate); err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	if err := v.lfo.Prepare(cfg.SampleRate / ModulationPeriod); err != nil {
		return fmt.Errorf("synth: prepare lfo: %w", err)
	}
	v.lfo.SetFrequency(LFORateHz, true)

	filters := make([]*moog.Filter, cfg.Channels)
	for ch := range filters {
		f, err := moog.New(cfg.SampleRate,
			moog.WithCutoffHz(InitialCutoffHz),
			moog.WithResonance(FilterResonance),
			moog.WithVariant(filterVariant),
			moog.WithNormalizeOutput(false),
			moog.WithSaturatedOutput(true),
		)
		if err != nil {
			return fmt.Errorf("synth: prepare filter: %w", err)
		}
		filters[ch] = f
	}

	scratch, err := buffer.NewBlock(cfg.Channels, cfg.BlockSize)
	if err != nil {
		return fmt.Errorf("synth: %w", err)
	}

	v.filters = filters
	v.scratch = scratch
	v.views = make([][]float64, cfg.Channels)
	v.counter = ModulationPeriod
	v.updates = 0

	return nil
}

// NoteStarted snaps both oscillators to the note's pitch and sets their
// level from the velocity.
func (v *DualVoice) NoteStarted(n Note) {
	hz := n.FrequencyHz()

	v.primary.SetFrequency(hz, true)
	v.primary.SetLevel(n.Velocity * OscillatorGain)
	v.secondary.SetFrequency(hz*DetuneRatio, true)
	v.secondary.SetLevel(n.Velocity * OscillatorGain)

	v.note = n
	v.active = true
}

// NotePitchbendChanged glides both oscillators to the bent pitch.
func (v *DualVoice) NotePitchbendChanged(n Note) {
	hz := n.FrequencyHz()

	v.primary.SetFrequency(hz, false)
	v.secondary.SetFrequency(hz*DetuneRatio, false)

	v.note = n
}

// NoteStopped releases the voice immediately; the voice has no tail.
// Filter and LFO keep their running state.
func (v *DualVoice) NoteStopped(bool) {
	v.active = false
	v.note = Note{}
}

func (v *DualVoice) NotePressureChanged(Note) {}
func (v *DualVoice) NoteTimbreChanged(Note)   {}
func (v *DualVoice) NoteKeyStateChanged(Note) {}

// IsActive reports whether the voice is sounding a note.
func (v *DualVoice) IsActive() bool { return v.active }

// CurrentNote returns the sounding note, the zero Note when idle.
func (v *DualVoice) CurrentNote() Note { return v.note }

// Frequencies returns the target frequencies of both oscillators.
func (v *DualVoice) Frequencies() (primary, secondary float64) {
	return v.primary.TargetFrequency(), v.secondary.TargetFrequency()
}

// CutoffHz returns the current filter cutoff, 0 before Prepare.
func (v *DualVoice) CutoffHz() float64 {
	if len(v.filters) == 0 {
		return 0
	}
	return v.filters[0].CutoffHz()
}

// ModulationCounter returns the samples left until the next LFO update.
func (v *DualVoice) ModulationCounter() int { return v.counter }

// ModulationUpdates returns the number of LFO updates since Prepare.
func (v *DualVoice) ModulationUpdates() uint64 { return v.updates }

// RenderNextBlock adds n frames starting at start into out. Channels of out
// beyond the prepared channel count are left untouched.
func (v *DualVoice) RenderNextBlock(out [][]float64, start, n int) {
	if v.scratch == nil {
		return
	}

	frames := v.scratch.Frames()
	for done := 0; done < n; {
		m := min(n-done, frames)
		v.render(out, start+done, m)
		done += m
	}
}

func (v *DualVoice) render(out [][]float64, start, n int) {
	v.scratch.Clear(n)
	block := v.scratch.View(n)

	for pos := 0; pos < n; {
		chunk := min(n-pos, v.counter)
		views := core.SubBlock(v.views, block, pos, chunk)

		v.primary.Process(views)
		v.secondary.Process(views)
		for ch, f := range v.filters {
			f.ProcessInPlace(views[ch])
			vecmath.ScaleBlockInPlace(views[ch], MasterGain)
		}

		pos += chunk
		v.counter -= chunk
		if v.counter == 0 {
			v.counter = ModulationPeriod
			v.updateModulation()
		}
	}

	channels := min(len(out), len(block))
	for ch := 0; ch < channels; ch++ {
		vecmath.AddBlockInPlace(out[ch][start:start+n], block[ch])
	}
}

func (v *DualVoice) updateModulation() {
	cutoff := core.Map(v.lfo.Next(), -1, 1, minCutoffHz, maxCutoffHz)
	for _, f := range v.filters {
		f.SetCutoffHz(cutoff)
	}
	v.updates++
}
