// Package sequencer plays a looping 16-step note pattern as MIDI messages,
// for driving the instrument without a keyboard.
package sequencer

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// StepCount is the pattern length.
const StepCount = 16

const (
	defaultTempoBPM = 120
	defaultGate     = 0.5
	defaultVelocity = 100
)

// Step is one pattern slot.
type Step struct {
	Enabled  bool
	Key      uint8
	Velocity uint8
}

// DefaultSteps returns an arpeggio over C major sixths, two octaves.
func DefaultSteps() []Step {
	keys := [...]uint8{48, 52, 55, 57, 60, 64, 67, 69}
	steps := make([]Step, StepCount)
	for i := range steps {
		steps[i] = Step{Enabled: true, Key: keys[i%len(keys)], Velocity: defaultVelocity}
	}
	return steps
}

type config struct {
	tempoBPM float64
	shuffle  float64
	gate     float64
	channel  uint8
	steps    []Step
}

// Option configures a Sequencer.
type Option func(*config) error

// WithTempo sets the tempo in quarter notes per minute. Steps are sixteenths.
func WithTempo(bpm float64) Option {
	return func(c *config) error {
		if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
			return fmt.Errorf("sequencer: tempo must be > 0: %f", bpm)
		}
		c.tempoBPM = bpm
		return nil
	}
}

// WithShuffle delays every odd step; 0 is straight, 1 is a full triplet feel.
func WithShuffle(amount float64) Option {
	return func(c *config) error {
		if amount < 0 || amount > 1 || math.IsNaN(amount) {
			return fmt.Errorf("sequencer: shuffle must be in [0, 1]: %f", amount)
		}
		c.shuffle = amount
		return nil
	}
}

// WithGate sets how much of its step a note sounds, in (0, 1].
func WithGate(gate float64) Option {
	return func(c *config) error {
		if gate <= 0 || gate > 1 || math.IsNaN(gate) {
			return fmt.Errorf("sequencer: gate must be in (0, 1]: %f", gate)
		}
		c.gate = gate
		return nil
	}
}

// WithChannel selects the MIDI channel.
func WithChannel(ch uint8) Option {
	return func(c *config) error {
		if ch > 15 {
			return fmt.Errorf("sequencer: channel must be in [0, 15]: %d", ch)
		}
		c.channel = ch
		return nil
	}
}

// WithSteps replaces the pattern. Missing steps are disabled.
func WithSteps(steps []Step) Option {
	return func(c *config) error {
		if len(steps) > StepCount {
			return fmt.Errorf("sequencer: at most %d steps: %d", StepCount, len(steps))
		}
		for i, s := range steps {
			if s.Key > 127 || s.Velocity > 127 {
				return fmt.Errorf("sequencer: step %d out of MIDI range", i)
			}
		}
		c.steps = steps
		return nil
	}
}

type pendingOff struct {
	key uint8
	at  float64
}

// Sequencer schedules pattern steps against a sample clock. It is meant to
// run on the audio goroutine just before each block is rendered.
type Sequencer struct {
	sampleRate float64
	tempoBPM   float64
	shuffle    float64
	gate       float64
	channel    uint8
	steps      [StepCount]Step

	current  int
	clock    float64
	nextStep float64
	offs     []pendingOff
	msg      [3]byte
}

// New returns a sequencer at sampleRate playing DefaultSteps unless
// configured otherwise.
func New(sampleRate float64, opts ...Option) (*Sequencer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("sequencer: sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{
		tempoBPM: defaultTempoBPM,
		gate:     defaultGate,
		steps:    DefaultSteps(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Sequencer{
		sampleRate: sampleRate,
		tempoBPM:   cfg.tempoBPM,
		shuffle:    cfg.shuffle,
		gate:       cfg.gate,
		channel:    cfg.channel,
		offs:       make([]pendingOff, 0, StepCount),
	}
	copy(s.steps[:], cfg.steps)

	return s, nil
}

// Advance emits every message falling inside the next frames samples, in
// time order, and moves the clock forward. It does not allocate; the
// message handed to emit is only valid for the duration of the call.
func (s *Sequencer) Advance(frames int, emit func(midi.Message)) {
	end := s.clock + float64(frames)

	for {
		// Releases first, so a note ending on a step boundary is off before
		// the step retriggers it.
		for i := 0; i < len(s.offs); {
			off := s.offs[i]
			if off.at < end && off.at <= s.nextStep {
				emit(s.message(0x80, off.key, 0))
				s.offs = append(s.offs[:i], s.offs[i+1:]...)
				continue
			}
			i++
		}

		if s.nextStep >= end {
			break
		}

		dur := s.StepDurationSamples(s.current)
		if step := s.steps[s.current]; step.Enabled && step.Velocity > 0 {
			emit(s.message(0x90, step.Key, step.Velocity))
			s.offs = append(s.offs, pendingOff{key: step.Key, at: s.nextStep + s.gate*dur})
		}

		s.nextStep += dur
		s.current = (s.current + 1) % StepCount
	}

	s.clock = end
}

// Stop releases every sounding note and rewinds to the first step.
func (s *Sequencer) Stop(emit func(midi.Message)) {
	for _, off := range s.offs {
		emit(s.message(0x80, off.key, 0))
	}
	s.offs = s.offs[:0]
	s.current = 0
	s.clock = 0
	s.nextStep = 0
}

func (s *Sequencer) message(status, key, velocity uint8) midi.Message {
	s.msg = [3]byte{status | s.channel, key, velocity}
	return midi.Message(s.msg[:])
}

// Step returns the index of the next step to trigger.
func (s *Sequencer) Step() int { return s.current }

// StepDurationSamples returns the length of step i including shuffle.
func (s *Sequencer) StepDurationSamples(i int) float64 {
	base := s.sampleRate * 60 / s.tempoBPM / 4
	ratio := shuffleRatio(s.shuffle)
	if ratio <= 0 {
		return base
	}
	if i%2 == 0 {
		return base * (1 + ratio)
	}
	return base * (1 - ratio)
}

// shuffleRatio maps 0..1 onto a 0..1/3 timing ratio with a gentle curve.
func shuffleRatio(shuffle float64) float64 {
	return (1.0 / 3.0) * math.Pow(shuffle, 1.6)
}
