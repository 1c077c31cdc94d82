package instrument

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-scopesynth/dsp/scope"
)

const (
	// DefaultVoices is the polyphony of the instrument.
	DefaultVoices = 4

	// ScopeOrder is log2 of the snapshot length.
	ScopeOrder = 9
	// ScopeSize is the number of samples per waveform snapshot.
	ScopeSize = 1 << ScopeOrder
	// QueueCapacity is the number of snapshots in flight to the display.
	QueueCapacity = 5

	// DefaultInboxSize is the number of MIDI messages buffered between blocks.
	DefaultInboxSize = 256

	maxVoices = 64
)

// Option configures a Processor.
type Option func(*config) error

type config struct {
	voices         int
	stealing       bool
	pitchBendRange float64
	inboxSize      int
	triggerLevel   float64
	logger         *slog.Logger
}

func defaultConfig() config {
	return config{
		voices:         DefaultVoices,
		stealing:       true,
		pitchBendRange: 2,
		inboxSize:      DefaultInboxSize,
		triggerLevel:   scope.DefaultTriggerLevel,
		logger:         slog.Default(),
	}
}

// WithVoices sets the polyphony.
func WithVoices(n int) Option {
	return func(c *config) error {
		if n <= 0 || n > maxVoices {
			return fmt.Errorf("instrument: voices must be in [1, %d]: %d", maxVoices, n)
		}
		c.voices = n
		return nil
	}
}

// WithVoiceStealing enables or disables stealing the oldest note.
func WithVoiceStealing(enabled bool) Option {
	return func(c *config) error {
		c.stealing = enabled
		return nil
	}
}

// WithPitchBendRange sets the pitch-wheel range in semitones.
func WithPitchBendRange(semitones float64) Option {
	return func(c *config) error {
		if math.IsNaN(semitones) || semitones <= 0 {
			return fmt.Errorf("instrument: pitch bend range must be > 0: %f", semitones)
		}
		c.pitchBendRange = semitones
		return nil
	}
}

// WithInboxSize sets how many MIDI messages can wait for the next block.
func WithInboxSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("instrument: inbox size must be > 0: %d", n)
		}
		c.inboxSize = n
		return nil
	}
}

// WithTriggerLevel sets the scope trigger threshold.
func WithTriggerLevel(level float64) Option {
	return func(c *config) error {
		c.triggerLevel = level
		return nil
	}
}

// WithLogger sets the logger used outside the audio path.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("instrument: logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}
