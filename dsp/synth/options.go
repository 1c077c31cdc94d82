package synth

import (
	"fmt"
	"math"
)

const (
	defaultPitchBendRange = 2.0
	maxPitchBendRange     = 96.0
)

// Option configures a Pool.
type Option func(*poolConfig) error

type poolConfig struct {
	stealing       bool
	pitchBendRange float64
}

func defaultPoolConfig() poolConfig {
	return poolConfig{
		stealing:       true,
		pitchBendRange: defaultPitchBendRange,
	}
}

// WithVoiceStealing enables or disables stealing the oldest note when all
// voices are busy. Stealing is enabled by default.
func WithVoiceStealing(enabled bool) Option {
	return func(c *poolConfig) error {
		c.stealing = enabled
		return nil
	}
}

// WithPitchBendRange sets the bend in semitones reached at full pitch-wheel
// deflection. The default is 2.
func WithPitchBendRange(semitones float64) Option {
	return func(c *poolConfig) error {
		if math.IsNaN(semitones) || semitones <= 0 || semitones > maxPitchBendRange {
			return fmt.Errorf("synth: pitch bend range must be in (0, %g]: %f", maxPitchBendRange, semitones)
		}
		c.pitchBendRange = semitones
		return nil
	}
}
