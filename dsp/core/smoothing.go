package core

// LinearSmoothedValue ramps linearly from its current value to a target over
// a fixed number of samples. The zero value holds 0 and snaps immediately.
type LinearSmoothedValue struct {
	current    float64
	target     float64
	step       float64
	countdown  int
	rampLength int
}

// Reset sets the ramp length from a sample rate and duration in seconds and
// snaps the current value to the target.
func (s *LinearSmoothedValue) Reset(sampleRate, rampSeconds float64) {
	n := 0
	if sampleRate > 0 && rampSeconds > 0 {
		n = int(sampleRate*rampSeconds + 0.5)
	}
	s.rampLength = n
	s.SetCurrentAndTarget(s.target)
}

// SetCurrentAndTarget jumps to value without ramping.
func (s *LinearSmoothedValue) SetCurrentAndTarget(value float64) {
	s.current = value
	s.target = value
	s.step = 0
	s.countdown = 0
}

// SetTarget starts a new ramp from the current value to value.
func (s *LinearSmoothedValue) SetTarget(value float64) {
	if value == s.target {
		return
	}
	if s.rampLength <= 0 {
		s.SetCurrentAndTarget(value)
		return
	}
	s.target = value
	s.countdown = s.rampLength
	s.step = (s.target - s.current) / float64(s.countdown)
}

// Next advances the ramp by one sample and returns the new value.
func (s *LinearSmoothedValue) Next() float64 {
	if s.countdown <= 0 {
		return s.target
	}
	s.countdown--
	if s.countdown == 0 {
		s.current = s.target
	} else {
		s.current += s.step
	}
	return s.current
}

// Current returns the present value without advancing.
func (s *LinearSmoothedValue) Current() float64 { return s.current }

// Target returns the value the ramp is heading to.
func (s *LinearSmoothedValue) Target() float64 { return s.target }

// IsSmoothing reports whether a ramp is in progress.
func (s *LinearSmoothedValue) IsSmoothing() bool { return s.countdown > 0 }
