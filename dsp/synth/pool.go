package synth

import (
	"fmt"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
)

const (
	midiChannels     = 16
	pitchWheelCenter = 8192.0
)

type slot struct {
	voice   Voice
	note    Note
	started uint64
}

// Pool routes note events to a fixed set of voices and mixes them.
type Pool struct {
	slots          []slot
	stealing       bool
	pitchBendRange float64
	channelBend    [midiChannels]float64
	channelPress   [midiChannels]float64
	channelTimbre  [midiChannels]float64
	clock          uint64
	maxBlockSize   int
}

// NewPool returns a pool over voices. The pool must be prepared before it
// renders.
func NewPool(voices []Voice, opts ...Option) (*Pool, error) {
	if len(voices) == 0 {
		return nil, fmt.Errorf("synth: pool needs at least one voice")
	}

	cfg := defaultPoolConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	slots := make([]slot, len(voices))
	for i, v := range voices {
		if v == nil {
			return nil, fmt.Errorf("synth: voice %d is nil", i)
		}
		slots[i].voice = v
	}

	return &Pool{
		slots:          slots,
		stealing:       cfg.stealing,
		pitchBendRange: cfg.pitchBendRange,
	}, nil
}

// Prepare forwards cfg to every voice.
func (p *Pool) Prepare(cfg core.ProcessorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("synth: prepare pool: %w", err)
	}
	for i := range p.slots {
		if err := p.slots[i].voice.Prepare(cfg); err != nil {
			return fmt.Errorf("synth: prepare voice %d: %w", i, err)
		}
	}
	p.maxBlockSize = cfg.BlockSize
	return nil
}

// Voices returns the pool capacity.
func (p *Pool) Voices() int { return len(p.slots) }

// PitchBendRange returns the bend in semitones at full wheel deflection.
func (p *Pool) PitchBendRange() float64 { return p.pitchBendRange }

// ActiveVoices returns the number of sounding voices.
func (p *Pool) ActiveVoices() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].voice.IsActive() {
			n++
		}
	}
	return n
}

// ActiveNotes appends the sounding notes to dst in voice order.
func (p *Pool) ActiveNotes(dst []Note) []Note {
	for i := range p.slots {
		if p.slots[i].voice.IsActive() {
			dst = append(dst, p.slots[i].note)
		}
	}
	return dst
}

// NoteOn starts key on channel with velocity in [0, 1]. A key that is
// already sounding on the channel is retriggered on its voice. Otherwise
// an idle voice is used, or the oldest note is stolen when stealing is
// enabled. A zero velocity is a note-off. NoteOn reports whether the note
// got a voice.
func (p *Pool) NoteOn(channel, key uint8, velocity float64) bool {
	channel &= midiChannels - 1
	if velocity <= 0 {
		p.NoteOff(channel, key)
		return false
	}

	idx := p.find(channel, key)
	if idx < 0 {
		idx = p.idle()
	}
	if idx < 0 {
		if !p.stealing {
			return false
		}
		idx = p.oldest()
		p.slots[idx].voice.NoteStopped(false)
	}

	p.clock++
	s := &p.slots[idx]
	s.note = Note{
		Channel:   channel,
		Key:       key,
		Velocity:  core.Clamp(velocity, 0, 1),
		Pressure:  p.channelPress[channel],
		Timbre:    p.channelTimbre[channel],
		PitchBend: p.channelBend[channel],
	}
	s.started = p.clock
	s.voice.NoteStarted(s.note)

	return true
}

// NoteOff releases key on channel if it is sounding.
func (p *Pool) NoteOff(channel, key uint8) {
	channel &= midiChannels - 1
	if idx := p.find(channel, key); idx >= 0 {
		p.slots[idx].voice.NoteStopped(true)
		p.slots[idx].note = Note{}
	}
}

// PitchBend sets the bend of channel in semitones and updates its notes.
func (p *Pool) PitchBend(channel uint8, semitones float64) {
	channel &= midiChannels - 1
	p.channelBend[channel] = semitones
	for i := range p.slots {
		s := &p.slots[i]
		if s.voice.IsActive() && s.note.Channel == channel {
			s.note.PitchBend = semitones
			s.voice.NotePitchbendChanged(s.note)
		}
	}
}

// PitchWheel converts a relative 14-bit wheel position (-8192..8191) into
// semitones using the pool's pitch-bend range.
func (p *Pool) PitchWheel(channel uint8, relative int16) {
	p.PitchBend(channel, float64(relative)/pitchWheelCenter*p.pitchBendRange)
}

// ChannelPressure sets the pressure of channel's notes, in [0, 1].
func (p *Pool) ChannelPressure(channel uint8, pressure float64) {
	channel &= midiChannels - 1
	pressure = core.Clamp(pressure, 0, 1)
	p.channelPress[channel] = pressure
	for i := range p.slots {
		s := &p.slots[i]
		if s.voice.IsActive() && s.note.Channel == channel {
			s.note.Pressure = pressure
			s.voice.NotePressureChanged(s.note)
		}
	}
}

// Timbre sets the timbre dimension of channel's notes, in [0, 1].
func (p *Pool) Timbre(channel uint8, timbre float64) {
	channel &= midiChannels - 1
	timbre = core.Clamp(timbre, 0, 1)
	p.channelTimbre[channel] = timbre
	for i := range p.slots {
		s := &p.slots[i]
		if s.voice.IsActive() && s.note.Channel == channel {
			s.note.Timbre = timbre
			s.voice.NoteTimbreChanged(s.note)
		}
	}
}

// AllNotesOff silences every voice without tail.
func (p *Pool) AllNotesOff() {
	for i := range p.slots {
		if p.slots[i].voice.IsActive() {
			p.slots[i].voice.NoteStopped(false)
		}
		p.slots[i].note = Note{}
	}
}

// RenderNextBlock adds n frames starting at start of every sounding voice
// into out, in sub-blocks no longer than the prepared block size.
func (p *Pool) RenderNextBlock(out [][]float64, start, n int) {
	if p.maxBlockSize <= 0 {
		return
	}

	for done := 0; done < n; {
		m := min(n-done, p.maxBlockSize)
		for i := range p.slots {
			if p.slots[i].voice.IsActive() {
				p.slots[i].voice.RenderNextBlock(out, start+done, m)
			}
		}
		done += m
	}
}

func (p *Pool) find(channel, key uint8) int {
	for i := range p.slots {
		s := &p.slots[i]
		if s.voice.IsActive() && s.note.Channel == channel && s.note.Key == key {
			return i
		}
	}
	return -1
}

func (p *Pool) idle() int {
	for i := range p.slots {
		if !p.slots[i].voice.IsActive() {
			return i
		}
	}
	return -1
}

func (p *Pool) oldest() int {
	idx := 0
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].started < p.slots[idx].started {
			idx = i
		}
	}
	return idx
}
