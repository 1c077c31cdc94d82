// Package tui is the terminal front end: it turns keystrokes into MIDI
// messages for the instrument and draws the oscilloscope and spectrum.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-scopesynth/dsp/scope"
)

const (
	// DefaultHoldTimeout releases a note when its key has not repeated for
	// this long. Terminals report no key-up events.
	DefaultHoldTimeout = 500 * time.Millisecond

	defaultVelocity = 100
	scopeWidth      = 64
	scopeHeight     = 10
	spectrumHeight  = 8
	allNotesOffCC   = 123
)

// Instrument receives MIDI from the UI goroutine.
type Instrument interface {
	Post(msg midi.Message) bool
	DroppedMessages() uint64
	DroppedSnapshots() uint64
}

// Ticker yields display frames.
type Ticker interface {
	Tick() scope.Frame
}

type tickMsg time.Time

// Option configures a Model.
type Option func(*Model)

// WithHoldTimeout sets how long a note sounds after its last key event.
func WithHoldTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.holdTimeout = d
		}
	}
}

// WithChannel selects the MIDI channel notes are sent on.
func WithChannel(ch uint8) Option {
	return func(m *Model) {
		m.channel = ch & 15
	}
}

// WithVelocity sets the note-on velocity.
func WithVelocity(v uint8) Option {
	return func(m *Model) {
		if v > 0 && v < 128 {
			m.velocity = v
		}
	}
}

// WithFPS sets the redraw rate.
func WithFPS(fps int) Option {
	return func(m *Model) {
		if fps > 0 && fps < 1000 {
			m.fps = fps
		}
	}
}

// Model is the bubbletea model.
type Model struct {
	inst        Instrument
	display     Ticker
	now         func() time.Time
	held        map[uint8]time.Time
	holdTimeout time.Duration
	channel     uint8
	velocity    uint8
	octave      int
	fps         int
	frame       scope.Frame
	frames      uint64
	quitting    bool
}

// NewModel wires the UI to an instrument and its display.
func NewModel(inst Instrument, display Ticker, opts ...Option) Model {
	m := Model{
		inst:        inst,
		display:     display,
		now:         time.Now,
		held:        make(map[uint8]time.Time),
		holdTimeout: DefaultHoldTimeout,
		velocity:    defaultVelocity,
		octave:      defaultOctave,
		fps:         scope.DefaultFPS,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init starts the redraw timer.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses and redraw ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg.String())
		if m.quitting {
			return m, tea.Quit
		}

	case tickMsg:
		m.releaseExpired(time.Time(msg))
		m.frame = m.display.Tick()
		m.frames++
		return m, m.tickCmd()
	}

	return m, nil
}

func (m *Model) handleKey(key string) {
	switch key {
	case "ctrl+c", "esc", "q":
		m.releaseAll()
		m.quitting = true
		return
	case "z":
		m.octave = max(minOctave, m.octave-1)
		return
	case "x":
		m.octave = min(maxOctave, m.octave+1)
		return
	case " ":
		m.releaseAll()
		m.inst.Post(midi.ControlChange(m.channel, allNotesOffCC, 0))
		return
	}

	note, ok := noteForKey(key, m.octave)
	if !ok {
		return
	}

	// Auto-repeat of a held key only extends the note.
	if _, sounding := m.held[note]; !sounding {
		m.inst.Post(midi.NoteOn(m.channel, note, m.velocity))
	}
	m.held[note] = m.now()
}

func (m *Model) releaseExpired(now time.Time) {
	for note, last := range m.held {
		if now.Sub(last) >= m.holdTimeout {
			m.inst.Post(midi.NoteOff(m.channel, note))
			delete(m.held, note)
		}
	}
}

func (m *Model) releaseAll() {
	for note := range m.held {
		m.inst.Post(midi.NoteOff(m.channel, note))
	}
	clear(m.held)
}

// View draws the scope, spectrum and status lines.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		titleStyle.Render("S C O P E S Y N T H"),
		labelStyle.Render("waveform"),
		renderWaveform(m.frame.Waveform, scopeWidth, scopeHeight),
		labelStyle.Render("spectrum"),
		renderSpectrum(m.frame.Spectrum, scopeWidth, spectrumHeight),
		statusStyle.Render(m.status()),
		helpStyle.Render("a-; play  z/x octave  space panic  q quit"),
	}

	return frameStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) status() string {
	notes := make([]uint8, 0, len(m.held))
	for note := range m.held {
		notes = append(notes, note)
	}
	slices.Sort(notes)

	names := make([]string, len(notes))
	for i, note := range notes {
		names[i] = noteName(note)
	}

	return fmt.Sprintf("octave %d  held [%s]  dropped msgs %d  skipped frames %d",
		m.octave, strings.Join(names, " "), m.inst.DroppedMessages(), m.inst.DroppedSnapshots())
}

// Run drives the program on the alternate screen until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
