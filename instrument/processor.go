package instrument

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cwbudde/algo-scopesynth/dsp/buffer"
	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/scope"
	"github.com/cwbudde/algo-scopesynth/dsp/spectrum"
	"github.com/cwbudde/algo-scopesynth/dsp/synth"
	"gitlab.com/gomidi/midi/v2"
)

// ErrUnsupportedLayout is returned by Prepare for channel counts other than
// mono or stereo.
var ErrUnsupportedLayout = errors.New("instrument: only mono and stereo layouts are supported")

const (
	ccTimbre       = 74
	ccAllSoundOff  = 120
	ccAllNotesOff  = 123
	midiValueScale = 127.0
)

// Metadata describes the processor to a host.
type Metadata struct {
	Name         string
	AcceptsMIDI  bool
	ProducesMIDI bool
	TailSeconds  float64
	Programs     int
}

// Processor is the instrument. ProcessBlock and HandleMessage belong to the
// audio goroutine; Post may be called from any goroutine.
type Processor struct {
	logger *slog.Logger

	pool      *synth.Pool
	queue     *buffer.SnapshotQueue
	collector *scope.Collector

	inbox   chan midi.Message
	dropped atomic.Uint64

	cfg      core.ProcessorConfig
	prepared bool
}

// New builds an unprepared processor.
func New(opts ...Option) (*Processor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	voices := make([]synth.Voice, cfg.voices)
	for i := range voices {
		v, err := synth.NewDualVoice()
		if err != nil {
			return nil, fmt.Errorf("instrument: %w", err)
		}
		voices[i] = v
	}

	pool, err := synth.NewPool(voices,
		synth.WithVoiceStealing(cfg.stealing),
		synth.WithPitchBendRange(cfg.pitchBendRange),
	)
	if err != nil {
		return nil, fmt.Errorf("instrument: %w", err)
	}

	queue, err := buffer.NewSnapshotQueue(QueueCapacity, ScopeSize)
	if err != nil {
		return nil, fmt.Errorf("instrument: %w", err)
	}

	collector, err := scope.NewCollector(queue, scope.WithTriggerLevel(cfg.triggerLevel))
	if err != nil {
		return nil, fmt.Errorf("instrument: %w", err)
	}

	return &Processor{
		logger:    cfg.logger,
		pool:      pool,
		queue:     queue,
		collector: collector,
		inbox:     make(chan midi.Message, cfg.inboxSize),
	}, nil
}

// Metadata returns the fixed host-facing description.
func (p *Processor) Metadata() Metadata {
	return Metadata{
		Name:        "scopesynth",
		AcceptsMIDI: true,
		Programs:    1,
	}
}

// Prepare validates cfg and prepares every voice. It allocates and must not
// run concurrently with ProcessBlock.
func (p *Processor) Prepare(cfg core.ProcessorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("instrument: %w", err)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, cfg.Channels)
	}
	if err := p.pool.Prepare(cfg); err != nil {
		return fmt.Errorf("instrument: %w", err)
	}

	p.collector.Reset()
	p.cfg = cfg
	p.prepared = true

	p.logger.Info("instrument prepared",
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
		"channels", cfg.Channels,
		"voices", p.pool.Voices(),
	)

	return nil
}

// Config returns the configuration of the last successful Prepare.
func (p *Processor) Config() core.ProcessorConfig { return p.cfg }

// Post queues msg for the next block. It never blocks and reports false
// when the inbox is full.
func (p *Processor) Post(msg midi.Message) bool {
	select {
	case p.inbox <- msg:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// DroppedMessages returns the number of messages Post rejected.
func (p *Processor) DroppedMessages() uint64 { return p.dropped.Load() }

// HandleMessage applies msg to the voice pool immediately.
func (p *Processor) HandleMessage(msg midi.Message) {
	var ch, key, vel, cc, val, pressure uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		p.pool.NoteOn(ch, key, float64(vel)/midiValueScale)
	case msg.GetNoteEnd(&ch, &key):
		p.pool.NoteOff(ch, key)
	case msg.GetPitchBend(&ch, &rel, &abs):
		p.pool.PitchWheel(ch, rel)
	case msg.GetAfterTouch(&ch, &pressure):
		p.pool.ChannelPressure(ch, float64(pressure)/midiValueScale)
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case ccTimbre:
			p.pool.Timbre(ch, float64(val)/midiValueScale)
		case ccAllSoundOff, ccAllNotesOff:
			p.pool.AllNotesOff()
		}
	}
}

// ProcessBlock applies pending MIDI, overwrites out with the mix of all
// sounding voices and feeds channel 0 to the scope. All channels of out
// must have the same length. Before Prepare the output is silence.
func (p *Processor) ProcessBlock(out [][]float64) {
	p.drainInbox()

	if len(out) == 0 {
		return
	}
	n := len(out[0])
	core.ZeroChannels(out, 0, n)

	if !p.prepared {
		return
	}

	p.pool.RenderNextBlock(out, 0, n)
	p.collector.Process(out[0])
}

// drainInbox handles at most one inbox worth of messages so a flooding
// sender cannot stall the block.
func (p *Processor) drainInbox() {
	for range cap(p.inbox) {
		select {
		case msg := <-p.inbox:
			p.HandleMessage(msg)
		default:
			return
		}
	}
}

// ActiveVoices returns the number of sounding voices. Audio goroutine only.
func (p *Processor) ActiveVoices() int { return p.pool.ActiveVoices() }

// Queue returns the snapshot queue the display reads from.
func (p *Processor) Queue() *buffer.SnapshotQueue { return p.queue }

// DroppedSnapshots returns the snapshots lost to a full queue.
func (p *Processor) DroppedSnapshots() uint64 { return p.collector.Dropped() }

// NewDisplay returns the consumer for the processor's snapshots. Only one
// display may read at a time.
func (p *Processor) NewDisplay(opts ...spectrum.Option) (*scope.Display, error) {
	return scope.NewDisplay(p.queue, opts...)
}

// State returns the persisted state; the instrument has none.
func (p *Processor) State() []byte { return nil }

// SetState restores persisted state; the input is ignored.
func (p *Processor) SetState([]byte) {}
