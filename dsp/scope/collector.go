package scope

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-scopesynth/dsp/buffer"
)

const (
	// DefaultTriggerLevel is the rising-edge threshold.
	DefaultTriggerLevel = 0.05

	// prevSentinel is above any valid sample, so the first sample after a
	// flush can never complete a rising edge.
	prevSentinel = 100.0
)

// State is the capture state of a Collector.
type State int

const (
	StateWaitingForTrigger State = iota
	StateCollecting
)

func (s State) String() string {
	switch s {
	case StateWaitingForTrigger:
		return "waiting"
	case StateCollecting:
		return "collecting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Collector.
type Option func(*config) error

type config struct {
	triggerLevel float64
}

// WithTriggerLevel sets the rising-edge threshold. Input samples are
// expected in [-1, 1].
func WithTriggerLevel(level float64) Option {
	return func(c *config) error {
		if math.IsNaN(level) || level <= -1 || level >= 1 {
			return fmt.Errorf("scope: trigger level must be in (-1, 1): %f", level)
		}
		c.triggerLevel = level
		return nil
	}
}

// Collector captures snapshots of queue.SlotSize() samples that start just
// after a rising edge through the trigger level. Process is the only method
// meant for the audio thread; it does not allocate or block.
type Collector struct {
	queue *buffer.SnapshotQueue
	level float64

	buf     []float64
	count   int
	state   State
	prev    float64
	dropped atomic.Uint64
}

// NewCollector returns a collector feeding queue.
func NewCollector(queue *buffer.SnapshotQueue, opts ...Option) (*Collector, error) {
	if queue == nil {
		return nil, fmt.Errorf("scope: queue must not be nil")
	}

	cfg := config{triggerLevel: DefaultTriggerLevel}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Collector{
		queue: queue,
		level: cfg.triggerLevel,
		buf:   make([]float64, queue.SlotSize()),
		state: StateWaitingForTrigger,
		prev:  prevSentinel,
	}, nil
}

// Process scans samples for a trigger and collects snapshots. Several
// snapshots may complete within one call.
func (c *Collector) Process(samples []float64) {
	for _, s := range samples {
		if c.state == StateWaitingForTrigger {
			if s >= c.level && c.prev < c.level {
				c.count = 0
				c.state = StateCollecting
				continue
			}
			c.prev = s
			continue
		}

		c.buf[c.count] = s
		c.count++
		if c.count == len(c.buf) {
			if !c.queue.Push(c.buf) {
				c.dropped.Add(1)
			}
			c.state = StateWaitingForTrigger
			c.prev = prevSentinel
		}
	}
}

// Reset returns to waiting for a trigger and discards a partial snapshot.
func (c *Collector) Reset() {
	c.count = 0
	c.state = StateWaitingForTrigger
	c.prev = prevSentinel
}

// State returns the current capture state.
func (c *Collector) State() State { return c.state }

// TriggerLevel returns the rising-edge threshold.
func (c *Collector) TriggerLevel() float64 { return c.level }

// Dropped returns the number of completed snapshots the full queue rejected.
// It is safe to call from any goroutine.
func (c *Collector) Dropped() uint64 { return c.dropped.Load() }
