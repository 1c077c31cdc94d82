package scope

import (
	"context"
	"fmt"
	"time"

	"github.com/cwbudde/algo-scopesynth/dsp/buffer"
	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/spectrum"
)

// DefaultFPS is the refresh rate used by the instrument's display.
const DefaultFPS = 30

// Frame is one display refresh. Both slices are owned by the Display and
// are overwritten by the next Tick.
type Frame struct {
	// Waveform holds the latest snapshot mapped from [-1, 1] onto [0, 1],
	// clamped to that range.
	Waveform []float64
	// Spectrum holds one level in [0, 1] per bin, DC first.
	Spectrum []float64
	// Fresh reports whether a new snapshot arrived since the last Tick.
	Fresh bool
}

// Display is the consumer side of a SnapshotQueue. It must be driven from a
// single goroutine.
type Display struct {
	queue     *buffer.SnapshotQueue
	extractor *spectrum.Extractor
	samples   []float64
	waveform  []float64
}

// NewDisplay returns a display reading queue. The queue slot size must be a
// power of two; opts configure the spectrum analysis.
func NewDisplay(queue *buffer.SnapshotQueue, opts ...spectrum.Option) (*Display, error) {
	if queue == nil {
		return nil, fmt.Errorf("scope: queue must not be nil")
	}

	extractor, err := spectrum.NewExtractor(queue.SlotSize(), opts...)
	if err != nil {
		return nil, fmt.Errorf("scope: %w", err)
	}

	return &Display{
		queue:     queue,
		extractor: extractor,
		samples:   make([]float64, queue.SlotSize()),
		waveform:  make([]float64, queue.SlotSize()),
	}, nil
}

// Tick pops at most one snapshot and returns the frame to draw. With an
// empty queue the previous snapshot is shown again. Samples outside [-1, 1]
// are pinned to the edges of the waveform.
func (d *Display) Tick() Frame {
	fresh := d.queue.Pop(d.samples)

	for i, s := range d.samples {
		d.waveform[i] = core.Clamp(core.Map(s, -1, 1, 0, 1), 0, 1)
	}

	return Frame{
		Waveform: d.waveform,
		Spectrum: d.extractor.Process(d.samples),
		Fresh:    fresh,
	}
}

// Run calls fn with a new frame fps times per second until ctx is done.
func (d *Display) Run(ctx context.Context, fps int, fn func(Frame)) error {
	if fps <= 0 || fps >= 1000 {
		return fmt.Errorf("scope: fps must be in (0, 1000): %d", fps)
	}
	if fn == nil {
		return fmt.Errorf("scope: frame callback must not be nil")
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(d.Tick())
		}
	}
}
