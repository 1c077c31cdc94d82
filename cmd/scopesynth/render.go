package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/dsp/scope"
	"github.com/cwbudde/algo-scopesynth/instrument"
	"github.com/cwbudde/algo-scopesynth/internal/audioout"
	"github.com/cwbudde/algo-scopesynth/internal/sequencer"
)

// sequencedRenderer feeds the step pattern into the processor right before
// each block. Both run on the audio goroutine.
type sequencedRenderer struct {
	proc *instrument.Processor
	seq  *sequencer.Sequencer
}

func (r *sequencedRenderer) ProcessBlock(out [][]float64) {
	r.seq.Advance(len(out[0]), r.proc.HandleMessage)
	r.proc.ProcessBlock(out)
}

// reportRow summarises one report interval of channel 0.
type reportRow struct {
	seconds    float64
	voices     int
	peakDB     float64
	rmsDB      float64
	spectralHz float64
	snapshot   bool
}

// reportingRenderer renders through a sequencedRenderer and closes a report
// row every interval frames.
type reportingRenderer struct {
	sequencedRenderer
	display  *scope.Display
	interval int

	frames  int
	pending int
	peak    float64
	energy  float64
	rows    []reportRow
}

func (r *reportingRenderer) ProcessBlock(out [][]float64) {
	r.sequencedRenderer.ProcessBlock(out)

	ch := out[0]
	r.peak = max(r.peak, vecmath.MaxAbs(ch))
	r.energy += vecmath.DotProduct(ch, ch)
	r.frames += len(ch)
	r.pending += len(ch)

	if r.pending >= r.interval {
		r.closeRow()
	}
}

func (r *reportingRenderer) closeRow() {
	cfg := r.proc.Config()
	frame := r.display.Tick()

	r.rows = append(r.rows, reportRow{
		seconds:    float64(r.frames) / cfg.SampleRate,
		voices:     r.proc.ActiveVoices(),
		peakDB:     core.LinearToDB(r.peak),
		rmsDB:      core.LinearToDB(math.Sqrt(r.energy / float64(r.pending))),
		spectralHz: peakFrequency(frame.Spectrum, cfg.SampleRate),
		snapshot:   frame.Fresh,
	})

	r.pending = 0
	r.peak = 0
	r.energy = 0
}

// peakFrequency returns the centre frequency of the loudest non-DC bin of a
// half spectrum, or 0 when every level is zero.
func peakFrequency(levels []float64, sampleRate float64) float64 {
	best, bin := 0.0, 0
	for i := 1; i < len(levels); i++ {
		if levels[i] > best {
			best, bin = levels[i], i
		}
	}
	if bin == 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(2*len(levels))
}

func renderToFile(o options, proc *instrument.Processor) error {
	var out io.Writer = io.Discard
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	rows, err := render(out, o, proc)
	if err != nil {
		return err
	}

	if o.out != "" {
		logger.Info("render written", "file", o.out, "format", o.format,
			"channels", o.channels, "sample_rate", o.sampleRate)
	}

	return printReport(os.Stdout, rows)
}

// render plays the demo pattern for o.render and streams interleaved
// frames in o.format to out.
func render(out io.Writer, o options, proc *instrument.Processor) ([]reportRow, error) {
	seq, err := sequencer.New(float64(o.sampleRate), sequencer.WithTempo(o.tempo))
	if err != nil {
		return nil, err
	}

	display, err := proc.NewDisplay()
	if err != nil {
		return nil, err
	}

	interval := max(1, int(o.report.Seconds()*float64(o.sampleRate)))
	r := &reportingRenderer{
		sequencedRenderer: sequencedRenderer{proc: proc, seq: seq},
		display:           display,
		interval:          interval,
	}

	format, err := audioout.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	stream, err := audioout.NewStream(r, o.channels, o.blockSize, format)
	if err != nil {
		return nil, err
	}

	frames := int64(o.render.Seconds() * float64(o.sampleRate))
	if _, err := io.CopyN(out, stream, frames*int64(stream.FrameSize())); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	logger.Debug("render finished",
		"frames", frames,
		"blocks", stream.Blocks(),
		"dropped_snapshots", proc.DroppedSnapshots())

	return r.rows, nil
}

func printReport(w io.Writer, rows []reportRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Time [s]\tVoices\tPeak [dBFS]\tRMS [dBFS]\tSpectral Peak [Hz]\tSnapshot\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "--------\t------\t-----------\t----------\t------------------\t--------\n"); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%.3f\t%d\t%.2f\t%.2f\t%.1f\t%t\n",
			row.seconds,
			row.voices,
			row.peakDB,
			row.rmsDB,
			row.spectralHz,
			row.snapshot,
		); err != nil {
			return err
		}
	}

	return tw.Flush()
}
