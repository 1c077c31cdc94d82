package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"golang.org/x/term"

	"github.com/cwbudde/algo-scopesynth/dsp/core"
	"github.com/cwbudde/algo-scopesynth/instrument"
	"github.com/cwbudde/algo-scopesynth/internal/audioout"
	"github.com/cwbudde/algo-scopesynth/internal/midiin"
	"github.com/cwbudde/algo-scopesynth/internal/sequencer"
	"github.com/cwbudde/algo-scopesynth/internal/tui"
)

const statsInterval = 5 * time.Second

func run(o options) error {
	if o.list {
		return printPorts(os.Stdout)
	}

	interactive := o.render == 0 && !o.headless &&
		term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	// The UI owns the terminal, so log lines go to -log or nowhere.
	if interactive {
		closeLog, err := logToFile(o.logFile, o.debug)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	proc, err := newProcessor(o)
	if err != nil {
		return err
	}

	if o.render > 0 {
		return renderToFile(o, proc)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeMIDI, err := openMIDI(ctx, o, proc)
	if err != nil {
		return err
	}
	defer closeMIDI()

	var renderer audioout.Renderer = proc
	if o.demo {
		seq, err := sequencer.New(float64(o.sampleRate), sequencer.WithTempo(o.tempo))
		if err != nil {
			return err
		}
		renderer = &sequencedRenderer{proc: proc, seq: seq}
	}

	format, err := audioout.ParseFormat(o.format)
	if err != nil {
		return err
	}

	player, err := audioout.Open(renderer, audioout.Config{
		SampleRate: o.sampleRate,
		Channels:   o.channels,
		BlockSize:  o.blockSize,
		Format:     format,
		Latency:    o.latency,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer player.Close()

	if !interactive {
		return runHeadless(ctx, proc, player)
	}
	return runTUI(ctx, proc)
}

func newProcessor(o options) (*instrument.Processor, error) {
	proc, err := instrument.New(
		instrument.WithVoices(o.voices),
		instrument.WithPitchBendRange(o.bendRange),
		instrument.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	err = proc.Prepare(core.ApplyProcessorOptions(
		core.WithSampleRate(float64(o.sampleRate)),
		core.WithBlockSize(o.blockSize),
		core.WithChannels(o.channels),
	))
	if err != nil {
		return nil, err
	}

	return proc, nil
}

// openMIDI starts the configured inputs and returns a function closing them.
// A missing OS port is only fatal when one was asked for by name.
func openMIDI(ctx context.Context, o options, proc *instrument.Processor) (func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("closing MIDI input", "err", err)
			}
		}
	}

	post := func(msg midi.Message) {
		if !proc.Post(msg) {
			logger.Debug("MIDI inbox full, message dropped")
		}
	}

	if o.midiPort != midiOff {
		port, err := midiin.OpenPort(o.midiPort, post, logger)
		switch {
		case err == nil:
			closers = append(closers, port.Close)
		case o.midiPort == "":
			logger.Info("no MIDI input port, continuing without", "err", err)
		default:
			return nil, err
		}
	}

	if o.serialDev != "" {
		src, err := midiin.OpenSerial(o.serialDev, o.baud, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, src.Close)
		go func() {
			if err := src.Run(ctx, post); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("serial MIDI input failed", "device", o.serialDev, "err", err)
			}
		}()
	}

	return closeAll, nil
}

func runHeadless(ctx context.Context, proc *instrument.Processor, player *audioout.Player) error {
	display, err := proc.NewDisplay()
	if err != nil {
		return err
	}

	logger.Info("running headless, interrupt to stop")

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	sampleRate := proc.Config().SampleRate
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio output: %w", err)
			}
			frame := display.Tick()
			logger.Info("status",
				"playing", player.IsPlaying(),
				"snapshot", frame.Fresh,
				"spectral_peak_hz", math.Round(peakFrequency(frame.Spectrum, sampleRate)),
				"dropped_messages", proc.DroppedMessages(),
				"dropped_snapshots", proc.DroppedSnapshots(),
			)
		}
	}
}

func runTUI(ctx context.Context, proc *instrument.Processor) error {
	display, err := proc.NewDisplay()
	if err != nil {
		return err
	}

	logger.Info("starting terminal UI")

	return tui.Run(ctx, tui.NewModel(proc, display))
}

func logToFile(path string, debug bool) (func(), error) {
	if path == "" {
		logger = slog.New(slog.DiscardHandler)
		slog.SetDefault(logger)
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	initLogger(f, debug)

	return func() { _ = f.Close() }, nil
}

func printPorts(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Kind\tName\n----\t----\n"); err != nil {
		return err
	}

	ports, err := midiin.ListPorts()
	if err != nil {
		logger.Warn("listing MIDI ports", "err", err)
	}
	for _, p := range ports {
		if _, err := fmt.Fprintf(tw, "midi\t%s\n", p); err != nil {
			return err
		}
	}

	serials, err := midiin.SerialPorts()
	if err != nil {
		logger.Warn("listing serial ports", "err", err)
	}
	for _, p := range serials {
		if _, err := fmt.Fprintf(tw, "serial\t%s\n", p); err != nil {
			return err
		}
	}

	return tw.Flush()
}
