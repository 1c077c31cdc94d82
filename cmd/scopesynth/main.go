// Command scopesynth is a four-voice dual-oscillator synthesizer with a
// triggered oscilloscope and spectrum display.
//
// Usage:
//
//	scopesynth [flags]
//
// On a terminal it opens the keyboard UI and plays through the default audio
// device. MIDI arrives from an OS MIDI port, a serial MIDI bridge, or both.
// Without a terminal, or with -headless, it runs until interrupted and logs
// statistics. With -render it renders the demo pattern offline instead.
//
// Examples:
//
//	scopesynth
//	scopesynth -midi keystation
//	scopesynth -serial /dev/ttyUSB0 -baud 31250 -headless
//	scopesynth -demo -headless
//	scopesynth -render 4s -out demo.f32
//	scopesynth -render 4s -format s16 -out demo.s16
//	scopesynth -list
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/algo-scopesynth/internal/audioout"
	"github.com/cwbudde/algo-scopesynth/internal/midiin"
)

// logger is the package-wide structured logger. Safe to use before
// initLogger is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// midiOff disables the OS MIDI port.
const midiOff = "off"

type options struct {
	debug      bool
	list       bool
	headless   bool
	demo       bool
	midiPort   string
	serialDev  string
	baud       int
	sampleRate int
	blockSize  int
	channels   int
	voices     int
	bendRange  float64
	tempo      float64
	latency    time.Duration
	render     time.Duration
	report     time.Duration
	out        string
	format     string
	logFile    string
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging (adds source location)")
	fs.BoolVar(&o.list, "list", false, "list MIDI and serial ports and exit")
	fs.BoolVar(&o.headless, "headless", false, "run without the terminal UI")
	fs.BoolVar(&o.demo, "demo", false, "play the built-in step pattern")
	fs.StringVar(&o.midiPort, "midi", "", `MIDI input port name (substring), empty for the first port, "off" to disable`)
	fs.StringVar(&o.serialDev, "serial", "", "serial MIDI device, e.g. /dev/ttyUSB0")
	fs.IntVar(&o.baud, "baud", midiin.DefaultBaudRate, "serial MIDI baud rate")
	fs.IntVar(&o.sampleRate, "rate", 48000, "sample rate in Hz")
	fs.IntVar(&o.blockSize, "block", 512, "processing block size in frames")
	fs.IntVar(&o.channels, "channels", 2, "output channels (1 or 2)")
	fs.IntVar(&o.voices, "voices", 4, "polyphony")
	fs.Float64Var(&o.bendRange, "bend", 2, "pitch wheel range in semitones")
	fs.Float64Var(&o.tempo, "tempo", 120, "demo pattern tempo in BPM")
	fs.DurationVar(&o.latency, "latency", 40*time.Millisecond, "audio device buffer")
	fs.DurationVar(&o.render, "render", 0, "render the demo pattern offline for this long and print a report")
	fs.DurationVar(&o.report, "report", 250*time.Millisecond, "report row interval for -render")
	fs.StringVar(&o.format, "format", "f32", "device and -out sample format: f32 or s16 (dithered)")
	fs.StringVar(&o.logFile, "log", "", "log file used while the terminal UI runs (default: discard)")
	fs.StringVar(&o.out, "out", "", "with -render, write interleaved float32LE samples to this file")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.render < 0 {
		return options{}, fmt.Errorf("render duration must be >= 0: %v", o.render)
	}
	if o.render > 0 && o.report <= 0 {
		return options{}, fmt.Errorf("report interval must be > 0: %v", o.report)
	}
	if _, err := audioout.ParseFormat(o.format); err != nil {
		return options{}, err
	}
	if o.out != "" && o.render == 0 {
		return options{}, fmt.Errorf("-out requires -render")
	}

	return o, nil
}

func main() {
	fs := flag.NewFlagSet("scopesynth", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scopesynth [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Polyphonic synthesizer with oscilloscope and spectrum display.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scopesynth -midi keystation\n")
		fmt.Fprintf(os.Stderr, "  scopesynth -serial /dev/ttyUSB0 -baud 31250 -headless\n")
		fmt.Fprintf(os.Stderr, "  scopesynth -render 4s -out demo.f32\n")
	}

	o, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	initLogger(os.Stderr, o.debug)

	if err := run(o); err != nil {
		logger.Error("scopesynth stopped", "err", err)
		os.Exit(1)
	}
}
