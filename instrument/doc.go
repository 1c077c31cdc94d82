// Package instrument is the polyphonic scope synthesizer as a block
// processor.
//
// A Processor owns a synth.Pool of DualVoices, a trigger Collector that taps
// the first output channel, and the SnapshotQueue that carries waveform
// snapshots to a scope.Display. MIDI arrives through Post from any
// goroutine and is applied at the start of the next block.
//
// Typical wiring:
//
//	p, _ := instrument.New()
//	_ = p.Prepare(core.ApplyProcessorOptions(core.WithSampleRate(48000)))
//	display, _ := p.NewDisplay()
//
//	// MIDI goroutine
//	p.Post(midi.NoteOn(0, 60, 100))
//
//	// audio goroutine
//	p.ProcessBlock(out)
//
//	// display goroutine
//	frame := display.Tick()
package instrument
