// Package synth implements the polyphonic voice layer of the instrument.
//
// A Pool owns a fixed set of Voice implementations and routes note events
// to them. DualVoice is the instrument's voice: two detuned wavetable
// oscillators into a resonant ladder low-pass whose cutoff is swept by a
// slow LFO, followed by a fixed master gain.
//
// Nothing in this package is safe for concurrent use. Prepare allocates;
// every other method is meant to run on the audio thread and does not.
package synth
