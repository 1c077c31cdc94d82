// Package osc provides lookup-table oscillators for synthesis.
//
// A [Wavetable] is an immutable shape sampled once over the phase domain
// [-pi, pi] and read back with linear interpolation. An [Oscillator] runs a
// phase accumulator over a table with a linearly smoothed frequency, and a
// [Unit] pairs an oscillator with a linear output level, the building block
// that synth voices stack into unison pairs.
//
// Process methods never allocate and run in bounded time.
package osc
