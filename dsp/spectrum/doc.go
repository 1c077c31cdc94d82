// Package spectrum turns fixed-size sample snapshots into normalised
// magnitude spectra for display.
//
// FFTs are delegated to algo-fft; vector kernels come from algo-vecmath.
// Nothing in this package is meant to run on the audio thread.
package spectrum
