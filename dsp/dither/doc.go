// Package dither reduces float samples to integer PCM with dither noise and
// optional error-feedback noise shaping.
package dither
