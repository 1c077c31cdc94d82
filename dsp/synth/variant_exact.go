//go:build !fastmath

package synth

import "github.com/cwbudde/algo-scopesynth/dsp/filter/moog"

const filterVariant = moog.VariantHuovilainen
