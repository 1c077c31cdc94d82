//go:build fastmath

package synth

import "github.com/cwbudde/algo-scopesynth/dsp/filter/moog"

// The rational tanh keeps the ladder cheap when voices stack up.
const filterVariant = moog.VariantLightweight
