//go:build fastmath

package moog

import "github.com/meko-christian/algo-approx"

// expFn trades accuracy for speed on the cutoff modulation path.
func expFn(x float64) float64 {
	return approx.FastExp(x)
}
