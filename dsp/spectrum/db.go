//go:build !fastmath

package spectrum

import "math"

// gainToDB returns 20*log10(mag); zero maps to -Inf.
func gainToDB(mag float64) float64 {
	return 20 * math.Log10(mag)
}
