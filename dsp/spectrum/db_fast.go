//go:build fastmath

package spectrum

import (
	"math"

	"github.com/meko-christian/algo-approx"
)

const dbPerNeper = 20 / math.Ln10

// gainToDB returns 20*log10(mag) using a fast logarithm; zero maps to -Inf.
func gainToDB(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}

	return approx.FastLog(mag) * dbPerNeper
}
