package dither

import "fmt"

// DitherType selects the probability distribution used for dither noise.
type DitherType int

const (
	// DitherNone applies no dither.
	DitherNone DitherType = iota
	// DitherRectangular uses a uniform PDF one LSB wide.
	DitherRectangular
	// DitherTriangular uses a triangular PDF (TPDF), two LSB wide.
	DitherTriangular
	// DitherGaussian uses a Gaussian PDF.
	DitherGaussian

	ditherTypeCount
)

var ditherTypeNames = [ditherTypeCount]string{
	"None", "Rectangular", "Triangular", "Gaussian",
}

// String returns the name of the dither type.
func (dt DitherType) String() string {
	if dt.Valid() {
		return ditherTypeNames[dt]
	}
	return fmt.Sprintf("DitherType(%d)", dt)
}

// Valid reports whether dt is a known dither type.
func (dt DitherType) Valid() bool {
	return dt >= 0 && dt < ditherTypeCount
}
