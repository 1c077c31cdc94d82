package window

import (
	"errors"
	"fmt"
)

var errMismatchedLength = errors.New("samples must be at least as long as coefficients")

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}
	return nil
}
