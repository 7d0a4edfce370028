package blur

import (
	"errors"
	"fmt"
)

// Blur errors.
var (
	ErrInvalidDiameter      = errors.New("blur: kernel diameter must be >= 1")
	ErrInvalidSigma         = errors.New("blur: kernel sigma must be positive and finite")
	ErrInvalidKernelSize    = errors.New("blur: kernel diameter exceeds image dimensions")
	ErrNumericalInstability = errors.New("blur: non-finite values in transform output")
)

func validateKernel(diameter int, sigma float64) error {
	if diameter < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDiameter, diameter)
	}

	if !(sigma > 0) || sigma > maxSigma {
		return fmt.Errorf("%w: %g", ErrInvalidSigma, sigma)
	}

	return nil
}

func validateKernelSize(rows, cols, diameter int) error {
	if diameter > rows || diameter > cols {
		return fmt.Errorf("%w: diameter %d, image %dx%d", ErrInvalidKernelSize, diameter, rows, cols)
	}

	return nil
}
