package blur

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// transform1D is an in-place 1D DFT whose inverse is normalized by 1/n.
type transform1D interface {
	forward(data []complex128) error
	inverse(data []complex128) error
}

// planTransform runs on an algo-fft plan.
type planTransform struct {
	plan *algofft.Plan[complex128]
}

func (t planTransform) forward(data []complex128) error { return t.plan.Forward(data, data) }
func (t planTransform) inverse(data []complex128) error { return t.plan.Inverse(data, data) }

// gonumTransform covers lengths the algo-fft planner rejects.
type gonumTransform struct {
	fft   *fourier.CmplxFFT
	scale complex128
}

func (t gonumTransform) forward(data []complex128) error {
	t.fft.Coefficients(data, data)
	return nil
}

func (t gonumTransform) inverse(data []complex128) error {
	t.fft.Sequence(data, data)
	for i := range data {
		data[i] *= t.scale
	}

	return nil
}

// identityTransform is the DFT of length 1.
type identityTransform struct{}

func (identityTransform) forward([]complex128) error { return nil }
func (identityTransform) inverse([]complex128) error { return nil }

func newTransform1D(n int) transform1D {
	if n == 1 {
		return identityTransform{}
	}

	plan, err := algofft.NewPlan64(n)
	if err == nil {
		return planTransform{plan: plan}
	}

	return newGonumTransform(n)
}

func newGonumTransform(n int) gonumTransform {
	return gonumTransform{fft: fourier.NewCmplxFFT(n), scale: complex(1/float64(n), 0)}
}

// plan2D computes 2D DFTs of row-major rows x cols data by row-column
// decomposition.
type plan2D struct {
	rows, cols int
	rowFFT     transform1D
	colFFT     transform1D
	column     []complex128
}

func newPlan2D(rows, cols int) (*plan2D, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("blur: invalid transform size %dx%d", rows, cols)
	}

	p := &plan2D{
		rows:   rows,
		cols:   cols,
		rowFFT: newTransform1D(cols),
		column: make([]complex128, rows),
	}

	if rows == cols {
		p.colFFT = p.rowFFT
	} else {
		p.colFFT = newTransform1D(rows)
	}

	return p, nil
}

// forward replaces data with its 2D DFT.
func (p *plan2D) forward(data []complex128) error {
	return p.run(data, transform1D.forward)
}

// inverse replaces data with its normalized inverse 2D DFT.
func (p *plan2D) inverse(data []complex128) error {
	return p.run(data, transform1D.inverse)
}

func (p *plan2D) run(data []complex128, step func(transform1D, []complex128) error) error {
	if len(data) != p.rows*p.cols {
		return fmt.Errorf("blur: transform buffer has %d values, want %d", len(data), p.rows*p.cols)
	}

	for r := 0; r < p.rows; r++ {
		if err := step(p.rowFFT, data[r*p.cols:(r+1)*p.cols]); err != nil {
			return fmt.Errorf("blur: row %d FFT failed: %w", r, err)
		}
	}

	for c := 0; c < p.cols; c++ {
		for r := 0; r < p.rows; r++ {
			p.column[r] = data[r*p.cols+c]
		}

		if err := step(p.colFFT, p.column); err != nil {
			return fmt.Errorf("blur: column %d FFT failed: %w", c, err)
		}

		for r := 0; r < p.rows; r++ {
			data[r*p.cols+c] = p.column[r]
		}
	}

	return nil
}
