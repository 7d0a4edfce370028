package blur

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Operator applies a fixed Gaussian blur A and its adjoint A^T to images of
// one shape.
type Operator struct {
	rows, cols int
	kernel     *Kernel

	// Kernel spectrum and |H|^2; shared with the cache, never mutated.
	response []complex128
	power    []float64

	plan *plan2D
	buf  []complex128
}

type operatorConfig struct {
	noCache bool
}

// Option configures NewOperator.
type Option func(*operatorConfig)

// WithoutCache computes the frequency response even if a memoized one exists
// and does not store the result.
func WithoutCache() Option {
	return func(cfg *operatorConfig) {
		cfg.noCache = true
	}
}

// NewOperator creates the blur operator for rows x cols images with a
// Gaussian kernel of the given diameter and sigma.
//
// It returns ErrInvalidKernelSize if diameter exceeds either image dimension.
func NewOperator(rows, cols, diameter int, sigma float64, opts ...Option) (*Operator, error) {
	var cfg operatorConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", core.ErrEmptyImage, rows, cols)
	}

	if err := validateKernel(diameter, sigma); err != nil {
		return nil, err
	}

	if err := validateKernelSize(rows, cols, diameter); err != nil {
		return nil, err
	}

	plan, err := newPlan2D(rows, cols)
	if err != nil {
		return nil, err
	}

	key := responseKey{rows: rows, cols: cols, diameter: diameter, sigma: sigma}

	var (
		resp *cachedResponse
		ok   bool
	)

	if !cfg.noCache {
		resp, ok = lookupResponse(key)
	}

	if !ok {
		resp, err = computeResponse(plan, rows, cols, diameter, sigma)
		if err != nil {
			return nil, err
		}

		if !cfg.noCache {
			storeResponse(key, resp)
		}
	}

	return &Operator{
		rows:     rows,
		cols:     cols,
		kernel:   resp.kernel,
		response: resp.response,
		power:    resp.power,
		plan:     plan,
		buf:      make([]complex128, rows*cols),
	}, nil
}

// computeResponse zero-pads the kernel into the top-left corner of a
// rows x cols field and transforms it.
func computeResponse(plan *plan2D, rows, cols, diameter int, sigma float64) (*cachedResponse, error) {
	kernel, err := NewKernel(diameter, sigma)
	if err != nil {
		return nil, err
	}

	response := make([]complex128, rows*cols)
	for r := 0; r < diameter; r++ {
		for c := 0; c < diameter; c++ {
			response[r*cols+c] = complex(kernel.At(r, c), 0)
		}
	}

	if err := plan.forward(response); err != nil {
		return nil, fmt.Errorf("blur: failed to compute kernel FFT: %w", err)
	}

	re := make([]float64, len(response))
	im := make([]float64, len(response))
	for i, h := range response {
		re[i], im[i] = real(h), imag(h)
	}

	power := make([]float64, len(response))
	vecmath.Power(power, re, im)

	return &cachedResponse{kernel: kernel, response: response, power: power}, nil
}

// Rows returns the image height the operator accepts.
func (o *Operator) Rows() int { return o.rows }

// Cols returns the image width the operator accepts.
func (o *Operator) Cols() int { return o.cols }

// Kernel returns the spatial kernel.
func (o *Operator) Kernel() *Kernel { return o.kernel }

// Response returns a copy of the kernel's 2D frequency response, row-major.
func (o *Operator) Response() []complex128 {
	out := make([]complex128, len(o.response))
	copy(out, o.response)
	return out
}

// Norm returns the spectral norm ‖A‖₂ = max|H|. It is 1 for any
// normalized non-negative kernel since the DC gain is the kernel sum.
func (o *Operator) Norm() float64 {
	return math.Sqrt(floats.Max(o.power))
}

// Condition returns max|H| / min|H|. It is +Inf when the response has an
// exact zero, meaning A is singular.
func (o *Operator) Condition() float64 {
	lo := floats.Min(o.power)
	if lo == 0 {
		return math.Inf(1)
	}

	return math.Sqrt(floats.Max(o.power) / lo)
}

// Forward returns A x.
func (o *Operator) Forward(x *core.Image) (*core.Image, error) {
	if err := o.checkShape(x); err != nil {
		return nil, err
	}

	dst := x.ZerosLike()
	return dst, o.apply(dst, x, false)
}

// ForwardTo writes A x into dst. dst may alias x.
func (o *Operator) ForwardTo(dst, x *core.Image) error {
	if err := o.checkShape(x, dst); err != nil {
		return err
	}

	return o.apply(dst, x, false)
}

// Adjoint returns A^T y.
func (o *Operator) Adjoint(y *core.Image) (*core.Image, error) {
	if err := o.checkShape(y); err != nil {
		return nil, err
	}

	dst := y.ZerosLike()
	return dst, o.apply(dst, y, true)
}

// AdjointTo writes A^T y into dst. dst may alias y.
func (o *Operator) AdjointTo(dst, y *core.Image) error {
	if err := o.checkShape(y, dst); err != nil {
		return err
	}

	return o.apply(dst, y, true)
}

func (o *Operator) checkShape(images ...*core.Image) error {
	for _, im := range images {
		if im == nil || im.Rows != o.rows || im.Cols != o.cols || len(im.Pix) != o.rows*o.cols {
			if im == nil {
				return fmt.Errorf("%w: operator expects %dx%d, got nil", core.ErrShapeMismatch, o.rows, o.cols)
			}

			return fmt.Errorf("%w: operator expects %dx%d, got %dx%d",
				core.ErrShapeMismatch, o.rows, o.cols, im.Rows, im.Cols)
		}
	}

	return nil
}

func (o *Operator) apply(dst, src *core.Image, adjoint bool) error {
	core.RealToComplex(o.buf, src.Pix)

	if err := o.plan.forward(o.buf); err != nil {
		return fmt.Errorf("blur: forward FFT failed: %w", err)
	}

	if adjoint {
		for i, h := range o.response {
			o.buf[i] *= cmplx.Conj(h)
		}
	} else {
		for i, h := range o.response {
			o.buf[i] *= h
		}
	}

	if err := o.plan.inverse(o.buf); err != nil {
		return fmt.Errorf("blur: inverse FFT failed: %w", err)
	}

	core.RealPart(dst.Pix, o.buf)

	if !core.AllFinite(dst.Pix) {
		return ErrNumericalInstability
	}

	return nil
}

// Apply blurs x with a Gaussian kernel of the given diameter and sigma.
// It is a convenience wrapper that builds a temporary Operator.
func Apply(x *core.Image, diameter int, sigma float64) (*core.Image, error) {
	if x == nil {
		return nil, core.ErrEmptyImage
	}

	op, err := NewOperator(x.Rows, x.Cols, diameter, sigma)
	if err != nil {
		return nil, err
	}

	return op.Forward(x)
}

// ApplyAdjoint applies the transpose of the blur described by diameter and
// sigma. It is a convenience wrapper that builds a temporary Operator.
func ApplyAdjoint(y *core.Image, diameter int, sigma float64) (*core.Image, error) {
	if y == nil {
		return nil, core.ErrEmptyImage
	}

	op, err := NewOperator(y.Rows, y.Cols, diameter, sigma)
	if err != nil {
		return nil, err
	}

	return op.Adjoint(y)
}
