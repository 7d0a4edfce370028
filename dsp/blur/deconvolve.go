package blur

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Deconvolution errors.
var (
	ErrDivisionByZero  = errors.New("blur: division by zero in deconvolution")
	ErrInvalidEpsilon  = errors.New("blur: epsilon must be positive and finite")
	ErrInvalidNoiseVar = errors.New("blur: noise variance must be >= 0")
	ErrUnknownMethod   = errors.New("blur: unknown deconvolution method")
)

// minResponse is the smallest |H| the inverse filter divides by.
const minResponse = 1e-15

// DeconvMethod specifies the direct deconvolution method.
type DeconvMethod int

const (
	// DeconvNaive divides by the kernel spectrum. It fails on kernels with
	// spectral zeros and amplifies noise without bound.
	DeconvNaive DeconvMethod = iota

	// DeconvRegularized computes Y·conj(H) / (|H|² + Epsilon), which is the
	// exact minimizer of ½‖Ax - y‖² + ½·Epsilon·‖x‖².
	DeconvRegularized

	// DeconvWiener is DeconvRegularized with Epsilon set to the
	// noise-to-signal variance ratio.
	DeconvWiener
)

func (m DeconvMethod) String() string {
	switch m {
	case DeconvNaive:
		return "naive"
	case DeconvRegularized:
		return "regularized"
	case DeconvWiener:
		return "wiener"
	default:
		return fmt.Sprintf("DeconvMethod(%d)", int(m))
	}
}

// DeconvOptions configures Operator.Deconvolve.
type DeconvOptions struct {
	Method DeconvMethod

	// Epsilon is the Tikhonov strength for DeconvRegularized.
	Epsilon float64

	// NoiseVariance is the per-pixel noise variance for DeconvWiener,
	// ‖η‖²/N when the noise norm is known. Zero assumes 1% of the signal
	// variance.
	NoiseVariance float64

	// SignalVariance for DeconvWiener. Zero estimates it from the input.
	SignalVariance float64
}

// DefaultDeconvOptions returns regularized deconvolution with Epsilon 1e-6.
func DefaultDeconvOptions() DeconvOptions {
	return DeconvOptions{
		Method:  DeconvRegularized,
		Epsilon: 1e-6,
	}
}

// Deconvolve recovers an estimate of x from y = A x (+ noise) by division
// in the frequency domain. The result is exact up to rounding for
// DeconvNaive on noise-free input and for DeconvRegularized relative to the
// Tikhonov objective.
func (o *Operator) Deconvolve(y *core.Image, opts DeconvOptions) (*core.Image, error) {
	if err := o.checkShape(y); err != nil {
		return nil, err
	}

	var reg float64

	switch opts.Method {
	case DeconvNaive:
	case DeconvRegularized:
		if !(opts.Epsilon > 0) || math.IsInf(opts.Epsilon, 1) {
			return nil, fmt.Errorf("%w: %g", ErrInvalidEpsilon, opts.Epsilon)
		}
		reg = opts.Epsilon
	case DeconvWiener:
		nsr, err := noiseToSignal(y, opts)
		if err != nil {
			return nil, err
		}
		reg = nsr
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, opts.Method)
	}

	core.RealToComplex(o.buf, y.Pix)

	if err := o.plan.forward(o.buf); err != nil {
		return nil, fmt.Errorf("blur: forward FFT failed: %w", err)
	}

	for i, h := range o.response {
		if opts.Method == DeconvNaive {
			if cmplx.Abs(h) < minResponse {
				return nil, fmt.Errorf("%w: at frequency bin (%d,%d)", ErrDivisionByZero, i/o.cols, i%o.cols)
			}
			o.buf[i] /= h
			continue
		}

		o.buf[i] *= cmplx.Conj(h) / complex(o.power[i]+reg, 0)
	}

	if err := o.plan.inverse(o.buf); err != nil {
		return nil, fmt.Errorf("blur: inverse FFT failed: %w", err)
	}

	out := y.ZerosLike()
	core.RealPart(out.Pix, o.buf)

	if !core.AllFinite(out.Pix) {
		return nil, ErrNumericalInstability
	}

	return out, nil
}

func noiseToSignal(y *core.Image, opts DeconvOptions) (float64, error) {
	noiseVar := opts.NoiseVariance
	if noiseVar < 0 || math.IsNaN(noiseVar) || math.IsInf(noiseVar, 1) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidNoiseVar, noiseVar)
	}

	signalVar := opts.SignalVariance
	if signalVar <= 0 {
		signalVar = stat.Variance(y.Pix, nil)
	}

	if noiseVar == 0 {
		noiseVar = signalVar * 0.01
	}

	nsr := noiseVar / signalVar
	if !(nsr > 0) || math.IsInf(nsr, 1) {
		nsr = 1e-6
	}

	return nsr, nil
}
