package linesearch

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/dsp/blur"
	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Line search errors.
var (
	ErrDivergence    = errors.New("linesearch: no step satisfies the sufficient decrease condition")
	ErrInvalidParams = errors.New("linesearch: invalid parameters")
)

// Function is the objective being minimized along -grad.
// *objective.Objective satisfies it.
type Function interface {
	Value(x, b *core.Image) (float64, error)
}

// Params configures Backtracking.
type Params struct {
	InitialStep float64 // α₀
	Shrink      float64 // ρ, in (0, 1)
	C1          float64 // sufficient decrease constant, in (0, 1)
	MaxHalvings int     // shrinks allowed after the first trial
}

// DefaultParams returns α₀ = 1.1, ρ = 0.5, c1 = 0.25 and 100 shrinks.
func DefaultParams() Params {
	return Params{
		InitialStep: 1.1,
		Shrink:      0.5,
		C1:          0.25,
		MaxHalvings: 100,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	switch {
	case !(p.InitialStep > 0) || math.IsInf(p.InitialStep, 1):
		return fmt.Errorf("%w: initial step %g", ErrInvalidParams, p.InitialStep)
	case !(p.Shrink > 0 && p.Shrink < 1):
		return fmt.Errorf("%w: shrink %g", ErrInvalidParams, p.Shrink)
	case !(p.C1 > 0 && p.C1 < 1):
		return fmt.Errorf("%w: c1 %g", ErrInvalidParams, p.C1)
	case p.MaxHalvings < 0:
		return fmt.Errorf("%w: max halvings %d", ErrInvalidParams, p.MaxHalvings)
	}

	return nil
}

// Result describes an accepted step.
type Result struct {
	Alpha       float64     // accepted step length
	X           *core.Image // x - Alpha·grad
	Value       float64     // f(X)
	Evaluations int         // objective evaluations, excluding f(x)
}

// Step returns the step length for x along -grad.
func Step(f Function, x, b, grad *core.Image, p Params) (float64, error) {
	fx, err := f.Value(x, b)
	if err != nil {
		return 0, err
	}

	res, err := Backtracking(f, x, b, grad, fx, p)
	if err != nil {
		return 0, err
	}

	return res.Alpha, nil
}

// Backtracking searches a step along -grad given fx = f(x) and returns the
// accepted point together with its objective value.
func Backtracking(f Function, x, b, grad *core.Image, fx float64, p Params) (Result, error) {
	if x == nil {
		return Result{}, core.CheckShape(x)
	}

	return BacktrackingTo(x.ZerosLike(), f, x, b, grad, fx, p)
}

// BacktrackingTo is Backtracking with trial points written to dst, which
// becomes Result.X on success. dst must not alias x or grad.
func BacktrackingTo(dst *core.Image, f Function, x, b, grad *core.Image, fx float64, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	if err := core.CheckShape(x, b, grad, dst); err != nil {
		return Result{}, err
	}

	if !core.IsFinite(fx) {
		return Result{}, fmt.Errorf("%w: f(x) = %g", ErrDivergence, fx)
	}

	gg := floats.Dot(grad.Pix, grad.Pix)
	trial := dst
	alpha := p.InitialStep

	for n := 0; n <= p.MaxHalvings; n++ {
		floats.AddScaledTo(trial.Pix, x.Pix, -alpha, grad.Pix)

		ft, err := f.Value(trial, b)
		switch {
		case errors.Is(err, blur.ErrNumericalInstability):
			// Overflow at this step rejects the trial.
			ft = math.NaN()
		case err != nil:
			return Result{}, err
		}

		// NaN fails the comparison and keeps shrinking.
		if ft <= fx-p.C1*alpha*gg {
			return Result{Alpha: alpha, X: trial, Value: ft, Evaluations: n + 1}, nil
		}

		alpha *= p.Shrink
	}

	return Result{}, fmt.Errorf("%w: %d shrinks from α₀ = %g", ErrDivergence, p.MaxHalvings, p.InitialStep)
}
