package discrepancy

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-deblur/deconv/descent"
	"github.com/cwbudde/algo-deblur/deconv/objective"
	"github.com/cwbudde/algo-deblur/dsp/core"
	"github.com/cwbudde/algo-deblur/stats/trace"
)

// Selector errors.
var (
	ErrNonConvergence = errors.New("discrepancy: no bracketing strength within the step limit")
	ErrInvalidConfig  = errors.New("discrepancy: invalid configuration")
)

// Selection is the outcome of a discrepancy search.
type Selection struct {
	// Lambda is the selected strength and Residual = ‖A x_λ - b‖² ≤ NoiseEnergy.
	Lambda   float64
	Residual float64
	X        *core.Image

	// NextLambda is the neighbouring grid strength (Lambda·Ratio up to
	// rounding) whose residual NextResidual exceeds NoiseEnergy.
	NextLambda   float64
	NextResidual float64

	NoiseEnergy float64 // ‖η‖²
	Steps       int     // solver runs, not counting truncation re-runs
}

// Selector searches the regularization strength for a fixed operator and
// noise level.
type Selector struct {
	op    objective.Operator
	noise float64
	cfg   Config
	log   logrus.FieldLogger
}

// New returns a Selector for the operator and the realized noise norm ‖η‖.
func New(op objective.Operator, noiseNorm float64, opts ...Option) (*Selector, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	switch {
	case op == nil:
		return nil, fmt.Errorf("%w: nil operator", ErrInvalidConfig)
	case !(noiseNorm >= 0) || math.IsInf(noiseNorm, 1):
		return nil, fmt.Errorf("%w: noise norm %g", ErrInvalidConfig, noiseNorm)
	case !(cfg.InitialStrength > 0) || math.IsInf(cfg.InitialStrength, 1):
		return nil, fmt.Errorf("%w: initial strength %g", ErrInvalidConfig, cfg.InitialStrength)
	case !(cfg.Ratio > 1) || math.IsInf(cfg.Ratio, 1):
		return nil, fmt.Errorf("%w: ratio %g", ErrInvalidConfig, cfg.Ratio)
	case cfg.MaxSteps < 1:
		return nil, fmt.Errorf("%w: max steps %d", ErrInvalidConfig, cfg.MaxSteps)
	case cfg.ElasticNet && (!(cfg.Mu >= 0) || math.IsInf(cfg.Mu, 1)):
		return nil, fmt.Errorf("%w: mu %g", ErrInvalidConfig, cfg.Mu)
	}

	if cfg.Truncate && descent.ApplyOptions(cfg.SolverOptions...).GroundTruth == nil {
		return nil, fmt.Errorf("%w: semiconvergence truncation", descent.ErrGroundTruthRequired)
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}

	return &Selector{op: op, noise: noiseNorm, cfg: cfg, log: log}, nil
}

// NoiseEnergy returns ‖η‖².
func (s *Selector) NoiseEnergy() float64 { return s.noise * s.noise }

// trial is one solved strength.
type trial struct {
	lambda   float64
	residual float64
	x        *core.Image
}

// Select searches λ for observation b, running the inner solver for at most
// maxIterations updates per trial.
func (s *Selector) Select(b *core.Image, maxIterations int) (Selection, error) {
	if maxIterations < 0 {
		return Selection{}, fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, maxIterations)
	}

	x0 := b
	if s.cfg.InitialGuess != nil {
		x0 = s.cfg.InitialGuess
	}

	if err := core.CheckShape(b, x0); err != nil {
		return Selection{}, err
	}

	noise := s.NoiseEnergy()

	cur, err := s.solve(x0, b, s.cfg.InitialStrength, maxIterations)
	if err != nil {
		return Selection{}, err
	}

	steps := 1
	upward := cur.residual <= noise

	for steps < s.cfg.MaxSteps {
		lambda := cur.lambda * s.cfg.Ratio
		if !upward {
			lambda = cur.lambda / s.cfg.Ratio
		}

		next, err := s.solve(x0, b, lambda, maxIterations)
		if err != nil {
			return Selection{}, err
		}

		steps++

		switch {
		case upward && next.residual > noise:
			return s.selected(cur, next, steps), nil
		case !upward && next.residual <= noise:
			return s.selected(next, cur, steps), nil
		}

		cur = next
	}

	return Selection{}, fmt.Errorf("%w: %d steps, last λ = %g with residual %g against %g",
		ErrNonConvergence, steps, cur.lambda, cur.residual, noise)
}

func (s *Selector) selected(fit, over trial, steps int) Selection {
	sel := Selection{
		Lambda:       fit.lambda,
		Residual:     fit.residual,
		X:            fit.x,
		NextLambda:   over.lambda,
		NextResidual: over.residual,
		NoiseEnergy:  s.NoiseEnergy(),
		Steps:        steps,
	}

	s.log.WithFields(logrus.Fields{
		"lambda":   sel.Lambda,
		"residual": sel.Residual,
		"noise":    sel.NoiseEnergy,
		"steps":    sel.Steps,
	}).Info("discrepancy strength selected")

	return sel
}

func (s *Selector) family(lambda float64) (*objective.Objective, error) {
	if s.cfg.ElasticNet {
		return objective.ElasticNet(s.op, lambda, s.cfg.Mu)
	}

	return objective.Tikhonov(s.op, lambda)
}

func (s *Selector) solve(x0, b *core.Image, lambda float64, maxIterations int) (trial, error) {
	f, err := s.family(lambda)
	if err != nil {
		return trial{}, err
	}

	opts := append(append([]descent.Option(nil), s.cfg.SolverOptions...), descent.WithMaxIterations(maxIterations))

	res, err := descent.Solve(f, x0, b, opts...)
	if err != nil {
		return trial{}, fmt.Errorf("discrepancy: λ = %g: %w", lambda, err)
	}

	x := res.X

	if s.cfg.Truncate {
		if pos := trace.MinPos(res.Trace); pos >= 0 && pos+1 < res.Iterations {
			short, err := descent.Solve(f, x0, b, append(opts,
				descent.WithMaxIterations(pos+1),
				descent.WithPolicy(descent.Naive))...)
			if err != nil {
				return trial{}, fmt.Errorf("discrepancy: λ = %g truncated at %d: %w", lambda, pos+1, err)
			}

			x = short.X
		}
	}

	residual, err := f.ResidualNorm2(x, b)
	if err != nil {
		return trial{}, err
	}

	s.log.WithFields(logrus.Fields{
		"lambda":   lambda,
		"residual": residual,
		"noise":    s.NoiseEnergy(),
		"status":   res.Status,
	}).Debug("discrepancy trial")

	return trial{lambda: lambda, residual: residual, x: x}, nil
}
