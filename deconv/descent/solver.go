package descent

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/deconv/linesearch"
	"github.com/cwbudde/algo-deblur/dsp/buffer"
	"github.com/cwbudde/algo-deblur/dsp/core"
	"github.com/cwbudde/algo-deblur/stats/trace"
)

// Solver errors.
var (
	ErrInvalidConfig        = errors.New("descent: invalid configuration")
	ErrGroundTruthRequired  = errors.New("descent: truncated policy requires ground truth")
	ErrNonConvergence       = errors.New("descent: maximum iterations reached before tolerance")
	ErrNumericalInstability = errors.New("descent: non-finite objective, gradient or iterate")
)

// Objective is a differentiable function of the image x for observation b.
// *objective.Objective satisfies it.
type Objective interface {
	Value(x, b *core.Image) (float64, error)
	Gradient(x, b *core.Image) (*core.Image, error)
}

// Status is the solver state.
type Status int

const (
	Running Status = iota
	Converged
	MaxIterReached
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max-iterations"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of a solver run.
type Result struct {
	// X is the returned iterate: the final one for Naive, the best-seen one
	// for Truncated.
	X *core.Image
	// Final is the last iterate regardless of policy.
	Final *core.Image

	Status     Status
	Iterations int

	// BestIndex is the trace index of X under Truncated, -1 if X is x0.
	// It equals Iterations-1 (or -1) under Naive.
	BestIndex int

	// Trace[k] is ‖x_true - x_{k+1}‖. Empty without ground truth.
	Trace []float64
	// Values[0] is f(x0); Values[k] is f after k updates.
	Values []float64

	GradientNorm float64 // ‖∇f‖ at Final
	Evaluations  int     // objective evaluations spent in line searches
}

// Err returns ErrNonConvergence if the run stopped on the iteration cap.
func (r Result) Err() error {
	if r.Status == MaxIterReached {
		return fmt.Errorf("%w: ‖∇f‖ = %g after %d iterations", ErrNonConvergence, r.GradientNorm, r.Iterations)
	}

	return nil
}

// Solver runs gradient descent with a fixed configuration.
type Solver struct {
	cfg     Config
	log     logrus.FieldLogger
	scratch *buffer.Pool
}

// New validates the options and returns a Solver.
func New(opts ...Option) (*Solver, error) {
	cfg := ApplyOptions(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Solver{cfg: cfg, log: cfg.logger(), scratch: buffer.NewPool()}, nil
}

// Config returns the solver settings.
func (s *Solver) Config() Config { return s.cfg }

// Solve is New(opts...) followed by Solver.Solve.
func Solve(f Objective, x0, b *core.Image, opts ...Option) (Result, error) {
	s, err := New(opts...)
	if err != nil {
		return Result{}, err
	}

	return s.Solve(f, x0, b)
}

// Solve minimizes f starting from x0. x0 and b are not modified.
//
// On a line search or numerical failure the returned Result still holds the
// last good iterate and the trace up to that point.
func (s *Solver) Solve(f Objective, x0, b *core.Image) (Result, error) {
	truth := s.cfg.GroundTruth
	if err := core.CheckShape(x0, b); err != nil {
		return Result{}, err
	}

	if truth != nil {
		if err := core.CheckShape(x0, truth); err != nil {
			return Result{}, fmt.Errorf("ground truth: %w", err)
		}
	}

	x := x0.Clone()
	res := Result{X: x, Final: x, Status: Running, BestIndex: -1}

	fx, err := f.Value(x, b)
	if err != nil {
		return res, err
	}

	if !core.IsFinite(fx) {
		return res, fmt.Errorf("%w: f(x0) = %g", ErrNumericalInstability, fx)
	}

	res.Values = append(res.Values, fx)

	best := x
	errs := trace.NewTracker()

	for {
		g, err := f.Gradient(x, b)
		if err != nil {
			return s.finish(res, best), fmt.Errorf("descent: gradient at iteration %d: %w", res.Iterations, err)
		}

		gnorm := floats.Norm(g.Pix, 2)
		res.GradientNorm = gnorm
		if !core.IsFinite(gnorm) {
			return s.finish(res, best), fmt.Errorf("%w: ‖∇f‖ = %g at iteration %d", ErrNumericalInstability, gnorm, res.Iterations)
		}

		if gnorm <= s.cfg.Tolerance {
			res.Status = Converged
			break
		}

		if res.Iterations >= s.cfg.MaxIterations {
			res.Status = MaxIterReached
			break
		}

		trial := s.scratch.Get(x.Rows, x.Cols)
		step, err := linesearch.BacktrackingTo(trial, f, x, b, g, fx, s.cfg.LineSearch)
		if err != nil {
			s.scratch.Put(trial)
			return s.finish(res, best), fmt.Errorf("descent: iteration %d: %w", res.Iterations, err)
		}

		res.Evaluations += step.Evaluations

		if !core.IsFinite(step.Value) || !core.AllFinite(step.X.Pix) {
			return s.finish(res, best), fmt.Errorf("%w: iteration %d", ErrNumericalInstability, res.Iterations)
		}

		prev := x
		x, fx = step.X, step.Value
		res.Final = x
		res.Iterations++
		res.Values = append(res.Values, fx)

		entry := s.log.WithFields(logrus.Fields{
			"iter":      res.Iterations,
			"step":      step.Alpha,
			"grad_norm": gnorm,
			"value":     fx,
		})

		if truth != nil {
			e := floats.Distance(truth.Pix, x.Pix, 2)
			res.Trace = append(res.Trace, e)
			entry = entry.WithField("error", e)

			if errs.Add(e) {
				if best != prev {
					s.scratch.Put(best)
				}
				best = x
				res.BestIndex = len(res.Trace) - 1
			}
		}

		// Iterates other than the current and the best one are unreachable.
		if prev != best {
			s.scratch.Put(prev)
		}

		entry.Debug("descent step")
	}

	res = s.finish(res, best)

	s.log.WithFields(logrus.Fields{
		"status":     res.Status,
		"iterations": res.Iterations,
		"best_index": res.BestIndex,
		"policy":     s.cfg.Policy,
	}).Info("descent finished")

	return res, nil
}

// finish selects the returned iterate according to the policy.
func (s *Solver) finish(res Result, best *core.Image) Result {
	if s.cfg.Policy == Truncated {
		res.X = best
		return res
	}

	res.X = res.Final
	res.BestIndex = res.Iterations - 1

	return res
}
