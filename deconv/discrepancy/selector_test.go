package discrepancy_test

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/deconv/descent"
	"github.com/cwbudde/algo-deblur/deconv/discrepancy"
	"github.com/cwbudde/algo-deblur/deconv/objective"
	"github.com/cwbudde/algo-deblur/dsp/blur"
	"github.com/cwbudde/algo-deblur/dsp/core"
	"github.com/cwbudde/algo-deblur/internal/testutil"
	"github.com/cwbudde/algo-deblur/stats/trace"
)

const maxIterations = 50

type problem struct {
	op        *blur.Operator
	xTrue, b  *core.Image
	noiseNorm float64
}

// newProblem blurs a flat 8x8 image and adds a checkerboard of amplitude eps.
func newProblem(t *testing.T, eps float64) problem {
	t.Helper()

	op, err := blur.NewOperator(8, 8, 3, 1)
	require.NoError(t, err)

	xTrue := testutil.Constant(8, 8, 1)
	b, err := op.Forward(xTrue)
	require.NoError(t, err)

	eta := testutil.Checkerboard(8, 8, eps)
	floats.Add(b.Pix, eta.Pix)

	return problem{op: op, xTrue: xTrue, b: b, noiseNorm: floats.Norm(eta.Pix, 2)}
}

// residual re-solves independently of the selector.
func residual(t *testing.T, f *objective.Objective, b *core.Image, opts ...descent.Option) float64 {
	t.Helper()

	res, err := descent.Solve(f, b, b, append(opts, descent.WithMaxIterations(maxIterations))...)
	require.NoError(t, err)

	r, err := f.ResidualNorm2(res.X, b)
	require.NoError(t, err)

	return r
}

func requireBracket(t *testing.T, sel discrepancy.Selection) {
	t.Helper()

	require.LessOrEqual(t, sel.Residual, sel.NoiseEnergy)
	require.Greater(t, sel.NextResidual, sel.NoiseEnergy)
	require.InDelta(t, discrepancy.DefaultRatio, sel.NextLambda/sel.Lambda, 1e-12)
}

func TestSelectTikhonovBracket(t *testing.T) {
	tests := []struct {
		name   string
		eps    float64
		upward bool
	}{
		// At λ₀ the residual is about 3.0e-3 per pixel against 2.5e-3 of
		// noise, so the search has to move down.
		{"downward", 0.05, false},
		// Here λ₀ fits (9.3e-3 against 1e-2) and the search moves up.
		{"upward", 0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProblem(t, tt.eps)

			s, err := discrepancy.New(p.op, p.noiseNorm)
			require.NoError(t, err)
			require.InDelta(t, 64*tt.eps*tt.eps, s.NoiseEnergy(), 1e-12)

			sel, err := s.Select(p.b, maxIterations)
			require.NoError(t, err)
			requireBracket(t, sel)
			require.GreaterOrEqual(t, sel.Steps, 2)

			if tt.upward {
				require.GreaterOrEqual(t, sel.Lambda, discrepancy.DefaultInitialStrength)
			} else {
				require.Less(t, sel.Lambda, discrepancy.DefaultInitialStrength)
			}

			// ‖A(x_λ)-b‖² ≤ ‖η‖² < ‖A(x_{λ·1.1})-b‖² from fresh solves.
			fit, err := objective.Tikhonov(p.op, sel.Lambda)
			require.NoError(t, err)
			over, err := objective.Tikhonov(p.op, sel.NextLambda)
			require.NoError(t, err)

			require.Equal(t, sel.Residual, residual(t, fit, p.b))
			require.Equal(t, sel.NextResidual, residual(t, over, p.b))
			require.LessOrEqual(t, residual(t, fit, p.b), sel.NoiseEnergy)
			require.Greater(t, residual(t, over, p.b), sel.NoiseEnergy)
		})
	}
}

func TestSelectElasticNet(t *testing.T) {
	p := newProblem(t, 0.05)

	s, err := discrepancy.New(p.op, p.noiseNorm, discrepancy.WithElasticNet(0.001))
	require.NoError(t, err)

	sel, err := s.Select(p.b, maxIterations)
	require.NoError(t, err)
	requireBracket(t, sel)

	fit, err := objective.ElasticNet(p.op, sel.Lambda, 0.001)
	require.NoError(t, err)
	require.Equal(t, sel.Residual, residual(t, fit, p.b))
}

func TestSelectSemiconvergenceTruncation(t *testing.T) {
	p := newProblem(t, 0.05)

	s, err := discrepancy.New(p.op, p.noiseNorm,
		discrepancy.WithSemiconvergenceTruncation(),
		discrepancy.WithSolverOptions(descent.WithGroundTruth(p.xTrue)))
	require.NoError(t, err)

	sel, err := s.Select(p.b, maxIterations)
	require.NoError(t, err)
	requireBracket(t, sel)

	// The selected iterate is the one closest to the truth along the
	// trial's trajectory.
	fit, err := objective.Tikhonov(p.op, sel.Lambda)
	require.NoError(t, err)

	full, err := descent.Solve(fit, p.b, p.b,
		descent.WithMaxIterations(maxIterations),
		descent.WithGroundTruth(p.xTrue))
	require.NoError(t, err)

	pos := trace.MinPos(full.Trace)
	require.GreaterOrEqual(t, pos, 0)
	require.Less(t, pos, len(full.Trace)-1)

	short, err := descent.Solve(fit, p.b, p.b, descent.WithMaxIterations(pos+1))
	require.NoError(t, err)
	testutil.RequireImageNearlyEqual(t, sel.X, short.X, 0)
	require.InDelta(t, full.Trace[pos], floats.Distance(p.xTrue.Pix, sel.X.Pix, 2), 1e-12)
}

func TestSelectInitialGuess(t *testing.T) {
	p := newProblem(t, 0.1)
	x0 := testutil.Constant(8, 8, 0)

	s, err := discrepancy.New(p.op, p.noiseNorm, discrepancy.WithInitialGuess(x0))
	require.NoError(t, err)

	sel, err := s.Select(p.b, maxIterations)
	require.NoError(t, err)
	requireBracket(t, sel)

	fit, err := objective.Tikhonov(p.op, sel.Lambda)
	require.NoError(t, err)

	res, err := descent.Solve(fit, x0, p.b, descent.WithMaxIterations(maxIterations))
	require.NoError(t, err)
	testutil.RequireImageNearlyEqual(t, sel.X, res.X, 0)
}

func TestSelectNonConvergence(t *testing.T) {
	p := newProblem(t, 0.05)

	// λ₀/1.1 still overshoots the noise energy; two trials cannot bracket.
	s, err := discrepancy.New(p.op, p.noiseNorm, discrepancy.WithMaxSteps(2))
	require.NoError(t, err)

	_, err = s.Select(p.b, maxIterations)
	require.ErrorIs(t, err, discrepancy.ErrNonConvergence)

	// No strength fits zero noise on a blurred observation.
	s, err = discrepancy.New(p.op, 0, discrepancy.WithMaxSteps(5))
	require.NoError(t, err)

	_, err = s.Select(p.b, maxIterations)
	require.ErrorIs(t, err, discrepancy.ErrNonConvergence)
}

func TestSelectorConfigErrors(t *testing.T) {
	p := newProblem(t, 0.05)

	tests := []struct {
		name string
		op   objective.Operator
		norm float64
		opts []discrepancy.Option
	}{
		{"nil operator", nil, 1, nil},
		{"negative noise", p.op, -1, nil},
		{"nan noise", p.op, math.NaN(), nil},
		{"zero strength", p.op, 1, []discrepancy.Option{discrepancy.WithInitialStrength(0)}},
		{"ratio one", p.op, 1, []discrepancy.Option{discrepancy.WithRatio(1)}},
		{"no steps", p.op, 1, []discrepancy.Option{discrepancy.WithMaxSteps(0)}},
		{"negative mu", p.op, 1, []discrepancy.Option{discrepancy.WithElasticNet(-0.1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := discrepancy.New(tt.op, tt.norm, tt.opts...)
			require.ErrorIs(t, err, discrepancy.ErrInvalidConfig)
		})
	}

	_, err := discrepancy.New(p.op, 1, discrepancy.WithSemiconvergenceTruncation())
	require.ErrorIs(t, err, descent.ErrGroundTruthRequired)

	s, err := discrepancy.New(p.op, 1)
	require.NoError(t, err)

	_, err = s.Select(p.b, -1)
	require.ErrorIs(t, err, discrepancy.ErrInvalidConfig)

	_, err = s.Select(testutil.Constant(4, 4, 1), maxIterations)
	require.ErrorIs(t, err, core.ErrShapeMismatch)

	s, err = discrepancy.New(p.op, 1, discrepancy.WithInitialGuess(testutil.Constant(4, 4, 1)))
	require.NoError(t, err)

	_, err = s.Select(p.b, maxIterations)
	require.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestSelectorLogging(t *testing.T) {
	p := newProblem(t, 0.1)

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := discrepancy.New(p.op, p.noiseNorm, discrepancy.WithLogger(logger))
	require.NoError(t, err)

	sel, err := s.Select(p.b, maxIterations)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, sel.Steps+1)
	require.Equal(t, "discrepancy trial", entries[0].Message)
	require.Equal(t, discrepancy.DefaultInitialStrength, entries[0].Data["lambda"])

	last := hook.LastEntry()
	require.Equal(t, logrus.InfoLevel, last.Level)
	require.Equal(t, sel.Lambda, last.Data["lambda"])
}
