package discrepancy

import (
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-deblur/deconv/descent"
	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Default search settings.
const (
	DefaultInitialStrength = 0.031
	DefaultRatio           = 1.1
	DefaultMaxSteps        = 200
)

// Config holds selector settings.
type Config struct {
	InitialStrength float64
	Ratio           float64
	MaxSteps        int // solver runs per Select, not counting truncation re-runs

	// ElasticNet switches the family from Tikhonov to the elastic net with
	// fixed L1 weight Mu.
	ElasticNet bool
	Mu         float64

	// Truncate re-solves every trial for argmin(trace)+1 iterations. The
	// solver options must then carry descent.WithGroundTruth.
	Truncate bool

	// InitialGuess is x0 for every trial; nil uses the observation.
	InitialGuess *core.Image

	SolverOptions []descent.Option
	Logger        logrus.FieldLogger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns λ₀ = 0.031, ratio 1.1, 200 steps and the Tikhonov
// family.
func DefaultConfig() Config {
	return Config{
		InitialStrength: DefaultInitialStrength,
		Ratio:           DefaultRatio,
		MaxSteps:        DefaultMaxSteps,
	}
}

// WithInitialStrength sets λ₀.
func WithInitialStrength(lambda float64) Option {
	return func(cfg *Config) {
		cfg.InitialStrength = lambda
	}
}

// WithRatio sets the geometric step between trial strengths.
func WithRatio(r float64) Option {
	return func(cfg *Config) {
		cfg.Ratio = r
	}
}

// WithMaxSteps caps the number of trial strengths.
func WithMaxSteps(n int) Option {
	return func(cfg *Config) {
		cfg.MaxSteps = n
	}
}

// WithElasticNet searches λ of ½‖Ax-b‖² + ½λ‖x‖² + μ‖x‖₁ for a fixed μ.
func WithElasticNet(mu float64) Option {
	return func(cfg *Config) {
		cfg.ElasticNet = true
		cfg.Mu = mu
	}
}

// WithSemiconvergenceTruncation stops every trial at the iterate with the
// smallest error against the ground truth.
func WithSemiconvergenceTruncation() Option {
	return func(cfg *Config) {
		cfg.Truncate = true
	}
}

// WithInitialGuess sets x0 for every trial solve.
func WithInitialGuess(x0 *core.Image) Option {
	return func(cfg *Config) {
		cfg.InitialGuess = x0
	}
}

// WithSolverOptions passes options to every inner solver run. The
// iteration count passed to Select takes precedence over
// descent.WithMaxIterations.
func WithSolverOptions(opts ...descent.Option) Option {
	return func(cfg *Config) {
		cfg.SolverOptions = append(cfg.SolverOptions, opts...)
	}
}

// WithLogger sets the destination for per-trial debug entries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}
