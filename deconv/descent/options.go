package descent

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-deblur/deconv/linesearch"
	"github.com/cwbudde/algo-deblur/dsp/core"
)

// Policy selects which iterate Solve returns.
type Policy int

const (
	// Naive returns the final iterate.
	Naive Policy = iota
	// Truncated returns the best-seen iterate along the error trace.
	Truncated
)

func (p Policy) String() string {
	switch p {
	case Naive:
		return "naive"
	case Truncated:
		return "truncated"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Default solver settings.
const (
	DefaultMaxIterations = 50
	DefaultTolerance     = 1e-6
)

// Config holds solver settings. Use Option functions to change them.
type Config struct {
	MaxIterations int
	Tolerance     float64
	Policy        Policy
	LineSearch    linesearch.Params
	GroundTruth   *core.Image
	Logger        logrus.FieldLogger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns 50 iterations, tolerance 1e-6, the Naive policy and
// the default line search.
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Policy:        Naive,
		LineSearch:    linesearch.DefaultParams(),
	}
}

// ApplyOptions applies opts on top of DefaultConfig.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithMaxIterations bounds the number of updates. Zero returns x0.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		cfg.MaxIterations = n
	}
}

// WithTolerance sets the gradient norm below which the solver stops.
func WithTolerance(tol float64) Option {
	return func(cfg *Config) {
		cfg.Tolerance = tol
	}
}

// WithPolicy selects the return policy.
func WithPolicy(p Policy) Option {
	return func(cfg *Config) {
		cfg.Policy = p
	}
}

// WithLineSearch replaces the backtracking parameters.
func WithLineSearch(p linesearch.Params) Option {
	return func(cfg *Config) {
		cfg.LineSearch = p
	}
}

// WithGroundTruth enables the error trace ‖x_true - x_k‖. It is required by
// the Truncated policy and only used for diagnostics otherwise.
func WithGroundTruth(x *core.Image) Option {
	return func(cfg *Config) {
		cfg.GroundTruth = x
	}
}

// WithLogger sets the destination for per-iteration debug entries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

func (cfg Config) validate() error {
	if cfg.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, cfg.MaxIterations)
	}

	if !(cfg.Tolerance >= 0) || math.IsInf(cfg.Tolerance, 1) {
		return fmt.Errorf("%w: tolerance %g", ErrInvalidConfig, cfg.Tolerance)
	}

	if cfg.Policy != Naive && cfg.Policy != Truncated {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, cfg.Policy)
	}

	if cfg.Policy == Truncated && cfg.GroundTruth == nil {
		return ErrGroundTruthRequired
	}

	return cfg.LineSearch.Validate()
}

func (cfg Config) logger() logrus.FieldLogger {
	if cfg.Logger != nil {
		return cfg.Logger
	}

	l := logrus.New()
	l.Out = io.Discard

	return l
}
