package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// ErrInvalidLevel is returned for negative or non-finite noise levels.
var ErrInvalidLevel = errors.New("signal: noise level must be finite and >= 0")

// pcgStream is the fixed second PCG word; the seed selects the first.
const pcgStream = 0x9e3779b97f4a7c15

// Generator creates deterministic noise from a seed.
type Generator struct {
	seed uint64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed for noise generation.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a generator with seed 1 unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Seed returns the current seed.
func (g *Generator) Seed() uint64 { return g.seed }

// SetSeed replaces the seed.
func (g *Generator) SetSeed(seed uint64) { g.seed = seed }

func (g *Generator) normal(sigma float64) distuv.Normal {
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(g.seed, pcgStream)}
}

// GaussianNoise returns i.i.d. N(0, sigma²) samples on a rows x cols grid.
func (g *Generator) GaussianNoise(rows, cols int, sigma float64) (*core.Image, error) {
	if !(sigma >= 0) || math.IsInf(sigma, 1) {
		return nil, fmt.Errorf("%w: sigma %g", ErrInvalidLevel, sigma)
	}

	out, err := core.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}

	if sigma == 0 {
		return out, nil
	}

	dist := g.normal(sigma)
	for i := range out.Pix {
		out.Pix[i] = dist.Rand()
	}

	return out, nil
}

// RelativeNoise returns Gaussian noise η shaped like ref with
// ‖η‖ = level·‖ref‖ (Frobenius norms) together with ‖η‖.
func (g *Generator) RelativeNoise(ref *core.Image, level float64) (*core.Image, float64, error) {
	if ref == nil {
		return nil, 0, core.ErrEmptyImage
	}

	if !(level >= 0) || math.IsInf(level, 1) {
		return nil, 0, fmt.Errorf("%w: %g", ErrInvalidLevel, level)
	}

	eta, err := g.GaussianNoise(ref.Rows, ref.Cols, 1)
	if err != nil {
		return nil, 0, err
	}

	target := level * floats.Norm(ref.Pix, 2)
	if n := floats.Norm(eta.Pix, 2); n > 0 {
		floats.Scale(target/n, eta.Pix)
	}

	return eta, floats.Norm(eta.Pix, 2), nil
}

// Corrupt returns blurred + η with ‖η‖ = level·‖blurred‖ and the realized
// noise norm ‖η‖ that the discrepancy principle needs.
func (g *Generator) Corrupt(blurred *core.Image, level float64) (*core.Image, float64, error) {
	eta, norm, err := g.RelativeNoise(blurred, level)
	if err != nil {
		return nil, 0, err
	}

	floats.Add(eta.Pix, blurred.Pix)

	return eta, norm, nil
}

// Normalize returns a copy of im scaled so that max|x| equals targetPeak.
func Normalize(im *core.Image, targetPeak float64) (*core.Image, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("signal: normalize target peak must be >= 0: %f", targetPeak)
	}

	if im == nil || len(im.Pix) == 0 {
		return nil, core.ErrEmptyImage
	}

	out := im.ZerosLike()

	peak := floats.Norm(im.Pix, math.Inf(1))
	if peak == 0 || targetPeak == 0 {
		return out, nil
	}

	floats.ScaleTo(out.Pix, targetPeak/peak, im.Pix)

	return out, nil
}
