package objective

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-deblur/dsp/core"
)

// ErrInvalidWeight is returned for negative or non-finite penalty weights.
var ErrInvalidWeight = errors.New("objective: penalty weight must be finite and >= 0")

// Operator is the linear map A and its adjoint. *blur.Operator satisfies it.
type Operator interface {
	Forward(x *core.Image) (*core.Image, error)
	Adjoint(y *core.Image) (*core.Image, error)
}

// Kind identifies the objective family.
type Kind int

const (
	KindPlain Kind = iota
	KindTikhonov
	KindLasso
	KindElasticNet
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTikhonov:
		return "tikhonov"
	case KindLasso:
		return "lasso"
	case KindElasticNet:
		return "elastic-net"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Objective is ½‖A x - b‖² + ½·L2‖x‖² + L1‖x‖₁ for a fixed operator.
// The zero penalty weights give the plain least-squares objective.
type Objective struct {
	kind Kind
	op   Operator
	l2   float64
	l1   float64
}

// Plain returns ½‖A x - b‖².
func Plain(op Operator) *Objective {
	return &Objective{kind: KindPlain, op: op}
}

// Tikhonov returns ½‖A x - b‖² + ½λ‖x‖².
func Tikhonov(op Operator, lambda float64) (*Objective, error) {
	if err := checkWeight("lambda", lambda); err != nil {
		return nil, err
	}

	return &Objective{kind: KindTikhonov, op: op, l2: lambda}, nil
}

// Lasso returns ½‖A x - b‖² + λ‖x‖₁.
func Lasso(op Operator, lambda float64) (*Objective, error) {
	if err := checkWeight("lambda", lambda); err != nil {
		return nil, err
	}

	return &Objective{kind: KindLasso, op: op, l1: lambda}, nil
}

// ElasticNet returns ½‖A x - b‖² + ½λ‖x‖² + μ‖x‖₁.
func ElasticNet(op Operator, lambda, mu float64) (*Objective, error) {
	if err := checkWeight("lambda", lambda); err != nil {
		return nil, err
	}

	if err := checkWeight("mu", mu); err != nil {
		return nil, err
	}

	return &Objective{kind: KindElasticNet, op: op, l2: lambda, l1: mu}, nil
}

func checkWeight(name string, w float64) error {
	if !(w >= 0) || math.IsInf(w, 1) {
		return fmt.Errorf("%w: %s = %g", ErrInvalidWeight, name, w)
	}

	return nil
}

// Kind returns the objective family.
func (o *Objective) Kind() Kind { return o.kind }

// Operator returns the blur operator the objective was built on.
func (o *Objective) Operator() Operator { return o.op }

// Weights returns the L2 and L1 penalty weights.
func (o *Objective) Weights() (l2, l1 float64) { return o.l2, o.l1 }

func (o *Objective) String() string {
	switch o.kind {
	case KindTikhonov:
		return fmt.Sprintf("tikhonov(λ=%g)", o.l2)
	case KindLasso:
		return fmt.Sprintf("lasso(λ=%g)", o.l1)
	case KindElasticNet:
		return fmt.Sprintf("elastic-net(λ=%g, μ=%g)", o.l2, o.l1)
	default:
		return o.kind.String()
	}
}

// Residual returns A x - b.
func (o *Objective) Residual(x, b *core.Image) (*core.Image, error) {
	if err := core.CheckShape(x, b); err != nil {
		return nil, err
	}

	r, err := o.op.Forward(x)
	if err != nil {
		return nil, err
	}

	floats.Sub(r.Pix, b.Pix)

	return r, nil
}

// ResidualNorm2 returns ‖A x - b‖², the quantity the discrepancy principle
// compares with the noise energy.
func (o *Objective) ResidualNorm2(x, b *core.Image) (float64, error) {
	r, err := o.Residual(x, b)
	if err != nil {
		return 0, err
	}

	return floats.Dot(r.Pix, r.Pix), nil
}

// Value returns the objective at x for observation b.
func (o *Objective) Value(x, b *core.Image) (float64, error) {
	fit, err := o.ResidualNorm2(x, b)
	if err != nil {
		return 0, err
	}

	return 0.5*fit + o.Penalty(x), nil
}

// Penalty returns the regularization part ½·L2‖x‖² + L1‖x‖₁ alone.
func (o *Objective) Penalty(x *core.Image) float64 {
	var p float64

	if o.l2 != 0 {
		p += 0.5 * o.l2 * floats.Dot(x.Pix, x.Pix)
	}

	if o.l1 != 0 {
		p += o.l1 * floats.Norm(x.Pix, 1)
	}

	return p
}

// Gradient returns Aᵀ(A x - b) + L2·x + L1·sign(x).
func (o *Objective) Gradient(x, b *core.Image) (*core.Image, error) {
	r, err := o.Residual(x, b)
	if err != nil {
		return nil, err
	}

	g, err := o.op.Adjoint(r)
	if err != nil {
		return nil, err
	}

	if o.l2 == 0 && o.l1 == 0 {
		return g, nil
	}

	// r is no longer needed; reuse it for sign(x).
	term := r.Pix

	if o.l2 != 0 {
		floats.AddScaled(g.Pix, o.l2, x.Pix)
	}

	if o.l1 != 0 {
		for i, v := range x.Pix {
			term[i] = core.Sign(v)
		}

		floats.AddScaled(g.Pix, o.l1, term)
	}

	return g, nil
}
