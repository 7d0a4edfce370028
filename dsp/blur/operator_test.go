package blur

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-deblur/dsp/core"
	"github.com/cwbudde/algo-deblur/internal/testutil"
)

// circularConvolve is the spatial reference for Forward: periodic
// convolution with the kernel anchored at the origin.
func circularConvolve(x *core.Image, k *Kernel) *core.Image {
	out := x.ZerosLike()
	for r := 0; r < x.Rows; r++ {
		for c := 0; c < x.Cols; c++ {
			var sum float64
			for i := 0; i < k.Diameter; i++ {
				for j := 0; j < k.Diameter; j++ {
					rr := ((r-i)%x.Rows + x.Rows) % x.Rows
					cc := ((c-j)%x.Cols + x.Cols) % x.Cols
					sum += k.At(i, j) * x.At(rr, cc)
				}
			}
			out.Set(r, c, sum)
		}
	}
	return out
}

func TestForwardMatchesCircularConvolution(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		diameter   int
		sigma      float64
	}{
		{"8x8 d3", 8, 8, 3, 1},
		{"8x16 d5", 8, 16, 5, 0.5},
		{"16x4 d4", 16, 4, 4, 2},
		{"6x10 d3", 6, 10, 3, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewOperator(tt.rows, tt.cols, tt.diameter, tt.sigma)
			if err != nil {
				t.Fatalf("NewOperator: %v", err)
			}

			x := testutil.RandomImage(11, tt.rows, tt.cols)
			got, err := op.Forward(x)
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}

			testutil.RequireImageNearlyEqual(t, got, circularConvolve(x, op.Kernel()), 1e-12)
		})
	}
}

func TestAdjointProperty(t *testing.T) {
	shapes := []struct{ rows, cols, diameter int }{
		{8, 8, 3},
		{8, 16, 7},
		{16, 8, 2},
		{5, 9, 4},
	}

	for _, s := range shapes {
		op, err := NewOperator(s.rows, s.cols, s.diameter, 0.5)
		if err != nil {
			t.Fatalf("NewOperator: %v", err)
		}

		for seed := int64(1); seed <= 3; seed++ {
			x := testutil.RandomImage(seed, s.rows, s.cols)
			y := testutil.RandomImage(seed+100, s.rows, s.cols)

			ax, err := op.Forward(x)
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}
			aty, err := op.Adjoint(y)
			if err != nil {
				t.Fatalf("Adjoint: %v", err)
			}

			lhs := testutil.Inner(ax, y)
			rhs := testutil.Inner(x, aty)
			if math.Abs(lhs-rhs) > 1e-10 {
				t.Fatalf("%dx%d seed %d: <Ax,y> = %.15f, <x,A^T y> = %.15f", s.rows, s.cols, seed, lhs, rhs)
			}
		}
	}
}

func TestIdentityKernelRoundTrip(t *testing.T) {
	op, err := NewOperator(8, 8, 1, 1e-9)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	x := testutil.RandomImage(5, 8, 8)
	y, err := op.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	back, err := op.Adjoint(y)
	if err != nil {
		t.Fatalf("Adjoint: %v", err)
	}

	testutil.RequireImageNearlyEqual(t, back, x, 1e-12)
}

func TestResponseHermitian(t *testing.T) {
	rows, cols := 8, 12
	op, err := NewOperator(rows, cols, 5, 0.8)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	h := op.Response()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			mirror := h[((rows-r)%rows)*cols+(cols-c)%cols]
			if cmplx.Abs(h[r*cols+c]-cmplx.Conj(mirror)) > 1e-12 {
				t.Fatalf("H(%d,%d) = %v, conj(H(-k)) = %v", r, c, h[r*cols+c], cmplx.Conj(mirror))
			}
		}
	}

	if math.Abs(real(h[0])-1) > 1e-12 || math.Abs(imag(h[0])) > 1e-12 {
		t.Fatalf("DC gain = %v, want 1", h[0])
	}
}

func TestForwardPreservesConstant(t *testing.T) {
	op, err := NewOperator(8, 8, 7, 0.5)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	x := testutil.Constant(8, 8, 0.25)
	y, err := op.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	testutil.RequireImageNearlyEqual(t, y, x, 1e-12)
}

func TestForwardToAliasing(t *testing.T) {
	op, err := NewOperator(8, 8, 3, 1)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	x := testutil.RandomImage(9, 8, 8)
	want, _ := op.Forward(x)

	if err := op.ForwardTo(x, x); err != nil {
		t.Fatalf("ForwardTo: %v", err)
	}

	testutil.RequireImageNearlyEqual(t, x, want, 0)
}

func TestNormAndCondition(t *testing.T) {
	op, err := NewOperator(8, 8, 3, 1)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if math.Abs(op.Norm()-1) > 1e-12 {
		t.Fatalf("Norm = %v, want 1", op.Norm())
	}

	if op.Condition() < 1 {
		t.Fatalf("Condition = %v, want >= 1", op.Condition())
	}

	// d=2 puts equal mass in two bins, so the Nyquist response is exactly 0.
	singular, err := NewOperator(8, 8, 2, 1)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if !math.IsInf(singular.Condition(), 1) && singular.Condition() < 1e12 {
		t.Fatalf("Condition = %v, want +Inf or huge", singular.Condition())
	}
}

func TestOperatorErrors(t *testing.T) {
	if _, err := NewOperator(4, 8, 5, 1); !errors.Is(err, ErrInvalidKernelSize) {
		t.Errorf("expected ErrInvalidKernelSize, got %v", err)
	}

	if _, err := NewOperator(0, 8, 1, 1); !errors.Is(err, core.ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}

	if _, err := NewOperator(8, 8, 3, -1); !errors.Is(err, ErrInvalidSigma) {
		t.Errorf("expected ErrInvalidSigma, got %v", err)
	}

	op, err := NewOperator(8, 8, 3, 1)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if _, err := op.Forward(testutil.Constant(4, 8, 1)); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}

	if _, err := op.Adjoint(nil); !errors.Is(err, core.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for nil, got %v", err)
	}

	bad := testutil.Constant(8, 8, 1)
	bad.Set(3, 3, math.NaN())
	if _, err := op.Forward(bad); !errors.Is(err, ErrNumericalInstability) {
		t.Errorf("expected ErrNumericalInstability, got %v", err)
	}
}

func TestResponseCache(t *testing.T) {
	ResetCache()

	a, err := NewOperator(8, 8, 3, 0.75)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if CachedResponses() != 1 {
		t.Fatalf("CachedResponses = %d, want 1", CachedResponses())
	}

	b, err := NewOperator(8, 8, 3, 0.75)
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if &a.response[0] != &b.response[0] {
		t.Fatal("expected cached response to be shared")
	}

	c, err := NewOperator(8, 8, 3, 0.75, WithoutCache())
	if err != nil {
		t.Fatalf("NewOperator: %v", err)
	}

	if &c.response[0] == &a.response[0] {
		t.Fatal("WithoutCache must not reuse the cached response")
	}

	for i := range a.response {
		if cmplx.Abs(a.response[i]-c.response[i]) != 0 {
			t.Fatalf("response[%d] differs: %v vs %v", i, a.response[i], c.response[i])
		}
	}
}

func TestApplyHelpers(t *testing.T) {
	x := testutil.RandomImage(21, 8, 8)

	op, _ := NewOperator(8, 8, 4, 0.6)
	want, _ := op.Forward(x)
	wantT, _ := op.Adjoint(x)

	got, err := Apply(x, 4, 0.6)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	testutil.RequireImageNearlyEqual(t, got, want, 0)

	gotT, err := ApplyAdjoint(x, 4, 0.6)
	if err != nil {
		t.Fatalf("ApplyAdjoint: %v", err)
	}
	testutil.RequireImageNearlyEqual(t, gotT, wantT, 0)

	if _, err := Apply(x, 9, 0.6); !errors.Is(err, ErrInvalidKernelSize) {
		t.Fatalf("expected ErrInvalidKernelSize, got %v", err)
	}
}
