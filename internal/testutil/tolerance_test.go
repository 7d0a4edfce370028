package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	a := Constant(2, 2, 1)
	b := Constant(2, 2, 1)
	b.Set(1, 0, 1.1)

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffShapeMismatch(t *testing.T) {
	_, err := MaxAbsDiff(Constant(2, 2, 0), Constant(2, 3, 0))
	if err == nil {
		t.Fatal("expected error for shape mismatch")
	}
}

func TestRequireImageNearlyEqualPasses(t *testing.T) {
	a := RandomImage(3, 4, 4)
	RequireImageNearlyEqual(t, a, a.Clone(), 0)
	RequireFinite(t, a)
}
